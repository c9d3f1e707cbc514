package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/keepsake-api/internal/application/identity"
	"github.com/keepsake-api/internal/domain"
	"github.com/keepsake-api/internal/transport/http/middleware"
)

// SessionHandler handles sign-in and the current-account endpoint.
type SessionHandler struct {
	svc identity.Service
}

func NewSessionHandler(svc identity.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Msg)
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
		default:
			slog.Error("login failed", "email", req.Email, "err", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{
		Success: true,
		Token:   result.Token,
		User:    toUserView(result.Account),
	})
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	acct, err := h.svc.GetByEmail(r.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		slog.Error("failed to load account", "account_id", claims.AccountID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	writeJSON(w, http.StatusOK, MeEnvelope{User: toUserView(acct)})
}
