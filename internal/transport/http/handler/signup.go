package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/keepsake-api/internal/application/signup"
	"github.com/keepsake-api/internal/domain"
)

// SignupHandler serves the two-step email verification signup.
type SignupHandler struct {
	svc signup.Service
}

func NewSignupHandler(svc signup.Service) *SignupHandler {
	return &SignupHandler{svc: svc}
}

func (h *SignupHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req domain.InitiateSignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Initiate(r.Context(), req); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Msg)
			return
		}
		slog.Error("signup failed", "email", req.Email, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to send verification code")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Success: true,
		Message: "Verification code sent to your email",
	})
}

func (h *SignupHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.FinalizeSignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	acct, err := h.svc.Finalize(r.Context(), req)
	if err != nil {
		status, msg := verifyError(err)
		if status >= http.StatusInternalServerError {
			slog.Error("verification failed", "email", req.Email, "err", err)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{
		Success: true,
		Message: "Account created successfully",
		User:    toUserView(acct),
	})
}

// verifyError maps a Finalize failure to its HTTP status and client message.
func verifyError(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Msg
	case errors.Is(err, domain.ErrInvalidCode):
		return http.StatusBadRequest, "Invalid or expired verification code"
	case errors.Is(err, domain.ErrExpiredCode):
		return http.StatusBadRequest, "Verification code has expired"
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "Password mismatch"
	case errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusBadRequest, "This email is already registered"
	default:
		return http.StatusInternalServerError, "Verification failed"
	}
}
