package handler

import (
	"encoding/json"
	"net/http"

	"github.com/keepsake-api/internal/domain"
)

const maxBodyBytes = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UserView is the public projection of an account.
type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// VerifyEnvelope wraps a successful verification.
type VerifyEnvelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    UserView `json:"user"`
}

// LoginEnvelope wraps login responses.
type LoginEnvelope struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    UserView `json:"user"`
}

// MeEnvelope wraps current-account responses.
type MeEnvelope struct {
	User UserView `json:"user"`
}

func toUserView(a *domain.Account) UserView {
	return UserView{ID: a.AccountID, Email: a.Email}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
