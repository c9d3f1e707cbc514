package http

import (
	"net/http"

	"github.com/keepsake-api/internal/application/identity"
	"github.com/keepsake-api/internal/application/signup"
	jwtinfra "github.com/keepsake-api/internal/infrastructure/jwt"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Signup   signup.Service
	Identity identity.Service
	// JWTProvider enables sign-in and /api/me. Nil leaves them unmounted.
	JWTProvider *jwtinfra.Provider
	// Metrics serves /metrics. Nil leaves it unmounted.
	Metrics http.Handler
}
