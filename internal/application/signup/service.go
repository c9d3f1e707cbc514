package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/keepsake-api/internal/domain"
	"github.com/keepsake-api/internal/observability/metrics"
	"github.com/keepsake-api/internal/pkg/validate"
)

type Service interface {
	// Initiate stores a pending signup for req.Email and emails its code.
	Initiate(ctx context.Context, req domain.InitiateSignupRequest) error
	// Finalize redeems a code and creates the account.
	Finalize(ctx context.Context, req domain.FinalizeSignupRequest) (*domain.Account, error)
}

type pendingStore interface {
	Upsert(ctx context.Context, p *domain.PendingSignup) error
	GetByEmailAndCode(ctx context.Context, email, code string) (*domain.PendingSignup, error)
	Delete(ctx context.Context, email string) error
}

type identityProvider interface {
	CreateUser(ctx context.Context, email, password string, preConfirmed bool) (*domain.Account, error)
}

type codeSender interface {
	Send(ctx context.Context, email, code string) error
}

// operatorChannel receives codes whose email could not be delivered.
type operatorChannel interface {
	Publish(ctx context.Context, subject, message string) error
}

type service struct {
	store    pendingStore
	identity identityProvider
	notifier codeSender
	operator operatorChannel
	codes    CodeGenerator
	now      func() time.Time
}

type ServiceDeps struct {
	Store    pendingStore
	Identity identityProvider
	Notifier codeSender
	Operator operatorChannel // optional
	Codes    CodeGenerator   // defaults to RandomCodes
	Now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:    deps.Store,
		identity: deps.Identity,
		notifier: deps.Notifier,
		operator: deps.Operator,
		codes:    deps.Codes,
		now:      deps.Now,
	}
	if s.codes == nil {
		s.codes = RandomCodes
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Initiate(ctx context.Context, req domain.InitiateSignupRequest) error {
	if err := validate.Struct(req); err != nil {
		metrics.SignupsInitiatedTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return domain.NewValidationError(err.Error())
	}

	code, expiry, err := s.codes.Generate(s.now())
	if err != nil {
		metrics.SignupsInitiatedTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return err
	}
	pending := &domain.PendingSignup{
		Email:           req.Email,
		Code:            code,
		Password:        req.Password,
		Expiry:          expiry,
		HasVerification: true,
	}
	if err := s.store.Upsert(ctx, pending); err != nil {
		slog.Error("failed to store pending signup", "email", req.Email, "err", err)
		metrics.SignupsInitiatedTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("store pending signup: %w: %w", domain.ErrStorage, err)
	}
	metrics.SignupsInitiatedTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	if err := s.notifier.Send(ctx, req.Email, code); err != nil {
		slog.Error("verification email failed", "email", req.Email, "err", err)
		metrics.VerificationEmailsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		s.fallback(ctx, req.Email, code, expiry)
		return nil
	}
	metrics.VerificationEmailsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	slog.Info("verification email sent", "email", req.Email)
	return nil
}

// fallback makes an undelivered code recoverable by an operator: it is always
// logged, and also published when an operator channel is configured.
func (s *service) fallback(ctx context.Context, email, code string, expiry time.Time) {
	slog.Warn("FALLBACK verification code",
		"email", email,
		"code", code,
		"expires_at", expiry.UTC().Format(time.RFC3339),
	)
	if s.operator == nil {
		return
	}
	msg := fmt.Sprintf("Verification code for %s: %s (expires at %s)", email, code, expiry.UTC().Format(time.RFC3339))
	if err := s.operator.Publish(ctx, "Undelivered verification code", msg); err != nil {
		slog.Error("failed to publish fallback verification code", "email", email, "err", err)
	}
}

func (s *service) Finalize(ctx context.Context, req domain.FinalizeSignupRequest) (*domain.Account, error) {
	if err := validate.Struct(req); err != nil {
		countFinalize("invalid_request")
		return nil, domain.NewValidationError(err.Error())
	}

	pending, err := s.store.GetByEmailAndCode(ctx, req.Email, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			countFinalize("invalid_code")
			return nil, fmt.Errorf("finalize signup for %s: %w", req.Email, domain.ErrInvalidCode)
		}
		slog.Error("failed to look up pending signup", "email", req.Email, "err", err)
		countFinalize("storage_error")
		return nil, fmt.Errorf("look up pending signup: %w: %w", domain.ErrStorage, err)
	}
	if pending.Expired(s.now()) {
		countFinalize("expired_code")
		return nil, fmt.Errorf("finalize signup for %s: %w", req.Email, domain.ErrExpiredCode)
	}
	if pending.Password != req.Password {
		countFinalize("password_mismatch")
		return nil, fmt.Errorf("finalize signup for %s: %w", req.Email, domain.ErrPasswordMismatch)
	}

	acct, err := s.identity.CreateUser(ctx, req.Email, req.Password, true)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateAccount):
			countFinalize("duplicate_account")
			return nil, err
		case errors.Is(err, domain.ErrValidation):
			countFinalize("invalid_request")
			return nil, err
		}
		slog.Error("failed to provision account", "email", req.Email, "err", err)
		countFinalize("provisioning_error")
		return nil, fmt.Errorf("provision account: %w: %w", domain.ErrProvisioning, err)
	}

	if err := s.store.Delete(ctx, req.Email); err != nil {
		slog.Warn("failed to delete pending signup", "email", req.Email, "err", err)
	}
	countFinalize(metrics.ResultSuccess)
	slog.Info("account created", "email", acct.Email, "account_id", acct.AccountID)
	return acct, nil
}

func countFinalize(outcome string) {
	metrics.SignupsFinalizedTotal.WithLabelValues(outcome).Inc()
}
