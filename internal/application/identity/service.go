package identity

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/keepsake-api/internal/domain"
	"github.com/keepsake-api/internal/pkg/id"
	"github.com/keepsake-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type LoginResult struct {
	Token   string
	Account *domain.Account
}

type Service interface {
	// CreateUser provisions an account. It fails with domain.ErrDuplicateAccount
	// when the email is already registered.
	CreateUser(ctx context.Context, email, password string, preConfirmed bool) (*domain.Account, error)
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type accountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type tokenSigner interface {
	Sign(accountID, email string) (string, error)
}

type service struct {
	accounts accountStore
	signer   tokenSigner
}

// NewService builds the identity provider. signer may be nil, in which case
// Login is unavailable.
func NewService(accounts accountStore, signer tokenSigner) Service {
	return &service{accounts: accounts, signer: signer}
}

func (s *service) CreateUser(ctx context.Context, email, password string, preConfirmed bool) (*domain.Account, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:      id.New(),
		Email:          email,
		PasswordHash:   string(hash),
		EmailConfirmed: preConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("create account %s: %w", email, domain.ErrDuplicateAccount)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if s.signer == nil {
		return nil, errors.New("token signing is not configured")
	}
	a, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), prehash(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	token, err := s.signer.Sign(a.AccountID, a.Email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Account: a}, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.accounts.GetByEmail(ctx, email)
}

// prehash maps a password of any length to 44 ASCII bytes, below bcrypt's
// 72-byte input limit.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
