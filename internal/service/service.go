package service

import (
	"context"
	"time"

	"account_store/internal/events"
	"account_store/internal/logger"
	"account_store/internal/repository"
)

// Accounts is the account store: registration, authentication, listing and deletion.
type Accounts interface {
	Register(ctx context.Context, in RegisterInput) (int, error)
	Authenticate(ctx context.Context, username, password string) (int, error)
	ListAccounts(ctx context.Context, p ListParams) (ListResult, error)
	DeleteAccount(ctx context.Context, id int) error
	CountAccounts(ctx context.Context) (int, error)
}

// Tokens issues and verifies signed access tokens.
type Tokens interface {
	GenerateToken(userID int) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Service aggregates the sub-services used by the HTTP layer.
type Service struct {
	Accounts
	Tokens
}

// Options are the startup-time knobs of the service layer.
type Options struct {
	BcryptCost      int
	MaxOffset       int
	SigningKey      []byte
	TokenTTL        time.Duration
	VerifyListToken bool
}

func NewService(repos *repository.Repository, opts Options, pub events.Publisher, log *logger.Logger) *Service {
	tokens := NewTokenService(opts.SigningKey, opts.TokenTTL)
	return &Service{
		Accounts: NewAccountService(repos.Accounts, AccountOptions{
			BcryptCost:      opts.BcryptCost,
			MaxOffset:       opts.MaxOffset,
			VerifyListToken: opts.VerifyListToken,
		}, tokens, pub, log),
		Tokens: tokens,
	}
}
