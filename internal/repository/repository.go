package repository

import (
	"context"
	"database/sql"

	"account_store/internal/models"
)

type Accounts interface {
	Create(ctx context.Context, a models.Account) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]models.AccountSummary, error)
	Delete(ctx context.Context, id int) (bool, error)
	Count(ctx context.Context) (int, error)
}

type Repository struct {
	Accounts Accounts
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Accounts: NewAccountSQLite(db),
	}
}
