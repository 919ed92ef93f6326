package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"account_store/internal/models"
)

type AccountSQLite struct {
	db *sql.DB
}

func NewAccountSQLite(db *sql.DB) *AccountSQLite {
	return &AccountSQLite{db: db}
}

// Ensure implementation of Accounts interface at compile time.
var _ Accounts = (*AccountSQLite)(nil)

const (
	insertAccountSQL           = `INSERT INTO users (username, password, email, is_admin) VALUES (?, ?, ?, ?)`
	selectAccountByUsernameSQL = `SELECT id, username, password, email, is_admin FROM users WHERE username = ?`
	selectAccountsPageSQL      = `SELECT id, username, email FROM users ORDER BY id ASC LIMIT ? OFFSET ?`
	deleteAccountSQL           = `DELETE FROM users WHERE id = ?`
	countAccountsSQL           = `SELECT COUNT(*) FROM users`
)

// Create inserts a new account and returns its ID.
// A taken username yields ErrDuplicateUsername; the UNIQUE index decides, not a pre-check.
func (r *AccountSQLite) Create(ctx context.Context, a models.Account) (int, error) {
	var id int64
	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx, insertAccountSQL, a.Username, a.PasswordHash, nullString(a.Email), a.IsAdmin)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateUsername
			}
			return fmt.Errorf("insert account %q: %w", a.Username, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("get last insert id for account %q: %w", a.Username, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// GetByUsername fetches an account by username. Returns (nil, nil) if not found.
func (r *AccountSQLite) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	var (
		a     models.Account
		email sql.NullString
	)
	err := r.db.QueryRowContext(ctx, selectAccountByUsernameSQL, username).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &email, &a.IsAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select account %q: %w", username, err)
	}
	a.Email = stringPtr(email)
	return &a, nil
}

// List returns up to limit accounts after skipping offset rows, ordered by id.
func (r *AccountSQLite) List(ctx context.Context, limit, offset int) ([]models.AccountSummary, error) {
	rows, err := r.db.QueryContext(ctx, selectAccountsPageSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts (limit=%d offset=%d): %w", limit, offset, err)
	}
	defer rows.Close()

	out := make([]models.AccountSummary, 0, limit)
	for rows.Next() {
		var (
			s     models.AccountSummary
			email sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Username, &email); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		s.Email = stringPtr(email)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return out, nil
}

// Delete removes the account with the given id and reports whether a row
// existed. Missing ids are not an error.
func (r *AccountSQLite) Delete(ctx context.Context, id int) (bool, error) {
	var deleted bool
	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx, deleteAccountSQL, id)
		if err != nil {
			return fmt.Errorf("delete account %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected for account %d: %w", id, err)
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Count returns the number of stored accounts.
func (r *AccountSQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countAccountsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
