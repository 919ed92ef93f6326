package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// Options tunes the connection pool. Zero values fall back to defaults.
type Options struct {
	MaxOpenConns int
}

const defaultMaxOpenConns = 1 // SQLite is not great with many writers

// Pragmas are set through the DSN so every pooled connection gets them.
var connPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// dsn builds a modernc sqlite DSN for path with the connection pragmas applied.
// Write transactions take the lock up front so concurrent writers queue on busy_timeout.
func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// InitDB opens/creates a SQLite DB file and migrates it to the latest schema.
func InitDB(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)

	// Fail fast if the DB cannot be reached
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
