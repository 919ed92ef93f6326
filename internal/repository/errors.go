package repository

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicateUsername is returned by Create when the username is already taken.
var ErrDuplicateUsername = errors.New("username already exists")

// isUniqueViolation reports whether err comes from a UNIQUE / PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	// drivers without extended codes still carry the sqlite message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
