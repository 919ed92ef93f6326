package models

// Account is a stored user record.
type Account struct {
	ID           int     `json:"id"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"-"` // never serialized
	Email        *string `json:"email"`
	IsAdmin      bool    `json:"is_admin"`
}

// AccountSummary is the listing projection of an Account.
type AccountSummary struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
}
