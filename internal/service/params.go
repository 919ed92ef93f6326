package service

import "account_store/internal/models"

// PageSize is the fixed number of accounts per listing page.
const PageSize = 10

// DefaultMaxOffset bounds how deep a listing may page.
const DefaultMaxOffset = 10000

type RegisterInput struct {
	Username string
	Password string
	Email    string // optional; empty means none
}

// ListParams carries the raw page value and Authorization header of a listing call.
type ListParams struct {
	Page      string // empty means page 1
	AuthToken string // e.g. "Bearer abc"
}

type ListResult struct {
	Page     int                     `json:"page"`
	Accounts []models.AccountSummary `json:"users"`
}
