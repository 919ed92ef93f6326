package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"account_store/internal/events"
	"account_store/internal/logger"
	"account_store/internal/models"
	"account_store/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const bearerPrefix = "Bearer "

type AccountOptions struct {
	BcryptCost      int
	MaxOffset       int
	VerifyListToken bool
}

// AccountService implements Accounts on top of repository.Accounts.
type AccountService struct {
	repo            repository.Accounts
	tokens          Tokens
	pub             events.Publisher
	log             *logger.Logger
	cost            int
	maxOffset       int
	verifyListToken bool

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAccountService(repo repository.Accounts, opts AccountOptions, tokens Tokens, pub events.Publisher, log *logger.Logger) *AccountService {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	maxOffset := opts.MaxOffset
	if maxOffset <= 0 {
		maxOffset = DefaultMaxOffset
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &AccountService{
		repo:            repo,
		tokens:          tokens,
		pub:             pub,
		log:             log,
		cost:            cost,
		maxOffset:       maxOffset,
		verifyListToken: opts.VerifyListToken,
	}
}

// Register hashes the password and stores a new account, returning its id.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (int, error) {
	if isBlank(in.Username) || isBlank(in.Password) {
		return 0, validationError("username and password required")
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return 0, err
	}

	var email *string
	if e := strings.TrimSpace(in.Email); e != "" {
		email = &e
	}

	id, err := s.repo.Create(ctx, models.Account{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        email,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return 0, &Error{Kind: ErrConflict, Msg: "username already exists", Err: err}
		}
		s.logError("account_register_failed", err, "username", in.Username)
		return 0, storageError(err)
	}

	if s.log != nil {
		s.log.Infow("account_registered", "id", id, "username", in.Username)
	}
	s.publish(ctx, events.AccountRegistered, events.AccountRegisteredEvent{AccountID: id, Username: in.Username})
	return id, nil
}

// Authenticate verifies a credential pair and returns the account id.
// Unknown usernames and wrong passwords fail with the same ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (int, error) {
	if isBlank(username) || isBlank(password) {
		return 0, validationError("username and password required")
	}

	a, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		s.logError("account_lookup_failed", err, "username", username)
		return 0, storageError(err)
	}
	if a == nil {
		// burn a comparison so a missing user costs the same as a wrong password
		_ = bcrypt.CompareHashAndPassword(s.dummy(), passwordDigest(password))
		return 0, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), passwordDigest(password)); err != nil {
		return 0, ErrInvalidCredentials
	}
	return a.ID, nil
}

// ListAccounts returns one page of account summaries ordered by id.
// The bearer token is checked before the store is touched.
func (s *AccountService) ListAccounts(ctx context.Context, p ListParams) (ListResult, error) {
	token, err := bearerToken(p.AuthToken)
	if err != nil {
		return ListResult{}, err
	}
	if s.verifyListToken {
		if s.tokens == nil {
			return ListResult{}, ErrAuthRequired
		}
		if _, err := s.tokens.ParseToken(token); err != nil {
			return ListResult{}, &Error{Kind: ErrAuthentication, Msg: "invalid or expired token", Err: err}
		}
	}

	page, err := parsePage(p.Page)
	if err != nil {
		return ListResult{}, err
	}
	offset, err := pageOffset(page, PageSize, s.maxOffset)
	if err != nil {
		return ListResult{}, err
	}

	accounts, err := s.repo.List(ctx, PageSize, offset)
	if err != nil {
		s.logError("account_list_failed", err, "page", page)
		return ListResult{}, storageError(err)
	}
	return ListResult{Page: page, Accounts: accounts}, nil
}

// DeleteAccount removes the account if present. Deleting a missing id succeeds
// but publishes no event.
func (s *AccountService) DeleteAccount(ctx context.Context, id int) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logError("account_delete_failed", err, "id", id)
		return storageError(err)
	}
	if !deleted {
		return nil
	}
	if s.log != nil {
		s.log.Infow("account_deleted", "id", id)
	}
	s.publish(ctx, events.AccountDeleted, events.AccountDeletedEvent{AccountID: id})
	return nil
}

func (s *AccountService) CountAccounts(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, storageError(err)
	}
	return n, nil
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordDigest(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// passwordDigest maps a password of any length onto a fixed 44-byte bcrypt
// input, so bcrypt never truncates or rejects it.
func passwordDigest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (s *AccountService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword(passwordDigest("account-store-dummy"), s.cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *AccountService) publish(ctx context.Context, eventType string, data any) {
	if err := s.pub.Publish(ctx, eventType, data); err != nil && s.log != nil {
		s.log.Warnw("account_event_publish_failed", "type", eventType, "err", err)
	}
}

func (s *AccountService) logError(key string, err error, kv ...interface{}) {
	if s.log != nil {
		s.log.Errorw(key, append([]interface{}{"err", err}, kv...)...)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// bearerToken extracts the token from an Authorization value of the form "Bearer <token>".
// Only presence and shape are checked here.
func bearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrAuthRequired
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", ErrAuthRequired
	}
	return token, nil
}

// parsePage reads a 1-based page number. Empty means 1 and values below 1 are clamped to 1.
func parsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validationError("invalid page parameter")
	}
	if page < 1 {
		page = 1
	}
	return page, nil
}

// pageOffset converts page into a row offset, rejecting offsets past maxOffset
// without computing the overflowing product.
func pageOffset(page, size, maxOffset int) (int, error) {
	if page-1 > maxOffset/size {
		return 0, validationError("page number too large")
	}
	return (page - 1) * size, nil
}
