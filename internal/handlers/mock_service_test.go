package handlers

import (
	"context"
	"net/http"
	"sync"

	"account_store/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAccounts struct {
	mu sync.Mutex

	registerID  int
	registerErr error
	authID      int
	authErr     error
	listRes     service.ListResult
	listErr     error
	deleteErr   error
	count       int
	countErr    error

	lastRegister service.RegisterInput
	lastAuthUser string
	lastAuthPass string
	lastList     service.ListParams
	lastDeleteID int
	deleteCalls  int
	countCalls   int
}

func (m *mockAccounts) Register(ctx context.Context, in service.RegisterInput) (int, error) {
	m.lastRegister = in
	return m.registerID, m.registerErr
}

func (m *mockAccounts) Authenticate(ctx context.Context, username, password string) (int, error) {
	m.lastAuthUser = username
	m.lastAuthPass = password
	return m.authID, m.authErr
}

func (m *mockAccounts) ListAccounts(ctx context.Context, p service.ListParams) (service.ListResult, error) {
	m.lastList = p
	return m.listRes, m.listErr
}

func (m *mockAccounts) DeleteAccount(ctx context.Context, id int) error {
	m.deleteCalls++
	m.lastDeleteID = id
	return m.deleteErr
}

func (m *mockAccounts) CountAccounts(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countCalls++
	return m.count, m.countErr
}

type mockTokens struct {
	token   string
	genErr  error
	parseID int

	lastGenID int
}

func (m *mockTokens) GenerateToken(userID int) (string, error) {
	m.lastGenID = userID
	return m.token, m.genErr
}

func (m *mockTokens) ParseToken(token string) (int, error) {
	return m.parseID, nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
