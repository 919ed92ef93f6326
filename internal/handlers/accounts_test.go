package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"account_store/internal/models"
	"account_store/internal/service"
)

func doJSON(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return m
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if m := decodeBody(t, w); m["status"] != "ok" {
		t.Fatalf("unexpected body: %v", m)
	}
}

func TestRegister(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "created",
			body:     `{"username":"alice","password":"pw1","email":"a@x.io"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate",
			body:     `{"username":"alice","password":"pw1"}`,
			err:      &service.Error{Kind: service.ErrConflict, Msg: "username already exists"},
			wantCode: http.StatusConflict,
			wantErr:  "username already exists",
		},
		{
			name:     "blank username from service",
			body:     `{"username":"  ","password":"pw1"}`,
			err:      &service.Error{Kind: service.ErrValidation, Msg: "username and password required"},
			wantCode: http.StatusBadRequest,
			wantErr:  "username and password required",
		},
		{
			name:     "storage failure hides cause",
			body:     `{"username":"alice","password":"pw1"}`,
			err:      &service.Error{Kind: service.ErrStorage, Msg: "storage failure", Err: errors.New("disk I/O error")},
			wantCode: http.StatusInternalServerError,
			wantErr:  "internal server error",
		},
		{
			name:     "malformed json",
			body:     `{"username":1}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid request body",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			acc := &mockAccounts{registerID: 7, registerErr: tc.err}
			r := newTestRouter(&service.Service{Accounts: acc})

			w := doJSON(t, r, http.MethodPost, "/register", tc.body, nil)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d, body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			m := decodeBody(t, w)
			if tc.wantErr != "" {
				if m["error"] != tc.wantErr {
					t.Fatalf("error=%v, want %q", m["error"], tc.wantErr)
				}
				return
			}
			if m["message"] != "User registered" || int(m["id"].(float64)) != 7 {
				t.Fatalf("unexpected body: %v", m)
			}
			if acc.lastRegister.Username != "alice" || acc.lastRegister.Email != "a@x.io" {
				t.Fatalf("service got %+v", acc.lastRegister)
			}
		})
	}
}

func TestRegister_MissingFieldsReportDetails(t *testing.T) {
	acc := &mockAccounts{}
	r := newTestRouter(&service.Service{Accounts: acc})

	w := doJSON(t, r, http.MethodPost, "/register", `{"username":"bob"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	var out errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Details) != 1 || out.Details[0] != (fieldError{Field: "password", Rule: "required"}) {
		t.Fatalf("unexpected details: %+v", out.Details)
	}
	if acc.lastRegister.Username != "" {
		t.Fatalf("service must not be called on invalid body")
	}
}

func TestLogin(t *testing.T) {
	acc := &mockAccounts{authID: 42}
	tok := &mockTokens{token: "tok123"}
	r := newTestRouter(&service.Service{Accounts: acc, Tokens: tok})

	w := doJSON(t, r, http.MethodPost, "/login", `{"username":"u","password":"p"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	m := decodeBody(t, w)
	if m["token"] != "tok123" || int(m["user_id"].(float64)) != 42 || m["message"] != "Login successful" {
		t.Fatalf("unexpected body: %v", m)
	}
	if acc.lastAuthUser != "u" || acc.lastAuthPass != "p" {
		t.Fatalf("service got %q/%q", acc.lastAuthUser, acc.lastAuthPass)
	}
	if tok.lastGenID != 42 {
		t.Fatalf("token issued for %d, want 42", tok.lastGenID)
	}
}

func TestLogin_Errors(t *testing.T) {
	cases := []struct {
		name     string
		authErr  error
		genErr   error
		wantCode int
		wantErr  string
	}{
		{"invalid credentials", service.ErrInvalidCredentials, nil, http.StatusUnauthorized, "invalid credentials"},
		{"storage failure", &service.Error{Kind: service.ErrStorage, Msg: "storage failure"}, nil, http.StatusInternalServerError, "internal server error"},
		{"token failure", nil, errors.New("no signing key"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			acc := &mockAccounts{authID: 1, authErr: tc.authErr}
			tok := &mockTokens{token: "t", genErr: tc.genErr}
			r := newTestRouter(&service.Service{Accounts: acc, Tokens: tok})

			w := doJSON(t, r, http.MethodPost, "/login", `{"username":"u","password":"p"}`, nil)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d", w.Code, tc.wantCode)
			}
			if m := decodeBody(t, w); m["error"] != tc.wantErr {
				t.Fatalf("error=%v, want %q", m["error"], tc.wantErr)
			}
		})
	}
}

func TestListUsers(t *testing.T) {
	email := "a@x.io"
	acc := &mockAccounts{listRes: service.ListResult{
		Page: 2,
		Accounts: []models.AccountSummary{
			{ID: 11, Username: "k", Email: &email},
			{ID: 12, Username: "l"},
		},
	}}
	r := newTestRouter(&service.Service{Accounts: acc})

	w := doJSON(t, r, http.MethodGet, "/users?page=2", "", authHeader("abc"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if acc.lastList.Page != "2" || acc.lastList.AuthToken != "Bearer abc" {
		t.Fatalf("service got %+v", acc.lastList)
	}

	var out struct {
		Page  int              `json:"page"`
		Users []map[string]any `json:"users"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Page != 2 || len(out.Users) != 2 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if out.Users[0]["email"] != email || out.Users[1]["email"] != nil {
		t.Fatalf("unexpected emails: %v", out.Users)
	}
	for _, u := range out.Users {
		if _, ok := u["password"]; ok {
			t.Fatalf("listing leaked a password field: %v", u)
		}
	}
}

func TestListUsers_Errors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"missing token", service.ErrAuthRequired, http.StatusUnauthorized},
		{"bad page", &service.Error{Kind: service.ErrValidation, Msg: "invalid page parameter"}, http.StatusBadRequest},
		{"storage", &service.Error{Kind: service.ErrStorage, Msg: "storage failure"}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			acc := &mockAccounts{listErr: tc.err}
			r := newTestRouter(&service.Service{Accounts: acc})

			w := doJSON(t, r, http.MethodGet, "/users?page=x", "", nil)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d", w.Code, tc.wantCode)
			}
			if acc.lastList.AuthToken != "" {
				t.Fatalf("expected empty Authorization, got %q", acc.lastList.AuthToken)
			}
		})
	}
}

func TestDeleteUser(t *testing.T) {
	cases := []struct {
		name      string
		path      string
		err       error
		wantCode  int
		wantCalls int
	}{
		{"deleted", "/user/5", nil, http.StatusOK, 1},
		{"missing id still succeeds", "/user/999", nil, http.StatusOK, 1},
		{"non integer id", "/user/abc", nil, http.StatusBadRequest, 0},
		{"storage failure", "/user/5", &service.Error{Kind: service.ErrStorage, Msg: "storage failure"}, http.StatusInternalServerError, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			acc := &mockAccounts{deleteErr: tc.err}
			r := newTestRouter(&service.Service{Accounts: acc})

			w := doJSON(t, r, http.MethodDelete, tc.path, "", nil)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d, body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			if acc.deleteCalls != tc.wantCalls {
				t.Fatalf("delete calls=%d, want %d", acc.deleteCalls, tc.wantCalls)
			}
			if tc.wantCode == http.StatusOK {
				if m := decodeBody(t, w); m["message"] != "User deleted" {
					t.Fatalf("unexpected body: %v", m)
				}
			}
		})
	}
}
