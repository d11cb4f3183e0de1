package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jobtrail/extension-host/internal/auth"
	"github.com/jobtrail/extension-host/internal/middleware"
	"github.com/jobtrail/extension-host/internal/models"
	"github.com/jobtrail/extension-host/internal/repository"
	"github.com/jobtrail/extension-host/internal/service"
)

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	registerUser *models.User
	registerErr  error
	grant        *service.TokenGrant
	loginErr     error
	session      *repository.Session
	cookieErr    error
	sessionErr   error
	verifyErr    error
	linkedEmail  string
	linkErr      error
}

func (f *fakeAuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	return f.registerUser, f.registerErr
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*service.TokenGrant, error) {
	return f.grant, f.loginErr
}

func (f *fakeAuthService) CookieLogin(ctx context.Context, email, password string) (*repository.Session, error) {
	return f.session, f.cookieErr
}

func (f *fakeAuthService) SessionToBearer(ctx context.Context, sessionToken string) (*service.TokenGrant, error) {
	return f.grant, f.sessionErr
}

func (f *fakeAuthService) VerifyToken(ctx context.Context, token string) (*service.TokenGrant, error) {
	return f.grant, f.verifyErr
}

func (f *fakeAuthService) LinkAccount(ctx context.Context, userID, websiteEmail, websitePassword string) (string, error) {
	return f.linkedEmail, f.linkErr
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		service        *fakeAuthService
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "invalid JSON",
			body:           `not a json`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "email and password required",
		},
		{
			name:           "empty password",
			body:           `{"email":"alice@example.com","password":""}`,
			service:        &fakeAuthService{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "email and password required",
		},
		{
			name:           "email already registered",
			body:           `{"email":"bob@example.com","password":"hunter2"}`,
			service:        &fakeAuthService{registerErr: service.ErrEmailTaken},
			expectedCode:   http.StatusConflict,
			expectedSubstr: "email already registered",
		},
		{
			name:           "repository failure",
			body:           `{"email":"bob@example.com","password":"hunter2"}`,
			service:        &fakeAuthService{registerErr: errors.New("db error")},
			expectedCode:   http.StatusInternalServerError,
			expectedSubstr: "failed to create user",
		},
		{
			name:           "created",
			body:           `{"email":"carol@example.com","password":"hunter2"}`,
			service:        &fakeAuthService{registerUser: &models.User{ID: "u1", Email: "carol@example.com"}},
			expectedCode:   http.StatusCreated,
			expectedSubstr: "carol@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/auth/register", bytes.NewBufferString(tt.body))
			h := &AuthHandler{AuthService: tt.service}
			h.Register(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, res.StatusCode)
			}

			buf := new(bytes.Buffer)
			if _, err := buf.ReadFrom(res.Body); err != nil {
				t.Fatalf("failed to read body: %v", err)
			}
			if !bytes.Contains(buf.Bytes(), []byte(tt.expectedSubstr)) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedSubstr, buf.String())
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	okGrant := &service.TokenGrant{
		Token:     "jwt-abc",
		ExpiresAt: 1700000000000,
		User:      &models.User{ID: "u1", Email: "dave@example.com"},
	}

	tests := []struct {
		name         string
		body         string
		service      *fakeAuthService
		expectedCode int
		expectToken  string
	}{
		{
			name:         "invalid JSON",
			body:         `{`,
			service:      &fakeAuthService{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "wrong password",
			body:         `{"email":"dave@example.com","password":"nope"}`,
			service:      &fakeAuthService{loginErr: service.ErrInvalidCredentials},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "service failure",
			body:         `{"email":"dave@example.com","password":"hunter2"}`,
			service:      &fakeAuthService{loginErr: errors.New("db down")},
			expectedCode: http.StatusInternalServerError,
		},
		{
			name:         "successful login",
			body:         `{"email":"dave@example.com","password":"hunter2"}`,
			service:      &fakeAuthService{grant: okGrant},
			expectedCode: http.StatusOK,
			expectToken:  "jwt-abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(tt.body))
			h := &AuthHandler{AuthService: tt.service}
			h.Login(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, res.StatusCode)
			}

			if tt.expectToken != "" {
				var payload map[string]any
				if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
					t.Fatalf("failed to decode JSON: %v", err)
				}
				if payload["token"] != tt.expectToken {
					t.Errorf("expected token %q, got %v", tt.expectToken, payload["token"])
				}
				if payload["expiresAt"] == nil {
					t.Error("expected expiresAt in response")
				}
			}
		})
	}
}

func TestAuthHandler_SessionLogin(t *testing.T) {
	sess := &repository.Session{
		Token:     "sess-123",
		UserID:    "u1",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	t.Run("sets session cookie on success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/auth/session/login",
			bytes.NewBufferString(`{"email":"erin@example.com","password":"hunter2"}`))
		h := &AuthHandler{AuthService: &fakeAuthService{session: sess}}
		h.SessionLogin(rec, req)
		res := rec.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", res.StatusCode)
		}
		var found *http.Cookie
		for _, ck := range res.Cookies() {
			if ck.Name == sessionCookie {
				found = ck
			}
		}
		if found == nil {
			t.Fatalf("expected %s cookie to be set", sessionCookie)
		}
		if found.Value != "sess-123" {
			t.Errorf("expected cookie value %q, got %q", "sess-123", found.Value)
		}
		if !found.HttpOnly {
			t.Error("expected cookie to be HttpOnly")
		}
	})

	t.Run("no cookie on bad credentials", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/auth/session/login",
			bytes.NewBufferString(`{"email":"erin@example.com","password":"nope"}`))
		h := &AuthHandler{AuthService: &fakeAuthService{cookieErr: service.ErrInvalidCredentials}}
		h.SessionLogin(rec, req)
		res := rec.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", res.StatusCode)
		}
		if len(res.Cookies()) != 0 {
			t.Errorf("expected no cookies, got %d", len(res.Cookies()))
		}
	})
}

func TestAuthHandler_Session(t *testing.T) {
	okGrant := &service.TokenGrant{
		Token:     "jwt-from-session",
		ExpiresAt: 1700000000000,
		User:      &models.User{ID: "u1", Email: "frank@example.com"},
	}

	tests := []struct {
		name       string
		cookie     *http.Cookie
		service    *fakeAuthService
		hasSession bool
	}{
		{
			name:       "no cookie",
			service:    &fakeAuthService{},
			hasSession: false,
		},
		{
			name:       "dead session",
			cookie:     &http.Cookie{Name: sessionCookie, Value: "stale"},
			service:    &fakeAuthService{sessionErr: service.ErrNoSession},
			hasSession: false,
		},
		{
			name:       "live session",
			cookie:     &http.Cookie{Name: sessionCookie, Value: "sess-123"},
			service:    &fakeAuthService{grant: okGrant},
			hasSession: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/auth/session", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			h := &AuthHandler{AuthService: tt.service}
			h.Session(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != http.StatusOK {
				t.Fatalf("expected status 200, got %d", res.StatusCode)
			}
			var payload map[string]any
			if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			if payload["hasSession"] != tt.hasSession {
				t.Errorf("expected hasSession=%v, got %v", tt.hasSession, payload["hasSession"])
			}
			if tt.hasSession && payload["token"] != okGrant.Token {
				t.Errorf("expected token %q, got %v", okGrant.Token, payload["token"])
			}
		})
	}
}

func TestAuthHandler_Verify(t *testing.T) {
	okGrant := &service.TokenGrant{
		Token:     "jwt-abc",
		ExpiresAt: 1700000000000,
		User:      &models.User{ID: "u1", Email: "grace@example.com"},
	}

	tests := []struct {
		name         string
		authHeader   string
		service      *fakeAuthService
		expectedCode int
	}{
		{
			name:         "missing header",
			service:      &fakeAuthService{},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "not a bearer header",
			authHeader:   "Basic abc",
			service:      &fakeAuthService{},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "expired token",
			authHeader:   "Bearer stale",
			service:      &fakeAuthService{verifyErr: auth.ErrInvalidToken},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "valid token",
			authHeader:   "Bearer jwt-abc",
			service:      &fakeAuthService{grant: okGrant},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/auth/verify", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			h := &AuthHandler{AuthService: tt.service}
			h.Verify(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, res.StatusCode)
			}
			if tt.expectedCode == http.StatusOK {
				var payload map[string]any
				if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
					t.Fatalf("failed to decode JSON: %v", err)
				}
				if payload["valid"] != true {
					t.Errorf("expected valid=true, got %v", payload["valid"])
				}
			}
		})
	}
}

func TestAuthHandler_LinkAccount(t *testing.T) {
	tests := []struct {
		name         string
		userID       string
		body         string
		service      *fakeAuthService
		expectedCode int
	}{
		{
			name:         "no authenticated user",
			body:         `{"websiteEmail":"w@example.com","websitePassword":"pw"}`,
			service:      &fakeAuthService{},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "missing website password",
			userID:       "u1",
			body:         `{"websiteEmail":"w@example.com"}`,
			service:      &fakeAuthService{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "wrong website credentials",
			userID:       "u1",
			body:         `{"websiteEmail":"w@example.com","websitePassword":"nope"}`,
			service:      &fakeAuthService{linkErr: service.ErrInvalidCredentials},
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "linked",
			userID:       "u1",
			body:         `{"websiteEmail":"w@example.com","websitePassword":"pw"}`,
			service:      &fakeAuthService{linkedEmail: "w@example.com"},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/auth/link-account", bytes.NewBufferString(tt.body))
			if tt.userID != "" {
				req = req.WithContext(middleware.WithUserID(req.Context(), tt.userID))
			}
			h := &AuthHandler{AuthService: tt.service}
			h.LinkAccount(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, res.StatusCode)
			}
			if tt.expectedCode == http.StatusOK {
				var payload map[string]any
				if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
					t.Fatalf("failed to decode JSON: %v", err)
				}
				if payload["linked"] != true {
					t.Errorf("expected linked=true, got %v", payload["linked"])
				}
				if payload["websiteEmail"] != "w@example.com" {
					t.Errorf("expected websiteEmail echoed, got %v", payload["websiteEmail"])
				}
			}
		})
	}
}
