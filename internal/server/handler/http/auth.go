// Package http provides the backend's HTTP handlers for authentication,
// account linking, and saved jobs.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jobtrail/extension-host/internal/auth"
	"github.com/jobtrail/extension-host/internal/middleware"
	"github.com/jobtrail/extension-host/internal/models"
	"github.com/jobtrail/extension-host/internal/repository"
	"github.com/jobtrail/extension-host/internal/service"
)

// sessionCookie is the cookie name the cookie-login flow sets and the
// session check reads.
const sessionCookie = "jobtrail_session"

// AuthService defines the interface for authentication operations required
// by the HTTP handlers.
type AuthService interface {
	// Register creates a new user account.
	Register(ctx context.Context, email, password string) (*models.User, error)
	// Login checks credentials and issues a bearer token.
	Login(ctx context.Context, email, password string) (*service.TokenGrant, error)
	// CookieLogin checks credentials and creates a cookie session.
	CookieLogin(ctx context.Context, email, password string) (*repository.Session, error)
	// SessionToBearer exchanges a session cookie for a bearer token.
	SessionToBearer(ctx context.Context, sessionToken string) (*service.TokenGrant, error)
	// VerifyToken validates a bearer token and returns its owner.
	VerifyToken(ctx context.Context, token string) (*service.TokenGrant, error)
	// LinkAccount ties the user's account to a website account.
	LinkAccount(ctx context.Context, userID, websiteEmail, websitePassword string) (string, error)
}

// AuthHandler handles HTTP requests for login, session, and linking.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// credentialsRequest is the JSON payload for registration and both login
// endpoints.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// Login handles POST /auth/login, the direct token-issuing endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	grant, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":     grant.Token,
		"expiresAt": grant.ExpiresAt,
		"user":      grant.User,
	})
}

// SessionLogin handles POST /auth/session/login, the cookie-setting login
// endpoint.
func (h *AuthHandler) SessionLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	sess, err := h.AuthService.CookieLogin(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Session handles GET /auth/session. It reports whether the presented
// session cookie is live and, if so, mints a bearer token for the caller.
// An absent or dead session is a 200 with hasSession false, not an error.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ck, err := r.Cookie(sessionCookie)
	if err != nil || ck.Value == "" {
		writeJSON(w, http.StatusOK, map[string]any{"hasSession": false})
		return
	}

	grant, err := h.AuthService.SessionToBearer(r.Context(), ck.Value)
	if errors.Is(err, service.ErrNoSession) {
		writeJSON(w, http.StatusOK, map[string]any{"hasSession": false})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session check failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hasSession": true,
		"token":      grant.Token,
		"expiresAt":  grant.ExpiresAt,
		"user":       grant.User,
	})
}

// Verify handles GET /auth/verify. The handler reads the bearer itself so
// it can answer 401 with a precise message.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	grant, err := h.AuthService.VerifyToken(r.Context(), token)
	if errors.Is(err, auth.ErrInvalidToken) {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":     true,
		"user":      grant.User,
		"expiresAt": grant.ExpiresAt,
	})
}

// linkRequest is the JSON payload for account linking.
type linkRequest struct {
	WebsiteEmail    string `json:"websiteEmail"`
	WebsitePassword string `json:"websitePassword"`
}

// LinkAccount handles POST /auth/link-account. Wrong website credentials
// are a 403, not a 401: the caller's own token is still good and must not
// be discarded over a failed link attempt.
func (h *AuthHandler) LinkAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WebsiteEmail == "" || req.WebsitePassword == "" {
		writeError(w, http.StatusBadRequest, "website email and password required")
		return
	}

	email, err := h.AuthService.LinkAccount(r.Context(), userID, req.WebsiteEmail, req.WebsitePassword)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusForbidden, "invalid website credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "link failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"linked":       true,
		"websiteEmail": email,
	})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body, the shape clients parse for
// failure messages.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
