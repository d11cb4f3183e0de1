package relay

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jobtrail/extension-host/internal/host/authapi"
	"github.com/jobtrail/extension-host/internal/host/cookies"
	"github.com/jobtrail/extension-host/internal/host/credstore"
	"github.com/jobtrail/extension-host/internal/models"
)

// AuthAPI is the slice of the backend client the handlers use.
type AuthAPI interface {
	Verify(ctx context.Context, token string) (*authapi.VerifyResult, error)
	Login(ctx context.Context, email, password string) (*authapi.LoginResult, error)
	SessionCheck(ctx context.Context, cs []cookies.Cookie) (*authapi.SessionResult, error)
	LinkAccount(ctx context.Context, token, websiteEmail, websitePassword string) (*authapi.LinkResult, error)
	SaveJob(ctx context.Context, token string, draft *models.JobDraft, syncToWebsite bool) (*authapi.SaveJobResult, error)
}

// Browser opens product pages in the user's browser.
type Browser interface {
	OpenTab(url string) error
}

// Notifier shows user-visible notifications.
type Notifier interface {
	Notify(title, message string)
}

// defaultTokenTTL applies when a pushed auth state carries no expiry.
const defaultTokenTTL = 7 * 24 * time.Hour

// Handlers implements one method per message action. All credential access
// goes through the injected Store; handlers never touch storage any other
// way.
type Handlers struct {
	Version    string
	LoginURL   string
	OptionsURL string

	Store    credstore.Store
	Cookies  cookies.Reader
	API      AuthAPI
	Browser  Browser
	Notifier Notifier
	Log      *zap.Logger

	now func() time.Time
}

// clock returns the handler time source, defaulting to time.Now.
func (h *Handlers) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// SaveJob forwards a scraped job draft to the backend. Auth comes from the
// store, falling back to cookie-derived session discovery; with no auth at
// all the reply requires login and the login page is opened as a side
// effect. The draft is not retained by the host.
func (h *Handlers) SaveJob(ctx context.Context, draft *models.JobDraft) Response {
	if draft == nil || draft.Title == "" {
		return Fail("Missing job data")
	}

	cred := h.credential(ctx)
	if cred == nil {
		if err := h.Browser.OpenTab(h.LoginURL); err != nil {
			h.Log.Warn("failed to open login page", zap.Error(err))
		}
		return FailAuth("Not logged in")
	}

	draft.Normalize(h.clock())

	res, err := h.API.SaveJob(ctx, cred.Token, draft, cred.WebsiteLinked)
	if err != nil {
		if errors.Is(err, authapi.ErrUnauthorized) {
			// The cached token is actively wrong, not just missing.
			if cerr := h.Store.Clear(); cerr != nil {
				h.Log.Error("failed to clear credential", zap.Error(cerr))
			}
			if oerr := h.Browser.OpenTab(h.LoginURL); oerr != nil {
				h.Log.Warn("failed to open login page", zap.Error(oerr))
			}
			return FailAuth(err.Error())
		}
		h.Log.Error("save job failed", zap.Error(err))
		return Fail(err.Error())
	}

	return OK(map[string]any{
		"jobId":           res.ID,
		"syncedToWebsite": res.SyncedToWebsite,
	})
}

// GetStatus reports the host version and current auth/link state. It only
// reads the store and never errors.
func (h *Handlers) GetStatus() Response {
	cred := h.Store.Get()
	fields := map[string]any{
		"version":       h.Version,
		"isLoggedIn":    cred != nil,
		"websiteLinked": false,
	}
	if cred != nil {
		fields["userId"] = cred.UserID
		fields["websiteLinked"] = cred.WebsiteLinked
		fields["websiteEmail"] = cred.WebsiteEmail
	}
	return OK(fields)
}

// OpenOptions opens the extension options page.
func (h *Handlers) OpenOptions() Response {
	if err := h.Browser.OpenTab(h.OptionsURL); err != nil {
		return Fail(err.Error())
	}
	return OK(nil)
}

// OpenLoginPage opens the product login page.
func (h *Handlers) OpenLoginPage() Response {
	if err := h.Browser.OpenTab(h.LoginURL); err != nil {
		return Fail(err.Error())
	}
	return OK(nil)
}

// LinkAccount ties the current extension token to a website account and
// rewrites the stored record with the link metadata.
func (h *Handlers) LinkAccount(ctx context.Context, websiteEmail, websitePassword string) Response {
	if websiteEmail == "" || websitePassword == "" {
		return Fail("Website email and password required")
	}

	cred := h.Store.Get()
	if cred == nil {
		return FailAuth("Not logged in")
	}

	res, err := h.API.LinkAccount(ctx, cred.Token, websiteEmail, websitePassword)
	if err != nil {
		if errors.Is(err, authapi.ErrUnauthorized) {
			if cerr := h.Store.Clear(); cerr != nil {
				h.Log.Error("failed to clear credential", zap.Error(cerr))
			}
			return FailAuth(err.Error())
		}
		h.Log.Error("link account failed", zap.Error(err))
		return Fail(err.Error())
	}

	cred.WebsiteLinked = true
	cred.WebsiteEmail = res.WebsiteEmail
	if err := h.Store.Set(cred); err != nil {
		return Fail(err.Error())
	}

	return OK(map[string]any{
		"message":      "Account linked",
		"websiteEmail": res.WebsiteEmail,
	})
}

// CheckWebsiteSession looks for an authenticated website session via the
// cookie reader and commits a verified one to the store.
func (h *Handlers) CheckWebsiteSession(ctx context.Context) Response {
	cred := h.discoverSession(ctx)
	if cred == nil {
		return OK(map[string]any{"hasSession": false})
	}

	h.Notifier.Notify("JobTrail", "Connected to JobTrail")
	return OK(map[string]any{
		"hasSession": true,
		"email":      cred.Email,
		"userId":     cred.UserID,
		"token":      cred.Token,
	})
}

// DirectLogin authenticates with email and password through the client's
// strategy list and stores the resulting credential.
func (h *Handlers) DirectLogin(ctx context.Context, email, password string) Response {
	if email == "" || password == "" {
		return Fail("Email and password required")
	}

	res, err := h.API.Login(ctx, email, password)
	if err != nil {
		h.Log.Warn("login failed", zap.String("email", email), zap.Error(err))
		return Fail(err.Error())
	}

	rec := &models.CredentialRecord{
		Token:         res.Token,
		UserID:        res.User.ID,
		Email:         res.User.Email,
		ExpiresAt:     res.ExpiresAt,
		WebsiteLinked: res.ViaCookies || res.User.WebsiteLinked,
		WebsiteEmail:  res.User.WebsiteEmail,
	}
	if rec.ExpiresAt == 0 {
		rec.ExpiresAt = h.clock().Add(defaultTokenTTL).UnixMilli()
	}
	if rec.WebsiteLinked && rec.WebsiteEmail == "" {
		rec.WebsiteEmail = res.User.Email
	}
	if err := h.Store.Set(rec); err != nil {
		return Fail(err.Error())
	}

	message := "Logged in"
	if res.ViaCookies {
		message = "Logged in via web cookies"
	}
	return OK(map[string]any{
		"user":    res.User,
		"message": message,
	})
}

// GetAuthCookies returns the product domain's auth-related cookies.
func (h *Handlers) GetAuthCookies(ctx context.Context) Response {
	cs, err := h.Cookies.AuthCookies(ctx)
	if err != nil {
		h.Log.Error("cookie read failed", zap.Error(err))
		return Fail(err.Error())
	}
	if cs == nil {
		cs = []cookies.Cookie{}
	}
	return OK(map[string]any{"cookies": cs})
}

// SignOut clears the credential and removes the product's auth cookies.
func (h *Handlers) SignOut(ctx context.Context) Response {
	if err := h.Store.Clear(); err != nil {
		return Fail(err.Error())
	}
	if err := h.Cookies.RemoveAuthCookies(ctx); err != nil {
		h.Log.Warn("cookie removal on sign-out failed", zap.Error(err))
	}
	return OK(map[string]any{"message": "Signed out"})
}

// SyncAuthState stores the auth state pushed by the website. The sender
// already passed the origin gate, so the token is committed wholesale.
func (h *Handlers) SyncAuthState(ctx context.Context, token string, user *models.User, expiresAt int64) Response {
	if token == "" || user == nil || user.ID == "" {
		return Fail("Missing token or user")
	}

	if expiresAt == 0 {
		expiresAt = h.clock().Add(defaultTokenTTL).UnixMilli()
	}
	rec := &models.CredentialRecord{
		Token:         token,
		UserID:        user.ID,
		Email:         user.Email,
		ExpiresAt:     expiresAt,
		WebsiteLinked: true,
		WebsiteEmail:  user.Email,
	}
	if err := h.Store.Set(rec); err != nil {
		return Fail(err.Error())
	}
	return OK(map[string]any{"message": "Auth state synced"})
}

// CheckExtensionAuth reports whether the extension currently holds a valid
// credential.
func (h *Handlers) CheckExtensionAuth() Response {
	cred := h.Store.Get()
	if cred == nil {
		return OK(map[string]any{"isAuthenticated": false})
	}
	return OK(map[string]any{
		"isAuthenticated": true,
		"user": models.User{
			ID:            cred.UserID,
			Email:         cred.Email,
			WebsiteLinked: cred.WebsiteLinked,
			WebsiteEmail:  cred.WebsiteEmail,
		},
	})
}

// credential returns a usable credential: the stored one, or a freshly
// discovered website session. Returns nil when neither exists.
func (h *Handlers) credential(ctx context.Context) *models.CredentialRecord {
	if cred := h.Store.Get(); cred != nil {
		return cred
	}
	return h.discoverSession(ctx)
}

// discoverSession runs the read-verify-commit cookie fallback: each
// candidate cookie value is round-tripped through Verify before anything
// is written; candidates failing verification are discarded silently. When
// no cookie verifies as a bearer, the cookie-based session-check endpoint
// gets one last try.
func (h *Handlers) discoverSession(ctx context.Context) *models.CredentialRecord {
	cs, err := h.Cookies.AuthCookies(ctx)
	if err != nil {
		h.Log.Warn("cookie discovery failed", zap.Error(err))
		return nil
	}
	if len(cs) == 0 {
		return nil
	}

	for _, c := range cs {
		vr, err := h.API.Verify(ctx, c.Value)
		if err != nil || !vr.Valid {
			h.Log.Debug("cookie candidate rejected", zap.String("cookie", c.Name))
			continue
		}
		rec := &models.CredentialRecord{
			Token:         c.Value,
			UserID:        vr.User.ID,
			Email:         vr.User.Email,
			ExpiresAt:     vr.ExpiresAt,
			WebsiteLinked: true,
			WebsiteEmail:  vr.User.Email,
		}
		if rec.ExpiresAt == 0 {
			rec.ExpiresAt = h.clock().Add(defaultTokenTTL).UnixMilli()
		}
		if err := h.Store.Set(rec); err != nil {
			h.Log.Error("failed to store discovered session", zap.Error(err))
			return nil
		}
		return rec
	}

	session, err := h.API.SessionCheck(ctx, cs)
	if err != nil || !session.HasSession || session.Token == "" {
		return nil
	}
	rec := &models.CredentialRecord{
		Token:         session.Token,
		UserID:        session.User.ID,
		Email:         session.User.Email,
		ExpiresAt:     session.ExpiresAt,
		WebsiteLinked: true,
		WebsiteEmail:  session.User.Email,
	}
	if rec.ExpiresAt == 0 {
		rec.ExpiresAt = h.clock().Add(defaultTokenTTL).UnixMilli()
	}
	if err := h.Store.Set(rec); err != nil {
		h.Log.Error("failed to store session", zap.Error(err))
		return nil
	}
	return rec
}
