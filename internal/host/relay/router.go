package relay

import (
	"context"
	"net/url"

	"go.uber.org/zap"
)

// Router is the single entry point for all extension messages. Internal
// messages go through Dispatch; messages from the website go through
// DispatchExternal, which gates on the sender's origin first.
type Router struct {
	handlers       *Handlers
	allowedOrigins map[string]bool
	log            *zap.Logger
}

// NewRouter builds a Router over the given handlers. allowedOrigins lists
// the product origins ("https://app.jobtrail.io") accepted on the external
// surface.
func NewRouter(h *Handlers, allowedOrigins []string, log *zap.Logger) *Router {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Router{handlers: h, allowedOrigins: allowed, log: log}
}

// Dispatch routes an internal message to its handler and returns the reply.
// Unknown actions yield {success:false, error:"Unknown action"} with no
// side effects; Dispatch never returns a Go error across the message
// boundary.
func (r *Router) Dispatch(ctx context.Context, msg Message) Response {
	r.log.Debug("message received", zap.String("action", string(msg.Action)))

	switch msg.Action {
	case ActionSaveJob:
		return r.handlers.SaveJob(ctx, msg.Job)
	case ActionGetStatus:
		return r.handlers.GetStatus()
	case ActionOpenOptions:
		return r.handlers.OpenOptions()
	case ActionLinkAccount:
		return r.handlers.LinkAccount(ctx, msg.WebsiteEmail, msg.WebsitePassword)
	case ActionCheckWebsiteSession:
		return r.handlers.CheckWebsiteSession(ctx)
	case ActionDirectLogin:
		return r.handlers.DirectLogin(ctx, msg.Email, msg.Password)
	case ActionOpenLoginPage:
		return r.handlers.OpenLoginPage()
	case ActionGetAuthCookies:
		return r.handlers.GetAuthCookies(ctx)
	case ActionSignOut:
		return r.handlers.SignOut(ctx)
	default:
		r.log.Warn("unknown action", zap.String("action", string(msg.Action)))
		return Fail("Unknown action")
	}
}

// DispatchExternal routes a message from the website. The sender's URL must
// belong to a configured product origin; everything else is rejected before
// any handler runs.
func (r *Router) DispatchExternal(ctx context.Context, senderURL string, msg Message) Response {
	if !r.originAllowed(senderURL) {
		r.log.Warn("external message rejected", zap.String("sender", senderURL))
		return Fail("Invalid origin")
	}

	switch msg.Action {
	case ActionSyncAuthState:
		return r.handlers.SyncAuthState(ctx, msg.Token, msg.User, msg.ExpiresAt)
	case ActionCheckExtensionAuth:
		return r.handlers.CheckExtensionAuth()
	default:
		return Fail("Unknown action")
	}
}

// originAllowed reports whether the sender URL's scheme://host is one of
// the configured product origins. This is string matching on the reported
// origin, not a cryptographic check.
func (r *Router) originAllowed(senderURL string) bool {
	if senderURL == "" {
		return false
	}
	u, err := url.Parse(senderURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	return r.allowedOrigins[u.Scheme+"://"+u.Host]
}
