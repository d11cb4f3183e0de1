// Package relay is the background host's message core: a closed set of
// actions, a router dispatching each message to exactly one handler, and
// the handlers coordinating the credential store, cookie reader, and
// remote auth client.
package relay

import "github.com/jobtrail/extension-host/internal/models"

// Action tags a message with the operation it requests. The set is closed;
// the router matches exhaustively and anything else is rejected.
type Action string

// Internal actions, sent by the popup and content scripts.
const (
	ActionSaveJob             Action = "saveJob"
	ActionGetStatus           Action = "getStatus"
	ActionOpenOptions         Action = "openOptions"
	ActionLinkAccount         Action = "linkAccount"
	ActionCheckWebsiteSession Action = "checkWebsiteSession"
	ActionDirectLogin         Action = "directLogin"
	ActionOpenLoginPage       Action = "openLoginPage"
	ActionGetAuthCookies      Action = "getAuthCookies"
	ActionSignOut             Action = "signOut"
)

// External actions, sent by the product website through the origin-gated
// listener.
const (
	ActionSyncAuthState      Action = "syncAuthState"
	ActionCheckExtensionAuth Action = "checkExtensionAuth"
)

// Message is the envelope every sender uses: an action tag plus the
// payload fields that action reads. Unused fields stay empty.
type Message struct {
	Action Action `json:"action"`

	// saveJob
	Job *models.JobDraft `json:"jobData,omitempty"`

	// directLogin
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`

	// linkAccount
	WebsiteEmail    string `json:"websiteEmail,omitempty"`
	WebsitePassword string `json:"websitePassword,omitempty"`

	// syncAuthState
	Token     string       `json:"token,omitempty"`
	User      *models.User `json:"user,omitempty"`
	ExpiresAt int64        `json:"expiresAt,omitempty"`
}

// Response is the reply sent back over the message channel. It always
// carries "success"; handlers add action-specific fields. Failures are
// always resolved into a Response, never raised past the router.
type Response map[string]any

// OK builds a success response with the given extra fields.
func OK(fields map[string]any) Response {
	r := Response{"success": true}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

// Fail builds a failure response with a human-readable message.
func Fail(msg string) Response {
	return Response{"success": false, "error": msg}
}

// FailAuth builds the failure response for absent or rejected
// authentication; requiresAuth lets callers branch without parsing the
// error string.
func FailAuth(msg string) Response {
	return Response{"success": false, "error": msg, "requiresAuth": true}
}
