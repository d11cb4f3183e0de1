// Package httpapi exposes the message router over HTTP: one endpoint for
// the extension's own surfaces (popup, content scripts) and one
// origin-gated endpoint for the product website.
package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jobtrail/extension-host/internal/host/relay"
	"github.com/jobtrail/extension-host/internal/middleware"
)

// MessageHandler decodes message envelopes and writes router replies.
type MessageHandler struct {
	Router *relay.Router
}

// NewRouter constructs the host's HTTP handler.
//
// Routes:
//
//	POST /messages           → internal messages from popup/content scripts
//	POST /external/messages  → website messages, Origin-gated
//
// Middleware chain:
//  1. AllowContentType("application/json") — rejects non-JSON requests
//  2. WithRequestLogging(logger)           — logs incoming requests
func NewRouter(h *MessageHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Post("/messages", h.Internal)
	r.Post("/external/messages", h.External)

	return r
}

// Internal handles messages from the popup and content scripts.
func (h *MessageHandler) Internal(w http.ResponseWriter, r *http.Request) {
	var msg relay.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeReply(w, relay.Fail("Invalid message"))
		return
	}
	writeReply(w, h.Router.Dispatch(r.Context(), msg))
}

// External handles messages from the product website. The sender origin is
// taken from the Origin header; the router enforces the gate.
func (h *MessageHandler) External(w http.ResponseWriter, r *http.Request) {
	var msg relay.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeReply(w, relay.Fail("Invalid message"))
		return
	}
	writeReply(w, h.Router.DispatchExternal(r.Context(), r.Header.Get("Origin"), msg))
}

// writeReply resolves every outcome as a 200 with a success flag in the
// body, mirroring the extension messaging channel: failures are replies,
// not transport errors.
func writeReply(w http.ResponseWriter, res relay.Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}
