// Package http provides HTTP routing and middleware configuration
// for the JobTrail backend service.
package http

import (
	"net/http"

	"github.com/jobtrail/extension-host/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the JobTrail API. It applies JSON content-type enforcement,
// request logging, and bearer-token authentication, and mounts
// the auth and job endpoints.
//
// Parameters:
//
//	authHandler  - handler for registration, login, and session endpoints
//	jobsHandler  - handler for saved-job endpoints
//	jwtSecret    - secret used to validate bearer tokens
//	logger       - structured logger for request logging middleware
//
// Routes:
//
//	POST /auth/register       → authHandler.Register
//	POST /auth/login          → authHandler.Login
//	POST /auth/session/login  → authHandler.SessionLogin
//	GET  /auth/session        → authHandler.Session
//	GET  /auth/verify         → authHandler.Verify
//	POST /auth/link-account   → authHandler.LinkAccount (bearer protected)
//	POST /jobs                → jobsHandler.Create      (bearer protected)
//	GET  /jobs                → jobsHandler.List        (bearer protected)
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON requests
//  2. WithRequestLogging(logger)           — logs incoming requests
//  3. BearerAuth(jwtSecret)                — enforces token auth on protected routes
func NewRouter(
	authHandler *AuthHandler,
	jobsHandler *JobsHandler,
	jwtSecret []byte,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	// Enforce bearer-token authentication on everything outside the
	// open auth endpoints
	r.Use(middleware.BearerAuth(jwtSecret))

	r.Route("/auth", func(r chi.Router) {
		// Public endpoints
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/session/login", authHandler.SessionLogin)
		r.Get("/session", authHandler.Session)
		r.Get("/verify", authHandler.Verify)

		// Protected: requires a valid bearer token
		r.Post("/link-account", authHandler.LinkAccount)
	})

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", jobsHandler.Create)
		r.Get("/", jobsHandler.List)
	})

	return r
}
