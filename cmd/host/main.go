// Package main starts the JobTrail extension background host: a local
// daemon that routes extension messages, keeps the cached credential, and
// talks to the backend API.
package main

import (
	"cmp"
	"fmt"
	"net/url"

	nethttp "net/http"

	"github.com/jobtrail/extension-host/internal/config"
	"github.com/jobtrail/extension-host/internal/host/authapi"
	"github.com/jobtrail/extension-host/internal/host/browser"
	"github.com/jobtrail/extension-host/internal/host/cookies"
	"github.com/jobtrail/extension-host/internal/host/credstore"
	"github.com/jobtrail/extension-host/internal/host/httpapi"
	"github.com/jobtrail/extension-host/internal/host/relay"
	"github.com/jobtrail/extension-host/internal/logger"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Credential store backing all auth state.
	store := credstore.NewFileStore(options.CredentialFile)

	// Cookie reader over the browser profile's cookie database.
	domain := productDomain(options.ProductOrigins)
	reader, err := cookies.Open(options.CookieDBPath, domain)
	if err != nil {
		zapLogger.Fatal("cannot open cookie database", zap.Error(err))
	}

	// Backend API client, optionally trusting an extra CA.
	hc, err := authapi.NewHTTPClient(options.CACert)
	if err != nil {
		zapLogger.Fatal("cannot build backend HTTP client", zap.Error(err))
	}
	api := authapi.New(options.BackendURL, hc)

	origin := firstOrigin(options.ProductOrigins)
	handlers := &relay.Handlers{
		Version:    cmp.Or(version, "dev"),
		LoginURL:   origin + "/login",
		OptionsURL: origin + "/settings/extension",

		Store:    store,
		Cookies:  reader,
		API:      api,
		Browser:  &browser.Opener{Log: zapLogger},
		Notifier: &browser.LogNotifier{Log: zapLogger},
		Log:      zapLogger,
	}

	// Build the message router and its HTTP surface.
	router := relay.NewRouter(handlers, options.ProductOrigins, zapLogger)
	handler := httpapi.NewRouter(&httpapi.MessageHandler{Router: router}, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: handler,
	}

	zapLogger.Info("starting extension host", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start extension host", zap.Error(err))
	}
}

// firstOrigin picks the primary product origin for page URLs.
func firstOrigin(origins []string) string {
	if len(origins) == 0 {
		return "https://jobtrail.io"
	}
	return origins[0]
}

// productDomain derives the cookie host from the primary product origin.
func productDomain(origins []string) string {
	u, err := url.Parse(firstOrigin(origins))
	if err != nil || u.Hostname() == "" {
		return "jobtrail.io"
	}
	return u.Hostname()
}
