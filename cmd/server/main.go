// Package main initializes and starts the JobTrail backend server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and routing.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/jobtrail/extension-host/internal/config"
	"github.com/jobtrail/extension-host/internal/db"
	"github.com/jobtrail/extension-host/internal/logger"
	"github.com/jobtrail/extension-host/internal/repository"
	"github.com/jobtrail/extension-host/internal/server/handler/http"
	"github.com/jobtrail/extension-host/internal/service"
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

	if options.JWTSecret == "" {
		zapLogger.Fatal("JWT secret is required")
	}

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Sweep dead cookie sessions in the background.
	db.StartSessionCleaner(context.Background(), postgresDB,
		time.Hour, // interval
		zapLogger,
	)

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	sessionRepo := repository.NewPostgresSessionRepository(postgresDB)
	jobRepo := repository.NewPostgresJobRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(
		userRepo, sessionRepo,
		[]byte(options.JWTSecret),
		24*time.Hour,    // bearer token TTL
		30*24*time.Hour, // cookie session TTL
	)
	jobService := service.NewJobService(jobRepo)

	// Create HTTP handlers for auth and job endpoints.
	authHandler := &http.AuthHandler{AuthService: authService}
	jobsHandler := &http.JobsHandler{JobService: jobService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, jobsHandler, []byte(options.JWTSecret), zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
