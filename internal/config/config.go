// Package config provides functionality for managing configuration options
// for the extension host and the backend server using command-line flags,
// environment variables, and an optional JSON file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
)

// Options holds the configuration values for both binaries. Each process
// reads the fields relevant to it.
type Options struct {
	// Addr defines the listening address (ip:port).
	Addr string

	// DatabaseDSN holds the PostgreSQL connection string (server only).
	DatabaseDSN string

	// JWTSecret signs and verifies bearer tokens (server only).
	JWTSecret string

	// BackendURL is the base URL of the backend API (host only).
	BackendURL string

	// ProductOrigins lists the website origins allowed to send external
	// messages, comma-separated (host only).
	ProductOrigins []string

	// CookieDBPath points at the browser profile's cookies.sqlite (host only).
	CookieDBPath string

	// CredentialFile is the path of the persisted credential blob (host only).
	CredentialFile string

	// CACert is an optional PEM file trusted for backend TLS (host only).
	CACert string

	// LogLevel is the zap log level.
	LogLevel string

	// Config is the path to the JSON config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// origins carries the raw comma-separated flag value before splitting.
var origins string

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.JWTSecret, "secret", "", "JWT signing secret")
	flag.StringVar(&options.BackendURL, "backend", "https://api.jobtrail.io", "backend base URL")
	flag.StringVar(&origins, "origins", "https://jobtrail.io,https://app.jobtrail.io", "allowed website origins, comma-separated")
	flag.StringVar(&options.CookieDBPath, "cookies", "", "path to browser cookies.sqlite")
	flag.StringVar(&options.CredentialFile, "credfile", "auth.json", "path to credential file")
	flag.StringVar(&options.CACert, "ca", "", "path to extra CA cert (PEM)")
	flag.StringVar(&options.LogLevel, "loglevel", "Info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		options.JWTSecret = secret
	}
	if backend := os.Getenv("BACKEND_URL"); backend != "" {
		options.BackendURL = backend
	}
	if o := os.Getenv("PRODUCT_ORIGINS"); o != "" {
		origins = o
	}

	options.ProductOrigins = splitOrigins(origins)

	return options
}

// splitOrigins splits a comma-separated origin list, trimming blanks.
func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
