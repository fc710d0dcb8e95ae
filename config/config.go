// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables win over it. Command-line flags in cmd/server
// override both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DBPath          string
	LogLevel        string
	Env             string // dev|prod
	SentryDSN       string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	port, err := strconv.Atoi(getenv("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("PORT: invalid port %q", os.Getenv("PORT"))
	}

	shutdown, err := time.ParseDuration(getenv("SHUTDOWN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		DBPath:          getenv("DB_PATH", "deposits.db"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		Env:             getenv("ENV", "dev"),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		CORSOrigins:     splitList(getenv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		ShutdownTimeout: shutdown,
	}, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
