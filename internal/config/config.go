// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the service configuration.
type Config struct {
	Addr         string
	DatabaseURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	SuccessURL   string
	TokenSecret  string
	SyncInterval time.Duration
}

// Load reads configuration from a .env file (if present) and the
// environment. Required values missing from both produce an error.
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:         getenv("ADDR", "127.0.0.1:4000"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("REDIRECT_URI"),
		SuccessURL:   getenv("SUCCESS_URL", "https://blackboxrecordclub.com/successful-connection"),
		TokenSecret:  os.Getenv("WEB_TOKEN_SECRET"),
		SyncInterval: 24 * time.Hour,
	}

	if interval := os.Getenv("SYNC_INTERVAL"); interval != "" {
		parsed, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("parsing SYNC_INTERVAL: %w", err)
		}
		cfg.SyncInterval = parsed
	}

	for name, value := range map[string]string{
		"DATABASE_URL":          cfg.DatabaseURL,
		"SPOTIFY_CLIENT_ID":     cfg.ClientID,
		"SPOTIFY_CLIENT_SECRET": cfg.ClientSecret,
		"REDIRECT_URI":          cfg.RedirectURL,
		"WEB_TOKEN_SECRET":      cfg.TokenSecret,
	} {
		if value == "" {
			return nil, fmt.Errorf("missing required environment variable %s", name)
		}
	}

	return cfg, nil
}

func getenv(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
