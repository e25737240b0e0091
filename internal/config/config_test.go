package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/artist_sync_test")
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "client-secret")
	t.Setenv("REDIRECT_URI", "http://127.0.0.1:4000/auth")
	t.Setenv("WEB_TOKEN_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ADDR", "")
	t.Setenv("SUCCESS_URL", "")
	t.Setenv("SYNC_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:4000" {
		t.Errorf("Addr = %q, want default", cfg.Addr)
	}
	if cfg.SuccessURL != "https://blackboxrecordclub.com/successful-connection" {
		t.Errorf("SuccessURL = %q, want default", cfg.SuccessURL)
	}
	if cfg.SyncInterval != 24*time.Hour {
		t.Errorf("SyncInterval = %s, want 24h", cfg.SyncInterval)
	}
}

func TestLoadSyncInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("SYNC_INTERVAL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncInterval != 30*time.Minute {
		t.Errorf("SyncInterval = %s, want 30m", cfg.SyncInterval)
	}
}

func TestLoadBadSyncInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("SYNC_INTERVAL", "daily")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded with an unparseable SYNC_INTERVAL")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("WEB_TOKEN_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load succeeded without WEB_TOKEN_SECRET")
	}
	if !strings.Contains(err.Error(), "WEB_TOKEN_SECRET") {
		t.Errorf("err = %v, want the missing variable named", err)
	}
}
