package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := FromEnv(env(nil))
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Store != "file" {
		t.Errorf("Store = %q, want file", cfg.Store)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %s, want 168h", cfg.SessionTTL)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg := FromEnv(env(map[string]string{
		"BLINQ_LISTEN_ADDR":         ":9090",
		"BLINQ_DEBUG":               "1",
		"BLINQ_DATA_DIR":            "/tmp/blinq",
		"BLINQ_STORE":               "SQLite",
		"BLINQ_CORS_ORIGINS":        "https://a.example, https://b.example,",
		"BLINQ_SESSION_TTL":         "2h",
		"BLINQ_BCRYPT_COST":         "4",
		"BLINQ_ENCRYPTION_PASSWORD": "hunter22",
	}))

	if cfg.ListenAddr != ":9090" || !cfg.Debug {
		t.Errorf("server settings not applied: %+v", cfg)
	}
	if cfg.Store != "sqlite" {
		t.Errorf("Store = %q, want sqlite", cfg.Store)
	}
	if cfg.SQLitePath != filepath.Join("/tmp/blinq", "blinq.db") {
		t.Errorf("SQLitePath = %q, should follow the data directory", cfg.SQLitePath)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.SessionTTL != 2*time.Hour || cfg.BcryptCost != 4 {
		t.Errorf("session settings not applied: ttl=%s cost=%d", cfg.SessionTTL, cfg.BcryptCost)
	}
	if cfg.Password != "hunter22" {
		t.Error("encryption password not read")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestInvalidNumbersKeepDefaults(t *testing.T) {
	cfg := FromEnv(env(map[string]string{
		"BLINQ_SESSION_TTL": "a week",
		"BLINQ_BCRYPT_COST": "high",
	}))
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %s, want default", cfg.SessionTTL)
	}
	if cfg.BcryptCost != bcrypt.DefaultCost {
		t.Errorf("BcryptCost = %d, want default", cfg.BcryptCost)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown store", func(c *Config) { c.Store = "postgres" }, "unknown store"},
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }, "listen address"},
		{"empty data dir", func(c *Config) { c.DataDirectory = "" }, "data directory"},
		{"sqlite without path", func(c *Config) { c.Store = "sqlite"; c.SQLitePath = "" }, "sqlite path"},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, "session TTL"},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 1 }, "bcrypt cost"},
		{"memory store", func(c *Config) { c.Store = "memory" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
