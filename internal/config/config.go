package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"blinq/internal/services/docstore"
)

// Config holds application configuration
type Config struct {
	// Server settings
	ListenAddr  string   `json:"listen_addr"`
	Debug       bool     `json:"debug"`
	CORSOrigins []string `json:"cors_origins"`

	// Storage
	DataDirectory string `json:"data_directory"`
	Store         string `json:"store"`
	SQLitePath    string `json:"sqlite_path"`
	Password      string `json:"-"`

	// Sessions
	SessionTTL time.Duration `json:"session_ttl"`
	BcryptCost int           `json:"bcrypt_cost"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	dataDir := filepath.Join(wd, "data")
	return &Config{
		ListenAddr:    ":8080",
		Debug:         false,
		CORSOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		DataDirectory: dataDir,
		Store:         docstore.BackendFile,
		SQLitePath:    filepath.Join(dataDir, "blinq.db"),
		SessionTTL:    7 * 24 * time.Hour,
		BcryptCost:    bcrypt.DefaultCost,
	}
}

// Load reads an optional .env file and then BLINQ_* environment variables
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not read .env: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a configuration from defaults overridden by getenv
func FromEnv(getenv func(string) string) *Config {
	cfg := DefaultConfig()

	if addr := getenv("BLINQ_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if debug := getenv("BLINQ_DEBUG"); debug == "true" || debug == "1" {
		cfg.Debug = true
	}
	if dataDir := getenv("BLINQ_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
		cfg.SQLitePath = filepath.Join(dataDir, "blinq.db")
	}
	if store := getenv("BLINQ_STORE"); store != "" {
		cfg.Store = strings.ToLower(store)
	}
	if dbPath := getenv("BLINQ_SQLITE_PATH"); dbPath != "" {
		cfg.SQLitePath = dbPath
	}
	if origins := getenv("BLINQ_CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	if ttl := getenv("BLINQ_SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.SessionTTL = d
		} else {
			log.Printf("Warning: invalid BLINQ_SESSION_TTL %q: %v", ttl, err)
		}
	}
	if cost := getenv("BLINQ_BCRYPT_COST"); cost != "" {
		if n, err := strconv.Atoi(cost); err == nil {
			cfg.BcryptCost = n
		} else {
			log.Printf("Warning: invalid BLINQ_BCRYPT_COST %q: %v", cost, err)
		}
	}
	cfg.Password = getenv("BLINQ_ENCRYPTION_PASSWORD")

	return cfg
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch c.Store {
	case docstore.BackendFile, docstore.BackendSQLite, docstore.BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q (want file, sqlite or memory)", c.Store)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DataDirectory == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Store == docstore.BackendSQLite && c.SQLitePath == "" {
		return fmt.Errorf("sqlite path is required for the sqlite store")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
