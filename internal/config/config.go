// Package config loads client configuration from environment variables,
// with .env file support for development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backend selectors for SessionStore.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config carries every setting the client and CLI need.
type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration
	LogLevel    string

	// SessionStore selects the persistence backend: file, sqlite, redis,
	// or memory.
	SessionStore  string
	StatePath     string // file backend
	SQLitePath    string // sqlite backend
	RedisAddr     string // redis backend
	RedisKey      string
	RedisPassword string
}

// Load builds a Config from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeoutSecs, err := intEnv("CLINICORE_HTTP_TIMEOUT", 15)
	if err != nil {
		return nil, err
	}

	stateDir := defaultStateDir()
	cfg := &Config{
		APIBaseURL:    getEnv("CLINICORE_API_URL", "http://localhost:5000/api"),
		HTTPTimeout:   time.Duration(timeoutSecs) * time.Second,
		LogLevel:      getEnv("CLINICORE_LOG_LEVEL", "info"),
		SessionStore:  getEnv("CLINICORE_SESSION_STORE", StoreFile),
		StatePath:     getEnv("CLINICORE_STATE_PATH", filepath.Join(stateDir, "session.json")),
		SQLitePath:    getEnv("CLINICORE_SQLITE_PATH", filepath.Join(stateDir, "session.db")),
		RedisAddr:     getEnv("CLINICORE_REDIS_ADDR", "localhost:6379"),
		RedisKey:      getEnv("CLINICORE_REDIS_KEY", "clinicore:session"),
		RedisPassword: os.Getenv("CLINICORE_REDIS_PASSWORD"),
	}

	switch cfg.SessionStore {
	case StoreFile, StoreSQLite, StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("invalid CLINICORE_SESSION_STORE %q", cfg.SessionStore)
	}
	return cfg, nil
}

// defaultStateDir is ~/.clinicore, falling back to a relative directory
// when the home directory cannot be resolved.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clinicore"
	}
	return filepath.Join(home, ".clinicore")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
