// Package config reads the server configuration from environment variables.
//
// Values may also come from dotenv files in the working directory. Files
// never override a variable that is already set, and earlier files win over
// later ones:
//
//	.env.local   machine-specific secrets, not committed
//	.env         shared defaults
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// MinSecretLength is the shortest JWT_SECRET accepted.
const MinSecretLength = 16

// Config is everything cmd/server needs to start.
type Config struct {
	Port     int
	LogLevel slog.Level

	Backend string
	DBPath  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	JWTSecret    string
	SecureCookie bool
	SeedDemo     bool
}

// Load reads dotenv files (if present) and then the environment.
func Load() (*Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset
// variables. All problems are reported together.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:        8080,
		LogLevel:    slog.LevelInfo,
		Backend:     BackendSQLite,
		DBPath:      "data/linkedin-lite.db",
		RedisAddr:   "localhost:6379",
		RedisPrefix: "linkedinlite:",
		SeedDemo:    true,
	}
	var errs []error

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("PORT: %q is not a valid port", v))
		}
		cfg.Port = port
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %q is not one of debug, info, warn, error", v))
		}
	}

	if v := getenv("STORE_BACKEND"); v != "" {
		cfg.Backend = strings.ToLower(v)
	}
	switch cfg.Backend {
	case BackendSQLite, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: %q is not %s or %s", cfg.Backend, BackendSQLite, BackendRedis))
	}

	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	cfg.RedisPassword = getenv("REDIS_PASSWORD")
	if v := getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			errs = append(errs, fmt.Errorf("REDIS_DB: %q is not a database number", v))
		}
		cfg.RedisDB = db
	}
	if v := getenv("REDIS_PREFIX"); v != "" {
		cfg.RedisPrefix = v
	}

	cfg.JWTSecret = getenv("JWT_SECRET")
	if len(cfg.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET: must be at least %d characters", MinSecretLength))
	}

	if v := getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("COOKIE_SECURE: %q is not a boolean", v))
		}
		cfg.SecureCookie = secure
	}

	if v := getenv("SEED_DEMO"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SEED_DEMO: %q is not a boolean", v))
		}
		cfg.SeedDemo = seed
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
