// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Database backends for the catalog.
const (
	DBMemory   = "memory"
	DBSQLite   = "sqlite"
	DBPostgres = "postgres"
)

type Config struct {
	Port          string
	MediaDir      string // MEDIA_DIR, default "./public/videos".
	StagingDir    string // STAGING_DIR; empty stages under MediaDir/.staging.
	PublicDir     string // PUBLIC_DIR; empty disables static file serving.
	MaxUploadSize int64  // MAX_UPLOAD_SIZE in bytes, default 100 MiB.

	DBType     string // DB_TYPE: memory (default), sqlite or postgres.
	DBPath     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	AdminUsername string
	AdminPassword string
	// AdminPasswordGenerated is set when ADMIN_PASSWORD was empty and a random
	// password was made up; the server logs it once at startup.
	AdminPasswordGenerated bool
	JWTSecret              string
	TokenTTL               time.Duration

	LogLevel  string // LOG_LEVEL, zerolog level name.
	LogFormat string // LOG_FORMAT: console (default) or json.
}

// Load builds a Config from getenv, usually os.Getenv, and validates it.
func Load(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:          env("PORT", "3000"),
		MediaDir:      env("MEDIA_DIR", "./public/videos"),
		StagingDir:    env("STAGING_DIR", ""),
		PublicDir:     env("PUBLIC_DIR", ""),
		DBType:        strings.ToLower(env("DB_TYPE", DBMemory)),
		DBPath:        env("DB_PATH", "./fairyland.db"),
		DBHost:        env("DB_HOST", "localhost"),
		DBUser:        env("DB_USER", "fairyland"),
		DBPassword:    env("DB_PASSWORD", "fairyland_dev"),
		DBName:        env("DB_NAME", "fairyland"),
		AdminUsername: env("ADMIN_USERNAME", "admin"),
		AdminPassword: env("ADMIN_PASSWORD", ""),
		JWTSecret:     env("JWT_SECRET", ""),
		LogLevel:      strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat:     strings.ToLower(env("LOG_FORMAT", "console")),
	}

	var err error
	if cfg.MaxUploadSize, err = strconv.ParseInt(env("MAX_UPLOAD_SIZE", "104857600"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}
	if cfg.DBPort, err = strconv.Atoi(env("DB_PORT", "5432")); err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	if cfg.TokenTTL, err = time.ParseDuration(env("TOKEN_TTL", "1h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	if cfg.AdminPassword == "" {
		cfg.AdminPassword = uuid.New().String()
		cfg.AdminPasswordGenerated = true
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = uuid.New().String() + uuid.New().String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE must be positive"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.MediaDir == "" {
		errs = append(errs, errors.New("MEDIA_DIR must not be empty"))
	}
	switch c.DBType {
	case DBMemory, DBSQLite, DBPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_TYPE %q (use memory, sqlite or postgres)", c.DBType))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported LOG_FORMAT %q (use console or json)", c.LogFormat))
	}
	if c.DBPort <= 0 || c.DBPort > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT %d out of range", c.DBPort))
	}

	return errors.Join(errs...)
}
