// Package config provides configuration management for the URBFISC application.
//
// This package handles loading configuration from environment variables,
// validating required settings, and providing sensible defaults for optional
// parameters. Configuration is loaded once at startup and remains immutable
// during runtime for thread-safety.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (highest priority)
//  2. External .env file in the working directory
//  3. Embedded .env file (fallback, included in binary)
//  4. Hard-coded defaults (lowest priority)
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo

	"github.com/joho/godotenv"
)

// embeddedEnv contains the .env file embedded at build time.
//
// The embedded file only carries template values. Secrets such as
// DATABASE_URL and the Telegram token must come from the environment.
//
//go:embed .env
var embeddedEnv string

// Config holds all application configuration.
type Config struct {
	// Record store
	DatabaseURL      string        // Postgres URL; empty selects the in-memory store
	DBMaxConns       int           // Maximum pooled connections
	DBConnectTimeout time.Duration // Timeout for the initial connect + migration

	// HTTP presentation layer
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration

	// Service order report
	LogoPath       string // Local logo image; missing file shrinks the header
	ReportTitle    string // First header line
	ReportSubtitle string // Second header line
	ReportCompress bool   // Deflate PDF content streams

	// Timezone used to print dates on reports and exports (IANA name)
	Timezone string

	// Telegram configuration (optional)
	TelegramBotToken string
	TelegramChatID   string

	// Debug mode - verbose logging
	DebugMode bool
}

// LoadConfig loads configuration from environment variables with defaults.
//
// Loading process:
//  1. Parse embedded .env file and set as fallback environment variables
//  2. Try to load external .env file (does not override the environment)
//  3. Read environment variables
//  4. Apply hard-coded defaults for any missing optional values
//  5. Validate values
func LoadConfig() (*Config, error) {
	// Step 1: embedded .env as fallback
	envMap, err := godotenv.Unmarshal(embeddedEnv)
	if err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	// Step 2: external .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBMaxConns:       getEnvInt("DB_MAX_CONNS", 10),
		DBConnectTimeout: getEnvDuration("DB_CONNECT_TIMEOUT", 15*time.Second),

		HTTPPort:         getEnvOrDefault("HTTP_PORT", "8080"),
		HTTPReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		HTTPWriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogoPath:       getEnvOrDefault("LOGO_PATH", "logo.png"),
		ReportTitle:    getEnvOrDefault("REPORT_TITLE", "Autarquia de Urbanização e Meio Ambiente de Caruaru"),
		ReportSubtitle: getEnvOrDefault("REPORT_SUBTITLE", "Central de Atendimento"),
		ReportCompress: getEnvBool("REPORT_COMPRESS", false),

		Timezone: getEnvOrDefault("TIMEZONE", "America/Recife"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		DebugMode: getEnvBool("DEBUG_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that values are sensible.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}
	if _, err := strconv.Atoi(c.HTTPPort); err != nil {
		return fmt.Errorf("HTTP_PORT must be numeric, got %q", c.HTTPPort)
	}
	if c.DatabaseURL != "" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must be a postgres:// URL")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.DBMaxConns)
	}
	if c.ReportTitle == "" {
		return fmt.Errorf("REPORT_TITLE cannot be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	// Telegram needs both or neither
	if (c.TelegramBotToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

// UsesDatabase reports whether a Postgres store is configured.
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// Location returns the configured zone, or UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions for environment variable parsing

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an integer or a default if not set/invalid
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool accepts anything strconv.ParseBool does ("true", "1", "FALSE", ...).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default if not set/invalid.
//
// Accepts standard Go duration strings like "5s", "10m", "1h30m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
