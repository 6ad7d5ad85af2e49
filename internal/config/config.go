// Package config loads application configuration from environment
// variables.  A .env file in the working directory is read first when
// present; variables already set in the environment win.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the core runtime configuration.  Each field corresponds to an
// environment variable.  Database fields may be empty, in which case the
// server runs from the built-in venue and in-memory stores.
type Config struct {
	Env       string // APP_ENV: dev, test, prod
	Port      string // APP_PORT
	DBUser    string // DB_USER
	DBPass    string // DB_PASS (optional)
	DBHost    string // DB_HOST; empty disables MySQL
	DBPort    string // DB_PORT
	DBName    string // DB_NAME
	JWTSecret string // JWT_SECRET, shared with the token issuer
	VenueDir  string // VENUE_DIR: directory of <id>.json venues used without a database
	Currency  string // DISPLAY_CURRENCY, ISO 4217
	Locale    string // DISPLAY_LOCALE, BCP 47
}

// Load reads the .env file, if any, and returns the core configuration.
// JWT_SECRET is required; a missing value stops the program.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: reading .env: %v", err)
	}
	return Config{
		Env:       envStr("APP_ENV", "dev"),
		Port:      envStr("APP_PORT", "8080"),
		DBUser:    os.Getenv("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    os.Getenv("DB_HOST"),
		DBPort:    envStr("DB_PORT", "3306"),
		DBName:    os.Getenv("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),
		VenueDir:  os.Getenv("VENUE_DIR"),
		Currency:  envStr("DISPLAY_CURRENCY", "GBP"),
		Locale:    envStr("DISPLAY_LOCALE", "en-GB"),
	}
}

// DatabaseEnabled reports whether MySQL settings were provided.
func (c Config) DatabaseEnabled() bool {
	return c.DBHost != "" && c.DBName != ""
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envInt64(k string, d int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
