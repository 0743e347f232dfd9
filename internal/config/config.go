// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Identity verification modes.
const (
	IdentityPaseto   = "paseto"
	IdentityUserinfo = "userinfo"
)

const defaultUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Store    StoreConfig
	Identity IdentityConfig
	Payment  PaymentConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// IsProduction reports whether the app runs in production.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 5000)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins (default: *)
}

// StoreConfig holds content store configuration.
type StoreConfig struct {
	Driver string
	// DataPath holds the SQLite database, search index and checkout ledger.
	DataPath      string
	MongoURI      string
	MongoDatabase string
}

// IdentityConfig holds bearer token verification configuration.
type IdentityConfig struct {
	Mode string
	// PublicKeyHex is the identity provider's Ed25519 public key (paseto mode).
	// Empty outside production means a dev key pair is generated under DataPath.
	PublicKeyHex string
	Issuer       string
	Audience     string
	UserinfoURL  string
	CacheTTL     time.Duration
}

// PaymentConfig holds payment processor configuration.
type PaymentConfig struct {
	StripeSecretKey string
	SiteDomain      string
	PriceCents      int64
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig over an explicit argument list.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("lifelessons", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	port := fs.String("port", "", "Server port (default: 5000)")
	dataPath := fs.String("data-path", "", "Directory for the database, search index and ledger")
	storeDriver := fs.String("store", "", "Content store driver (sqlite, mongo)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine; existing environment variables win over it.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "PORT", "5000"),
			AllowedOrigins: splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "*")),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getConfigValue(*storeDriver, "STORE_DRIVER", StoreSQLite)),
			DataPath:      getConfigValue(*dataPath, "DATA_PATH", ""),
			MongoURI:      firstEnv("MONGO_URI", "MONGO_uri"),
			MongoDatabase: getConfigValue("", "MONGO_DATABASE", "DigitalLifeLessons"),
		},
		Identity: IdentityConfig{
			Mode:         strings.ToLower(getConfigValue("", "IDENTITY_MODE", IdentityPaseto)),
			PublicKeyHex: getConfigValue("", "IDENTITY_PUBLIC_KEY", ""),
			Issuer:       getConfigValue("", "IDENTITY_ISSUER", "life-lessons-identity"),
			Audience:     getConfigValue("", "IDENTITY_AUDIENCE", "life-lessons-api"),
			UserinfoURL:  getConfigValue("", "IDENTITY_USERINFO_URL", defaultUserinfoURL),
		},
		Payment: PaymentConfig{
			StripeSecretKey: getConfigValue("", "STRIPE_SECRET_KEY", ""),
			SiteDomain:      strings.TrimRight(getConfigValue("", "SITE_DOMAIN", "http://localhost:5173"), "/"),
			PriceCents:      getInt64ConfigValue("", "PREMIUM_PRICE_CENTS", 1500),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue("SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue("SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue("SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Identity.CacheTTL, err = getDurationConfigValue("IDENTITY_CACHE_TTL", "5m"); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port: %q", c.Server.Port)
	}

	switch c.Store.Driver {
	case StoreSQLite:
		if c.Store.DataPath == "" {
			return errors.New("data path cannot be empty after expansion")
		}
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("invalid store driver: %q (must be sqlite or mongo)", c.Store.Driver)
	}

	switch c.Identity.Mode {
	case IdentityPaseto:
		if c.Identity.PublicKeyHex == "" && c.App.IsProduction() {
			return errors.New("IDENTITY_PUBLIC_KEY is required in production")
		}
	case IdentityUserinfo:
		if c.Identity.UserinfoURL == "" {
			return errors.New("IDENTITY_USERINFO_URL is required in userinfo mode")
		}
	default:
		return fmt.Errorf("invalid identity mode: %q (must be paseto or userinfo)", c.Identity.Mode)
	}

	if c.Payment.StripeSecretKey == "" && c.App.IsProduction() {
		return errors.New("STRIPE_SECRET_KEY is required in production")
	}

	if c.Payment.PriceCents <= 0 {
		return fmt.Errorf("invalid premium price: %d", c.Payment.PriceCents)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data directory to ~/LifeLessons/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "LifeLessons", "data")

	expanded, err := expandPath(c.Store.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Store.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// firstEnv returns the first non-empty variable among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// getInt64ConfigValue returns an int64 from flag, env var, or default.
func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) int64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getDurationConfigValue(envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue("", envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads variables from a .env file without overriding ones
// already present in the environment.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	return godotenv.Load(path)
}
