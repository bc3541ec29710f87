package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/database"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port         string
	APIBaseURL   string
	SessionStore string
	CookieSecure bool
	SecretKey    []byte
	Database     database.Config

	CloudflareAPIToken  string
	CloudflareAccountID string

	LogLevel  string
	LogFormat string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:         getEnv("PORT", ":8080"),
		APIBaseURL:   getEnv("API_BASE_URL", cafeapi.DefaultBaseURL),
		SessionStore: strings.ToLower(getEnv("SESSION_STORE", StorePostgres)),
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getEnv("DB_NAME", "cafedash"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		CloudflareAPIToken:  os.Getenv("CLOUDFLARE_API_TOKEN"),
		CloudflareAccountID: os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}
	if !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		return nil, errors.New("session secret not set")
	}
	cfg.SecretKey = []byte(secret)

	if raw := os.Getenv("SESSION_COOKIE_SECURE"); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_COOKIE_SECURE %q: %w", raw, err)
		}
		cfg.CookieSecure = secure
	}

	if cfg.SessionStore != StorePostgres && cfg.SessionStore != StoreMemory {
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
	return cfg, nil
}

// ConfigureLogging applies the log level and format to the global logrus
// logger.
func (c *Config) ConfigureLogging() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)

	switch strings.ToLower(c.LogFormat) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
