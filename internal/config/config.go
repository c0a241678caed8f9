package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	WS       WSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr        string
	ReadTimeout time.Duration
	CORSOrigins []string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// WSConfig holds WebSocket delivery settings.
type WSConfig struct {
	// SendQueueSize bounds each endpoint's outbound queue; a peer that falls
	// this far behind is evicted.
	SendQueueSize int
	// WriteTimeout bounds a single frame write to one endpoint.
	WriteTimeout time.Duration
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("BOARDCHAT_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("BOARDCHAT_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("BOARDCHAT_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sendQueueSize, err := getEnvInt("BOARDCHAT_WS_SEND_QUEUE_SIZE", 32)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("BOARDCHAT_WS_WRITE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("BOARDCHAT_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Server: ServerConfig{
			Addr:        getEnv("BOARDCHAT_SERVER_ADDR", ":8080"),
			ReadTimeout: readTimeout,
			CORSOrigins: corsOrigins,
		},
		Database: DatabaseConfig{
			Host:     getEnv("BOARDCHAT_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("BOARDCHAT_DB_USER", "boardchat"),
			Password: getEnv("BOARDCHAT_DB_PASSWORD", ""),
			DBName:   getEnv("BOARDCHAT_DB_NAME", "boardchat_dev"),
			SSLMode:  getEnv("BOARDCHAT_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		JWT: JWTConfig{
			Secret: getEnv("BOARDCHAT_JWT_SECRET", ""),
		},
		WS: WSConfig{
			SendQueueSize: sendQueueSize,
			WriteTimeout:  writeTimeout,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("BOARDCHAT_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("BOARDCHAT_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("BOARDCHAT_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("BOARDCHAT_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("BOARDCHAT_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("BOARDCHAT_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.WS.SendQueueSize < 1 {
		return fmt.Errorf("BOARDCHAT_WS_SEND_QUEUE_SIZE must be >= 1, got %d", c.WS.SendQueueSize)
	}
	if c.WS.WriteTimeout <= 0 {
		return fmt.Errorf("BOARDCHAT_WS_WRITE_TIMEOUT must be positive, got %s", c.WS.WriteTimeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
