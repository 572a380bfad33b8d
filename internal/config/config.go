// Package config provides configuration management for the DAO and vault engine.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Mirror    MirrorConfig
	Chain     ChainConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// MirrorConfig holds settings for the off-core mirror (Postgres entities, Redis history)
type MirrorConfig struct {
	Enabled         bool
	Buffer          int
	RetryAttempts   uint
	RetryDelay      time.Duration
	HistoryLength   int64
	BreakerFailures int
	BreakerCooldown time.Duration
}

// ChainConfig holds settings for the in-process transaction runtime
type ChainConfig struct {
	FactoryAdmin  common.Address
	FaucetEnabled bool
}

// RateLimitConfig holds per-caller API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// DefaultFactoryAdmin is the registry admin used when FACTORY_ADMIN_ADDRESS is unset
const DefaultFactoryAdmin = "0x00000000000000000000000000000000000000ad"

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	adminHex := getEnv("FACTORY_ADMIN_ADDRESS", DefaultFactoryAdmin)
	if !common.IsHexAddress(adminHex) {
		return nil, fmt.Errorf("invalid FACTORY_ADMIN_ADDRESS: %q", adminHex)
	}
	admin := common.HexToAddress(adminHex)
	if admin == (common.Address{}) {
		return nil, fmt.Errorf("FACTORY_ADMIN_ADDRESS cannot be the zero address")
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "dao_vault"),
				User:           getEnv("POSTGRES_USER", "dao"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Mirror: MirrorConfig{
			Enabled:         getEnvAsBool("MIRROR_ENABLED", false),
			Buffer:          getEnvAsInt("MIRROR_BUFFER", 1024),
			RetryAttempts:   uint(getEnvAsInt("MIRROR_RETRY_ATTEMPTS", 5)),
			RetryDelay:      getEnvAsDuration("MIRROR_RETRY_DELAY", 200*time.Millisecond),
			HistoryLength:   int64(getEnvAsInt("HISTORY_LENGTH", 100)),
			BreakerFailures: getEnvAsInt("MIRROR_BREAKER_FAILURES", 5),
			BreakerCooldown: getEnvAsDuration("MIRROR_BREAKER_COOLDOWN", 30*time.Second),
		},
		Chain: ChainConfig{
			FactoryAdmin:  admin,
			FaucetEnabled: getEnvAsBool("LEDGER_FAUCET_ENABLED", false),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if config.Mirror.Buffer <= 0 {
		return nil, fmt.Errorf("MIRROR_BUFFER must be positive, got %d", config.Mirror.Buffer)
	}

	return config, nil
}

// PostgresDSN builds a connection string for pgx and golang-migrate
func (c PostgresConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Addr returns host:port for the Redis client
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	switch valueStr {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
