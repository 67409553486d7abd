/**
 * @description
 * Configuration loader for the Auction Backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 * - standard "fmt": For error reporting
 *
 * @notes
 * - Fails fast if critical variables (Database URL) are missing.
 * - Uses a Singleton-like pattern where Load() returns a Config struct.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Auction AuctionConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// AuthConfig holds the JWT validation settings for the accounts collaborator
type AuthConfig struct {
	JWKSURL string
}

// AuctionConfig holds tunables for the auction engine and sweeper
type AuctionConfig struct {
	SweepInterval time.Duration
	ListCacheTTL  time.Duration
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (k8s/prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Auth: AuthConfig{
			JWKSURL: getEnv("AUTH_JWKS_URL", ""),
		},
		Auction: AuctionConfig{
			SweepInterval: time.Duration(getEnvAsInt("SWEEP_INTERVAL_SECONDS", 30)) * time.Second,
			ListCacheTTL:  time.Duration(getEnvAsInt("LIST_CACHE_TTL_SECONDS", 15)) * time.Second,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWKSURL == "" && cfg.Server.Env != "test" {
		// Warning: strictly required for Auth middleware
		fmt.Println("Warning: AUTH_JWKS_URL is missing. Auth middleware will fail.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
