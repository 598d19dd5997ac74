// Package config provides configuration management for Parley. Settings
// are loaded from environment variables with the PARLEY_ prefix, with
// sensible defaults for every option.
package config

import (
	"os"
	"strconv"
)

// Config holds all configuration settings for the Parley action server.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Security  SecurityConfig
	Knowledge KnowledgeConfig
	RateLimit RateLimitConfig
	Features  FeaturesConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 5055)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains knowledge-store backend configuration.
type StorageConfig struct {
	Engine      string // Backend: memory, sqlite, postgres, remote (default: memory)
	DataPath    string // Data directory for the sqlite backend (default: ./data)
	PostgresDSN string // Connection string for the postgres backend
	RemoteURL   string // Base URL for the remote backend
	KBPath      string // Optional YAML knowledge-base file loaded at startup
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	Mode     string // Security mode: development, production (default: development)
	APIToken string // Bearer token required in production mode
}

// KnowledgeConfig contains knowledge-base behaviour settings.
type KnowledgeConfig struct {
	// NameAttribute is the attribute used for the default object display
	// when no representation function is registered (default: name).
	NameAttribute string
}

// RateLimitConfig contains webhook rate-limit settings.
type RateLimitConfig struct {
	PerSecond float64 // Sustained requests per second (default: 10)
	Burst     int     // Maximum burst size (default: 20)
}

// FeaturesConfig contains feature flags.
type FeaturesConfig struct {
	EnableWebSocket bool // Enable the /ws utterance event stream (default: true)
}

// LoadConfig loads configuration from environment variables with
// defaults. All environment variables use the PARLEY_ prefix.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("PARLEY_PORT", 5055),
			Host: getEnv("PARLEY_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			Engine:      getEnv("PARLEY_STORAGE_ENGINE", "memory"),
			DataPath:    getEnv("PARLEY_DATA_PATH", "./data"),
			PostgresDSN: getEnv("PARLEY_POSTGRES_DSN", ""),
			RemoteURL:   getEnv("PARLEY_REMOTE_URL", ""),
			KBPath:      getEnv("PARLEY_KB_PATH", ""),
		},
		Security: SecurityConfig{
			Mode:     getEnv("PARLEY_SECURITY_MODE", "development"),
			APIToken: getEnv("PARLEY_API_TOKEN", ""),
		},
		Knowledge: KnowledgeConfig{
			NameAttribute: getEnv("PARLEY_NAME_ATTRIBUTE", "name"),
		},
		RateLimit: RateLimitConfig{
			PerSecond: getEnvFloat("PARLEY_RATE_LIMIT_PER_SECOND", 10.0),
			Burst:     getEnvInt("PARLEY_RATE_LIMIT_BURST", 20),
		},
		Features: FeaturesConfig{
			EnableWebSocket: getEnvBool("PARLEY_ENABLE_WEBSOCKET", true),
		},
	}, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a
// default value when the variable is unset or unparseable.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value when the variable is unset or unparseable.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a
// default value. It recognizes "true", "1", "yes" as true and "false",
// "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
