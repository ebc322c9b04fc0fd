package app

import (
	"os"
	"strconv"
	"time"
)

// DefaultAPIBaseURL is the development backend used when neither the
// environment nor a previous login provides a base URL.
const DefaultAPIBaseURL = "http://localhost:8080"

type Config struct {
	APIBaseURL   string        // Optional: overrides the persisted base URL (BACKOFFICE_API_URL)
	APIKey       string        // Optional: static API key header (BACKOFFICE_API_KEY)
	StateFile    string        // Path to the SQLite state database (default: ./backoffice.db)
	StateKeyFile string        // Optional: path to sealing key material for the refresh token
	Env          string        // Environment (dev, staging, prod) (default: dev)
	LogLevel     string        // Log level (debug, info, warn, error) (default: info)
	LogFormat    string        // Log format (json, text) (default: text)
	IdleTimeout  time.Duration // Inactivity before the warning fires (default: 15m)
	WarningGrace time.Duration // Warning-to-forced-logout window (default: 1m)
	RequestRate  float64       // Optional: outbound requests per second, 0 disables limiting
	RequestBurst int           // Burst size when rate limiting is enabled (default: 5)
}

func LoadConfig() Config {
	cfg := Config{
		APIBaseURL:   os.Getenv("BACKOFFICE_API_URL"),
		APIKey:       os.Getenv("BACKOFFICE_API_KEY"),
		StateFile:    getEnvOrDefault("BACKOFFICE_STATE_FILE", "backoffice.db"),
		StateKeyFile: os.Getenv("BACKOFFICE_STATE_KEY_FILE"),
		Env:          getEnvOrDefault("ENV", "dev"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "text"),
		IdleTimeout:  getEnvDurationOrDefault("BACKOFFICE_IDLE_TIMEOUT", 15*time.Minute),
		WarningGrace: getEnvDurationOrDefault("BACKOFFICE_IDLE_WARNING", time.Minute),
		RequestBurst: getEnvIntOrDefault("BACKOFFICE_REQUEST_BURST", 5),
	}

	if rateStr := os.Getenv("BACKOFFICE_REQUEST_RATE"); rateStr != "" {
		if rate, err := strconv.ParseFloat(rateStr, 64); err == nil {
			cfg.RequestRate = rate
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are taken as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
