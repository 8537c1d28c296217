package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the shopshield compliance service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// HTTP server configuration
	Port           string
	TrustedProxies []string

	// Detection microservice configuration
	OcrServiceURL string
	CvServiceURL  string
	ScanTimeout   time.Duration

	// Compliance sweep configuration
	SweepInterval time.Duration
	MaxWorkers    int

	// Auth configuration
	JWTSecret   string
	TokenExpiry time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBName:     getEnv("DB_NAME", "shopshield"),

		// Server defaults
		Port:           getEnv("PORT", "8080"),
		TrustedProxies: getListEnv("TRUSTED_PROXIES", nil),

		// Detection microservice defaults
		OcrServiceURL: getEnv("OCR_SERVICE_URL", "http://localhost:8000/scan/price-tag"),
		CvServiceURL:  getEnv("CV_SERVICE_URL", "http://localhost:8001/detect/fake-product"),
		ScanTimeout:   getDurationEnv("SCAN_TIMEOUT", 30*time.Second),

		// Sweep defaults (hourly, 4 concurrent product evaluations)
		SweepInterval: getDurationEnv("SWEEP_INTERVAL", 1*time.Hour),
		MaxWorkers:    getIntEnv("MAX_WORKERS", 4),

		// Auth defaults
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenExpiry: getDurationEnv("TOKEN_EXPIRY", 1*time.Hour),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getListEnv gets a comma-separated environment variable or returns a default value
func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
