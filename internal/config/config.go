package config

import (
	"os"
	"strconv"
)

// ServiceConfig holds the lead ingestion service configuration
type ServiceConfig struct {
	Port string

	// Voice provider webhook configuration
	WebhookSecret       string
	WebhookToleranceSec int

	// Billing ledger service
	BillingBaseURL string

	// Redis configuration (agent stats cache invalidation)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	EnableCORS bool
}

// LoadServiceConfigFromEnv loads service configuration from environment variables
func LoadServiceConfigFromEnv() *ServiceConfig {
	return &ServiceConfig{
		Port: GetEnvOrDefault("LEAD_SERVICE_PORT", "8084"),

		WebhookSecret:       GetEnvOrDefault("ELEVENLABS_WEBHOOK_SECRET", ""),
		WebhookToleranceSec: GetEnvAsIntOrDefault("WEBHOOK_TOLERANCE_SECONDS", 300),

		BillingBaseURL: GetEnvOrDefault("BILLING_SERVICE_URL", "http://localhost:8001"),

		RedisHost:     GetEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     GetEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: GetEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvAsIntOrDefault("REDIS_DB", 0),

		EnableCORS: GetEnvAsBoolOrDefault("LEAD_SERVICE_ENABLE_CORS", true),
	}
}

// GetEnvOrDefault gets environment variable or returns default
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsIntOrDefault gets environment variable as int or returns default
func GetEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsBoolOrDefault gets environment variable as bool or returns default
func GetEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
