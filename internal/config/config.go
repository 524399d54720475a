// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/lp-yield-calc/internal/model"
	"github.com/yourorg/lp-yield-calc/internal/types"
)

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string

	// Pool parameters used when a request does not override them
	FeeTier     float64
	LPPoolShare float64

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Request handling
	RequestTimeout time.Duration

	// Input validation bounds
	MaxPoolSize    float64
	MaxDailyVolume float64

	// Sanity guard settings
	MaxAPR          float64
	MaxVolumeToTVL  float64
	GuardTripLimit  int
	GuardResetDelay time.Duration

	// Webhook export settings
	ExportWebhookURL    string
	ExportWebhookAPIKey string
	ExportInterval      string
	ExportBatchSize     int

	// Report signing
	SigningEnabled    bool
	SignatureValidity time.Duration
}

// Load creates a new Config from environment variables
func Load() Config {
	feeTier := GetEnvAsFloat("FEE_TIER", model.DefaultFeeTier)

	// A named preset overrides the numeric tier when set
	if name := strings.ToLower(GetEnvOrDefault("FEE_TIER_PRESET", "")); name != "" {
		if rate, ok := types.FeeTier(name).Rate(); ok {
			feeTier = rate
		}
	}

	return Config{
		Port:                GetEnvOrDefault("PORT", "8080"),
		FeeTier:             feeTier,
		LPPoolShare:         GetEnvAsFloat("LP_POOL_SHARE", model.DefaultLPPoolShare),
		OtelEndpoint:        GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		RequestTimeout:      GetEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		MaxPoolSize:         GetEnvAsFloat("MAX_POOL_SIZE", 1e15),
		MaxDailyVolume:      GetEnvAsFloat("MAX_DAILY_VOLUME", 1e15),
		MaxAPR:              GetEnvAsFloat("MAX_APR", 10000.0), // percent
		MaxVolumeToTVL:      GetEnvAsFloat("MAX_VOLUME_TO_TVL", 100.0),
		GuardTripLimit:      GetEnvAsInt("GUARD_TRIP_LIMIT", 5),
		GuardResetDelay:     GetEnvAsDuration("GUARD_RESET_DELAY", 5*time.Minute),
		ExportWebhookURL:    GetEnvOrDefault("EXPORT_WEBHOOK_URL", ""),
		ExportWebhookAPIKey: GetEnvOrDefault("EXPORT_WEBHOOK_API_KEY", ""),
		ExportInterval:      GetEnvOrDefault("EXPORT_INTERVAL", "1m"),
		ExportBatchSize:     GetEnvAsInt("EXPORT_BATCH_SIZE", 100),
		SigningEnabled:      GetEnvAsBool("SIGNING_ENABLED", false),
		SignatureValidity:   GetEnvAsDuration("SIGNATURE_VALIDITY", 24*time.Hour),
	}
}

// PoolParams returns the configured default pool parameters.
func (c Config) PoolParams() model.PoolParams {
	return model.PoolParams{
		FeeTier:     c.FeeTier,
		LPPoolShare: c.LPPoolShare,
	}
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
