package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	DatabaseDSN string

	ScoringServiceURL string
	ScoringTimeout    time.Duration

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	AnalyticsCacheTTL time.Duration

	// Cron spec for the background candidate-count reconciler.
	ReconcileSchedule string

	CORSAllowedOrigin string
}

func Load() *Config {
	return &Config{
		Port:        getEnvString("PORT", "8080"),
		Environment: getEnvString("ENVIRONMENT", "development"),
		Version:     getEnvString("SERVICE_VERSION", "1.0.0"),

		DatabaseDSN: getEnvString("DATABASE_DSN",
			"host=localhost user=postgres password=postgres dbname=talentgate port=5432 sslmode=disable"),

		ScoringServiceURL: getEnvString("ML_SERVICE_URL", "http://localhost:8000"),
		ScoringTimeout:    getEnvDuration("ML_SERVICE_TIMEOUT", 30*time.Second),

		RedisAddr:         getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnvString("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		AnalyticsCacheTTL: getEnvDuration("ANALYTICS_CACHE_TTL", 30*time.Second),

		ReconcileSchedule: getEnvString("RECONCILE_SCHEDULE", "@every 5m"),

		CORSAllowedOrigin: getEnvString("FRONTEND_URL", "http://localhost:3000"),
	}
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
