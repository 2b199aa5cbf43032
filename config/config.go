package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	Environment string
	Debug       bool

	// Database
	MongoURI string
	DBName   string

	// JWT
	JWTSecret      string
	AccessTokenTTL time.Duration

	// Security
	CORSAllowedOrigins []string
	RateLimitEnabled   bool

	// Sweeper
	SweepSchedule string // cron expression, standard 5-field
	SweepOnStart  bool

	// Application
	AppName    string
	AppVersion string

	// Seeded admin
	AdminDefaultEmail string
	AdminDefaultPass  string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Debug:       getEnvAsBool("DEBUG", true),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("DB_NAME", "inmoback"),

		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		AccessTokenTTL: getEnvAsDuration("ACCESS_TOKEN_TTL", 24*time.Hour),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitEnabled:   getEnvAsBool("RATE_LIMIT_ENABLED", true),

		SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 2 * * *"),
		SweepOnStart:  getEnvAsBool("SWEEP_ON_START", false),

		AppName:    getEnv("APP_NAME", "inmoback"),
		AppVersion: getEnv("APP_VERSION", "1.0.0"),

		AdminDefaultEmail: getEnv("ADMIN_DEFAULT_EMAIL", "admin@inmoback.local"),
		AdminDefaultPass:  getEnv("ADMIN_DEFAULT_PASS", "admin123"),
	}
}

// ValidateConfig checks required settings before startup.
func (c *Config) ValidateConfig() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.IsProduction() && c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
