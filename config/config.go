// Package config loads the server's runtime configuration from the
// environment, with an optional .env file for local development.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Engine EngineConfig
	App    AppConfig
}

// ServerConfig configures the HTTP listener and its protective
// middleware.
type ServerConfig struct {
	Port string `validate:"required"`

	// AllowedOrigins restricts CORS; empty allows all origins.
	AllowedOrigins []string

	// RateLimitRPS bounds each client's request rate on the analysis
	// routes. Zero disables limiting.
	RateLimitRPS   float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=0"`

	// ShutdownTimeout bounds how long in-flight requests may drain on
	// shutdown.
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// RedisConfig configures the run store and result cache backend. With
// Enabled false the server falls back to in-memory stores.
type RedisConfig struct {
	Enabled  bool
	Addr     string `validate:"required_if=Enabled true"`
	Password string
	DB       int `validate:"gte=0"`
}

// EngineConfig selects and tunes the consistency solver.
type EngineConfig struct {
	// SolverType names the registered solver the server runs with.
	SolverType string `validate:"oneof=power_iteration column_normalization"`

	Tolerance     float64 `validate:"gt=0,lte=1"`
	MaxIterations int     `validate:"gte=1"`

	// ExtendedRandomIndex admits matrices up to order 15 instead of the
	// standard 10.
	ExtendedRandomIndex bool

	// Concurrency caps parallel block analysis. Zero keeps the engine
	// default.
	Concurrency int `validate:"gte=0"`

	// CacheTTL bounds result-cache entries; ReportTTL bounds stored
	// runs. Zero keeps the store defaults.
	CacheTTL  time.Duration `validate:"gte=0"`
	ReportTTL time.Duration `validate:"gte=0"`
}

// AppConfig carries service identity metadata.
type AppConfig struct {
	Environment string `validate:"oneof=development staging production"`
	Version     string
	ServiceName string `validate:"required"`
}

// Load reads the configuration from the environment, applying defaults
// for anything unset, and validates the result.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			AllowedOrigins:  getEnvAsSlice("ALLOWED_ORIGINS", nil),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 0),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 10),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Engine: EngineConfig{
			SolverType:          getEnv("AHP_SOLVER", "power_iteration"),
			Tolerance:           getEnvAsFloat("AHP_TOLERANCE", 1e-9),
			MaxIterations:       getEnvAsInt("AHP_MAX_ITERATIONS", 1000),
			ExtendedRandomIndex: getEnvAsBool("AHP_EXTENDED_RANDOM_INDEX", false),
			Concurrency:         getEnvAsInt("AHP_CONCURRENCY", 0),
			CacheTTL:            getEnvAsDuration("AHP_CACHE_TTL", time.Hour),
			ReportTTL:           getEnvAsDuration("AHP_REPORT_TTL", 7*24*time.Hour),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			ServiceName: getEnv("SERVICE_NAME", "ahp-engine"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SolverParameters projects the engine settings into the configuration
// map the analyzer registry consumes.
func (e EngineConfig) SolverParameters() map[string]any {
	return map[string]any{
		"tolerance":             e.Tolerance,
		"max_iterations":        e.MaxIterations,
		"extended_random_index": e.ExtendedRandomIndex,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
