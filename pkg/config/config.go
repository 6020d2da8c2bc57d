package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Judgment model API
	OpenAI OpenAIConfig

	// Redis (optional response cache)
	Redis RedisConfig

	// Pipeline defaults
	Pipeline PipelineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// OpenAIConfig holds the judgment model API configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	// Outbound call rate limit (requests per second, burst)
	RateLimit float64
	RateBurst int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// PipelineConfig holds default knobs for the signal pipeline.
// Per-request overrides (model, total timeout) are applied on top.
type PipelineConfig struct {
	BatchSize             int
	MaxConcurrentBatches  int
	PerBatchTimeout       time.Duration
	ReconciliationTimeout time.Duration
	TotalTimeout          time.Duration
	MaxRetries            int
	RetryDelay            time.Duration
	CacheTTL              time.Duration
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8091"),
		Env:  getEnv("ENV", "development"),

		OpenAI: OpenAIConfig{
			APIKey:    getEnv("OPENAI_API_KEY", ""),
			BaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:     getEnv("OPENAI_MODEL", "gpt-5.1"),
			RateLimit: getEnvAsFloat("OPENAI_RATE_LIMIT", 2.0),
			RateBurst: getEnvAsInt("OPENAI_RATE_BURST", 4),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Pipeline: PipelineConfig{
			BatchSize:             getEnvAsInt("RISK_BATCH_SIZE", 5),
			MaxConcurrentBatches:  getEnvAsInt("RISK_MAX_CONCURRENT_BATCHES", 4),
			PerBatchTimeout:       getEnvAsDuration("RISK_PER_BATCH_TIMEOUT", "45s"),
			ReconciliationTimeout: getEnvAsDuration("RISK_RECONCILIATION_TIMEOUT", "30s"),
			TotalTimeout:          getEnvAsDuration("RISK_TOTAL_TIMEOUT", "90s"),
			MaxRetries:            getEnvAsInt("RISK_MAX_RETRIES", 2),
			RetryDelay:            getEnvAsDuration("RISK_RETRY_DELAY", "1s"),
			CacheTTL:              getEnvAsDuration("RISK_CACHE_TTL", "10m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("RISK_BATCH_SIZE must be positive, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.MaxConcurrentBatches <= 0 {
		return fmt.Errorf("RISK_MAX_CONCURRENT_BATCHES must be positive, got %d", c.Pipeline.MaxConcurrentBatches)
	}
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("RISK_MAX_RETRIES must not be negative, got %d", c.Pipeline.MaxRetries)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
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
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
