package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel string
	// LogFormat is "text" or "json"
	LogFormat string

	ArtifactDir         string
	ArtifactName        string
	ArtifactDatabaseURL string
	// ArtifactRequired turns a malformed artifact into a start-up failure
	ArtifactRequired bool

	MinPredictedCost float64
	HeuristicJitter  bool

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "10000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           strings.ToLower(getEnv("LOG_FORMAT", "text")),
		ArtifactDir:         getEnv("ARTIFACT_DIR", "models"),
		ArtifactName:        getEnv("ARTIFACT_NAME", "lesotho-healthcare-cost"),
		ArtifactDatabaseURL: os.Getenv("ARTIFACT_DATABASE_URL"),
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.ArtifactRequired, err = getBool("ARTIFACT_REQUIRED", false); err != nil {
		return nil, err
	}
	if cfg.HeuristicJitter, err = getBool("HEURISTIC_JITTER", false); err != nil {
		return nil, err
	}
	if cfg.MinPredictedCost, err = getFloat("MIN_PREDICTED_COST", 1000); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that parse but make no sense
func (c *Config) Validate() error {
	if c.MinPredictedCost <= 0 {
		return fmt.Errorf("MIN_PREDICTED_COST must be positive, got %v", c.MinPredictedCost)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a TCP port number, got %q", c.Port)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return i, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
