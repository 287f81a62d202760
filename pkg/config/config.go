package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration
type Config struct {
	// Server configuration
	Port string `yaml:"port" json:"port"`
	Host string `yaml:"host" json:"host"`

	// API key protecting the REST endpoints; empty disables auth
	APIKey string `yaml:"api_key" json:"api_key"`

	// Logging
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Request handling
	RequestTimeout int `yaml:"request_timeout" json:"request_timeout"` // seconds
	MaxPageSize    int `yaml:"max_page_size" json:"max_page_size"`

	// Background pruning of stale objects; a zero TTL disables it
	PruneTTL      string `yaml:"prune_ttl" json:"prune_ttl"`
	PruneInterval string `yaml:"prune_interval" json:"prune_interval"`
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	config := &Config{
		Port:           "3000",
		Host:           "0.0.0.0",
		LogLevel:       "info",
		RequestTimeout: 30,
		MaxPageSize:    500,
		PruneTTL:       "0s",
		PruneInterval:  "1h",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	config.Port = getEnvOrDefault("DATAREPO_PORT", config.Port)
	config.Host = getEnvOrDefault("DATAREPO_HOST", config.Host)
	config.APIKey = getEnvOrDefault("DATAREPO_API_KEY", config.APIKey)
	config.LogLevel = getEnvOrDefault("DATAREPO_LOG_LEVEL", config.LogLevel)
	config.RequestTimeout = getEnvIntOrDefault("DATAREPO_REQUEST_TIMEOUT", config.RequestTimeout)
	config.MaxPageSize = getEnvIntOrDefault("DATAREPO_MAX_PAGE_SIZE", config.MaxPageSize)
	config.PruneTTL = getEnvOrDefault("DATAREPO_PRUNE_TTL", config.PruneTTL)
	config.PruneInterval = getEnvOrDefault("DATAREPO_PRUNE_INTERVAL", config.PruneInterval)

	return config, nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Host + ":" + c.Port
}

// GetRequestTimeout returns the request timeout as a duration
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetPruneTTL returns the prune TTL, zero when pruning is disabled
func (c *Config) GetPruneTTL() (time.Duration, error) {
	if c.PruneTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.PruneTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid prune TTL: %w", err)
	}
	return ttl, nil
}

// GetPruneInterval returns how often the prune loop runs
func (c *Config) GetPruneInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.PruneInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid prune interval: %w", err)
	}
	return interval, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.MaxPageSize < 0 {
		return fmt.Errorf("max page size cannot be negative")
	}
	if ttl, err := c.GetPruneTTL(); err != nil {
		return err
	} else if ttl < 0 {
		return fmt.Errorf("prune TTL cannot be negative")
	}
	if interval, err := c.GetPruneInterval(); err != nil {
		return err
	} else if interval <= 0 {
		return fmt.Errorf("prune interval must be positive")
	}
	return nil
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
