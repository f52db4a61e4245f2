package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Template sources
const (
	SourceFS    = "fs"
	SourceRedis = "redis"
)

// Config holds all configuration for the template field renderer
type Config struct {
	// Template configuration
	SearchPath []string `env:"TEMPLATE_SEARCH_PATH" envDefault:"." envSeparator:","`
	Extensions []string `env:"TEMPLATE_EXTENSIONS" envDefault:".sql,.sh,.json,.yaml" envSeparator:","`
	Native     bool     `env:"TEMPLATE_NATIVE" envDefault:"false"`
	Dialect    string   `env:"TEMPLATE_DIALECT" envDefault:"jinja"`
	CacheSize  int      `env:"TEMPLATE_CACHE_SIZE" envDefault:"400"`
	Source     string   `env:"TEMPLATE_SOURCE" envDefault:"fs"`

	// Redis configuration
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASS" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string        `env:"TEMPLATE_REDIS_PREFIX" envDefault:"templates:"`
	RedisTimeout  time.Duration `env:"TEMPLATE_REDIS_TIMEOUT" envDefault:"2s"`

	// Sandbox configuration; an empty policy keeps the default one
	AttributePolicy         string `env:"ATTRIBUTE_POLICY"`
	AttributePolicyLanguage string `env:"ATTRIBUTE_POLICY_LANGUAGE" envDefault:"cel"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Source != SourceFS && c.Source != SourceRedis {
		return fmt.Errorf("TEMPLATE_SOURCE must be one of: fs, redis")
	}

	if c.Source == SourceFS && len(c.SearchPath) == 0 {
		return fmt.Errorf("TEMPLATE_SEARCH_PATH is required")
	}

	if c.Dialect != "jinja" && c.Dialect != "handlebars" {
		return fmt.Errorf("TEMPLATE_DIALECT must be one of: jinja, handlebars")
	}

	if c.AttributePolicyLanguage != "cel" && c.AttributePolicyLanguage != "expr" {
		return fmt.Errorf("ATTRIBUTE_POLICY_LANGUAGE must be one of: cel, expr")
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("TEMPLATE_CACHE_SIZE must be non-negative")
	}

	if c.Source == SourceRedis {
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
		if c.RedisTimeout <= 0 {
			return fmt.Errorf("TEMPLATE_REDIS_TIMEOUT must be positive")
		}
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Source=%s, SearchPath=%v, Extensions=%v, Native=%v, Dialect=%s, CacheSize=%d, "+
			"RedisAddr=%s, RedisDB=%d, RedisPrefix=%s, AttributePolicy=%q, AttributePolicyLanguage=%s, LogLevel=%s}",
		c.Source,
		c.SearchPath,
		c.Extensions,
		c.Native,
		c.Dialect,
		c.CacheSize,
		c.RedisAddr,
		c.RedisDB,
		c.RedisPrefix,
		c.AttributePolicy,
		c.AttributePolicyLanguage,
		c.LogLevel,
	)
}
