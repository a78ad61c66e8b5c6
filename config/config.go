package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	// HTTP server settings
	HTTP struct {
		Address string `yaml:"address"`
		Port    string `yaml:"port"`
	} `yaml:"http"`

	// Database settings
	DB struct {
		Path string `yaml:"path"`
	} `yaml:"db"`

	// Telegram Bot API settings (remote blob store)
	Telegram struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
		ChatID  string `yaml:"chat_id"`
	} `yaml:"telegram"`

	// File index settings
	Files struct {
		// DeleteRemote controls whether removing an index entry also deletes
		// the remote object. Off by default: remote objects are retained.
		DeleteRemote bool `yaml:"delete_remote"`
	} `yaml:"files"`

	// Circuit breaker settings for the remote store
	Breaker struct {
		FailureThreshold int           `yaml:"failure_threshold"`
		Timeout          time.Duration `yaml:"timeout"`
		HalfOpenRequests int           `yaml:"half_open_requests"`
	} `yaml:"breaker"`

	// Logging settings
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errs []string

	if c.HTTP.Address == "" {
		errs = append(errs, "HTTP address is required")
	}
	if c.HTTP.Port == "" {
		errs = append(errs, "HTTP port is required")
	}

	if c.DB.Path == "" {
		errs = append(errs, "database path is required")
	}

	if c.Telegram.BaseURL == "" {
		errs = append(errs, "Telegram base URL is required")
	}

	if c.Breaker.FailureThreshold <= 0 {
		errs = append(errs, "breaker failure threshold must be positive")
	}
	if c.Breaker.Timeout <= 0 {
		errs = append(errs, "breaker timeout must be positive")
	}
	if c.Breaker.HalfOpenRequests <= 0 {
		errs = append(errs, "breaker half-open requests must be positive")
	}

	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, "log level must be one of DEBUG, INFO, WARN, ERROR")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Default returns a Config with sensible default values.
// The Telegram token and chat id have no defaults: without them the blob
// store stays unconfigured and file operations fail fast.
func Default() *Config {
	cfg := &Config{}

	cfg.HTTP.Address = "127.0.0.1"
	cfg.HTTP.Port = "8080"

	cfg.DB.Path = "streamgate.db"

	cfg.Telegram.BaseURL = "https://api.telegram.org"

	cfg.Files.DeleteRemote = false

	cfg.Breaker.FailureThreshold = 5
	cfg.Breaker.Timeout = 30 * time.Second
	cfg.Breaker.HalfOpenRequests = 1

	cfg.Log.Level = "INFO"

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load loads configuration from a file (if present) and applies environment
// variable overrides
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	var errs []string

	if val := os.Getenv("HTTP_ADDRESS"); val != "" {
		cfg.HTTP.Address = val
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		cfg.HTTP.Port = val
	}

	if val := os.Getenv("DB_PATH"); val != "" {
		cfg.DB.Path = val
	}

	if val := os.Getenv("TELEGRAM_BASE_URL"); val != "" {
		cfg.Telegram.BaseURL = val
	}
	if val := os.Getenv("TELEGRAM_BOT_TOKEN"); val != "" {
		cfg.Telegram.Token = val
	}
	if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
		cfg.Telegram.ChatID = val
	}

	if val := os.Getenv("FILES_DELETE_REMOTE"); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, "FILES_DELETE_REMOTE: invalid boolean")
		} else {
			cfg.Files.DeleteRemote = parsed
		}
	}

	if val := os.Getenv("BREAKER_FAILURE_THRESHOLD"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed <= 0 {
			errs = append(errs, "BREAKER_FAILURE_THRESHOLD: must be a positive integer")
		} else {
			cfg.Breaker.FailureThreshold = parsed
		}
	}
	if val := os.Getenv("BREAKER_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil || parsed <= 0 {
			errs = append(errs, "BREAKER_TIMEOUT: invalid duration (use '30s', '1m', etc.)")
		} else {
			cfg.Breaker.Timeout = parsed
		}
	}
	if val := os.Getenv("BREAKER_HALF_OPEN_REQUESTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed <= 0 {
			errs = append(errs, "BREAKER_HALF_OPEN_REQUESTS: must be a positive integer")
		} else {
			cfg.Breaker.HalfOpenRequests = parsed
		}
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment overrides:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
