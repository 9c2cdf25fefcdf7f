// ABOUTME: Configuration loading and parsing for advisor-bot
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete advisor-bot configuration
type Config struct {
	Telegram   TelegramConfig    `yaml:"telegram"`
	OpenAI     OpenAIConfig      `yaml:"openai"`
	Assistants []AssistantConfig `yaml:"assistants"`
	Runs       RunsConfig        `yaml:"runs"`
	Transport  TransportConfig   `yaml:"transport"`
	Database   DatabaseConfig    `yaml:"database"`
	Server     ServerConfig      `yaml:"server"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// TelegramConfig holds the bot API credentials
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// OpenAIConfig holds the assistant service credentials.
// BaseURL is optional and only used to point at a compatible proxy.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// AssistantConfig declares one assistant variant the bot can talk to
type AssistantConfig struct {
	Key         string `yaml:"key"`
	AssistantID string `yaml:"assistant_id"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
}

// RunsConfig holds run polling configuration
type RunsConfig struct {
	PollInterval time.Duration `yaml:"-"`
	MaxAttempts  int           `yaml:"max_attempts"`

	// Raw string value for YAML unmarshaling
	PollIntervalRaw string `yaml:"poll_interval"`
}

// TransportConfig holds outbound message sizing
type TransportConfig struct {
	MaxChunkLen int `yaml:"max_chunk_len"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds the health endpoint address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied when the config file leaves a value unset.
const (
	DefaultPollInterval = time.Second
	DefaultMaxAttempts  = 30
	DefaultMaxChunkLen  = 4096
	DefaultHTTPAddr     = ":8080"
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in unset values with their defaults
func (c *Config) applyDefaults() {
	if c.Runs.PollInterval == 0 {
		c.Runs.PollInterval = DefaultPollInterval
	}
	if c.Runs.MaxAttempts == 0 {
		c.Runs.MaxAttempts = DefaultMaxAttempts
	}
	if c.Transport.MaxChunkLen == 0 {
		c.Transport.MaxChunkLen = DefaultMaxChunkLen
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
// A variant without a remote assistant id is a startup error, never a runtime one.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}

	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}

	if len(c.Assistants) == 0 {
		return fmt.Errorf("at least one assistant variant is required")
	}
	seen := make(map[string]bool, len(c.Assistants))
	for i, a := range c.Assistants {
		if a.Key == "" {
			return fmt.Errorf("assistants[%d].key is required", i)
		}
		if a.AssistantID == "" {
			return fmt.Errorf("assistants[%d] (%s): assistant_id is required", i, a.Key)
		}
		if seen[a.Key] {
			return fmt.Errorf("duplicate assistant variant key %q", a.Key)
		}
		seen[a.Key] = true
	}

	if c.Runs.MaxAttempts < 1 {
		return fmt.Errorf("runs.max_attempts must be at least 1")
	}
	if c.Runs.PollInterval <= 0 {
		return fmt.Errorf("runs.poll_interval must be positive")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Runs.PollIntervalRaw != "" {
		cfg.Runs.PollInterval, err = time.ParseDuration(cfg.Runs.PollIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_interval %q: %w", cfg.Runs.PollIntervalRaw, err)
		}
	}

	return nil
}
