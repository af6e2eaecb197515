// Package config loads application configuration from a YAML file with
// environment variable overrides, and validates it before startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to key names for environment variable lookup.
const EnvPrefix = "MEETYAI_"

// Validation errors.
var (
	// ErrEncryptionKeyRequired indicates the credential encryption key is
	// missing. There is deliberately no default key.
	ErrEncryptionKeyRequired = errors.New("encryption_key is required")

	// ErrAnthropicKeyRequired indicates the analysis provider key is missing.
	ErrAnthropicKeyRequired = errors.New("anthropic_api_key is required")
)

// ModelConfig names the models used per pipeline stage.
type ModelConfig struct {
	Classify string `yaml:"classify"`
	Analysis string `yaml:"analysis"`
	Refine   string `yaml:"refine"`
	Judgment string `yaml:"judgment"`
}

// Config is the full application configuration.
type Config struct {
	// DatabasePath is the SQLite database location.
	DatabasePath string `yaml:"database_path"`

	// EncryptionKey protects export credentials at rest. Required.
	EncryptionKey string `yaml:"encryption_key"`

	// Provider credentials.
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	SlackBotToken   string `yaml:"slack_bot_token"`

	// Models per stage. Defaults are applied in Load.
	Models ModelConfig `yaml:"models"`

	// LLMTimeout bounds each model call. Zero disables the bound.
	LLMTimeout time.Duration `yaml:"llm_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		DatabasePath: "meetyai.db",
		Models: ModelConfig{
			Classify: "claude-sonnet-4-5-20250929",
			Analysis: "claude-sonnet-4-5-20250929",
			Refine:   "gpt-5-preview",
			Judgment: "claude-sonnet-4-20250514",
		},
		LogLevel: "info",
	}
}

// Load reads the config file at path (optional: a missing file is not an
// error), applies environment overrides, fills defaults, and validates.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Environment-only configuration is fine.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv := func(dst *string, key string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	setFromEnv(&c.DatabasePath, "DATABASE_PATH")
	setFromEnv(&c.EncryptionKey, "ENCRYPTION_KEY")
	setFromEnv(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setFromEnv(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setFromEnv(&c.SlackBotToken, "SLACK_BOT_TOKEN")
	setFromEnv(&c.Models.Classify, "MODEL_CLASSIFY")
	setFromEnv(&c.Models.Analysis, "MODEL_ANALYSIS")
	setFromEnv(&c.Models.Refine, "MODEL_REFINE")
	setFromEnv(&c.Models.Judgment, "MODEL_JUDGMENT")
	setFromEnv(&c.LogLevel, "LOG_LEVEL")

	if v := os.Getenv(EnvPrefix + "LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.LLMTimeout = d
		}
	}
}

func (c *Config) fillDefaults() {
	def := Defaults()
	if c.DatabasePath == "" {
		c.DatabasePath = def.DatabasePath
	}
	if c.Models.Classify == "" {
		c.Models.Classify = def.Models.Classify
	}
	if c.Models.Analysis == "" {
		c.Models.Analysis = def.Models.Analysis
	}
	if c.Models.Refine == "" {
		c.Models.Refine = def.Models.Refine
	}
	if c.Models.Judgment == "" {
		c.Models.Judgment = def.Models.Judgment
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate checks that required values are present. The encryption key has
// no fallback: a missing key fails startup rather than defaulting
// insecurely.
func (c *Config) Validate() error {
	if c.EncryptionKey == "" {
		return ErrEncryptionKeyRequired
	}
	if c.AnthropicAPIKey == "" {
		return ErrAnthropicKeyRequired
	}
	return nil
}
