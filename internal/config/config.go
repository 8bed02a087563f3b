// Package config loads run configuration from a YAML file with
// environment overrides. Secrets (provider API keys) come from the
// environment only, optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the file and environment are silent.
const (
	DefaultProvider    = "openai"
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultConcurrency = 4
	DefaultMaxRetries  = 3
)

// Config is the full application configuration.
type Config struct {
	Vault VaultConfig `yaml:"vault"`
	Data  DataConfig  `yaml:"data"`
	LLM   LLMConfig   `yaml:"llm"`
	Run   RunConfig   `yaml:"run"`
}

// VaultConfig locates the Markdown vault the run writes into.
type VaultConfig struct {
	Path string `yaml:"path"`
}

func (c VaultConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
	)
}

// DataConfig locates the capture data root. Event JSONL files live in
// <dir>/events; page text payloads are referenced relative to <dir>.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

func (c DataConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// LLMConfig selects and parameterizes the provider backend.
type LLMConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"-"` // environment only, never the file
	MaxRetries int    `yaml:"max_retries"`
}

func (c LLMConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Provider, validation.Required, validation.In("openai")),
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxRetries, validation.Min(1), validation.Max(10)),
	)
}

// RunConfig bounds one pipeline run.
type RunConfig struct {
	Concurrency     int `yaml:"concurrency"`
	MaxEventsPerRun int `yaml:"max_events_per_run"`
}

func (c RunConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Concurrency, validation.Min(1), validation.Max(64)),
		validation.Field(&c.MaxEventsPerRun, validation.Min(0)),
	)
}

// Validate validates the whole configuration.
func (c *Config) Validate() error {
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Run.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// Load reads configuration: .env (if present), then the YAML file at
// path (if present), then environment overrides, then defaults. The
// result is validated before being returned.
func Load(path string) (*Config, error) {
	// Missing .env is normal; only surface real read failures.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Defaults plus environment only.
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays DISTILL_* environment variables and the provider
// API key. A set-but-unparseable override is an error rather than a
// silent fall-through to the file value.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("DISTILL_VAULT_DIR"); v != "" {
		cfg.Vault.Path = v
	}
	if v := os.Getenv("DISTILL_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("DISTILL_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("DISTILL_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DISTILL_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DISTILL_CONCURRENCY %q: %w", v, err)
		}
		cfg.Run.Concurrency = n
	}
	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = DefaultProvider
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = DefaultMaxRetries
	}
	if cfg.Run.Concurrency == 0 {
		cfg.Run.Concurrency = DefaultConcurrency
	}
}
