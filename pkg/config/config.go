// Package config loads the runner configuration from YAML, applies defaults,
// and validates it before anything starts.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"agentenv/pkg/episode"
	"agentenv/pkg/input"
)

// Episode store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Evaluator providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the top-level runner configuration.
type Config struct {
	// Backend selects the computer driver by registered name.
	Backend string `yaml:"backend"`

	// MaxSteps caps each episode run.
	MaxSteps int `yaml:"max_steps"`

	Episodes  EpisodeConfig   `yaml:"episodes"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
}

// EpisodeConfig selects where and how trajectories are stored.
type EpisodeConfig struct {
	Store string `yaml:"store"`
	// Dir is the parent directory for file and sqlite stores.
	Dir      string `yaml:"dir"`
	Encoding string `yaml:"encoding"`
}

// EvaluatorConfig selects the judge model. The API key is looked up from the
// environment, never stored in the file.
type EvaluatorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:  input.BackendSim,
		MaxSteps: 100,
		Episodes: EpisodeConfig{
			Store:    StoreMemory,
			Encoding: string(episode.EncodingJSON),
		},
		Evaluator: EvaluatorConfig{
			Provider:  ProviderOpenAI,
			APIKeyEnv: "OPENAI_API_KEY",
		},
	}
}

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values nothing downstream can accept.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return fmt.Errorf("backend cannot be empty")
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}

	switch c.Episodes.Store {
	case StoreMemory, StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("unknown episode store %q", c.Episodes.Store)
	}
	if c.Episodes.Store != StoreMemory && c.Episodes.Dir == "" {
		return fmt.Errorf("episode store %q needs a dir", c.Episodes.Store)
	}
	if !episode.Encoding(c.Episodes.Encoding).Valid() {
		return fmt.Errorf("unknown step encoding %q", c.Episodes.Encoding)
	}

	if c.Evaluator.Enabled {
		switch c.Evaluator.Provider {
		case ProviderOpenAI, ProviderAnthropic:
		default:
			return fmt.Errorf("unknown evaluator provider %q", c.Evaluator.Provider)
		}
		if c.Evaluator.APIKeyEnv == "" {
			return fmt.Errorf("evaluator needs api_key_env")
		}
	}
	return nil
}

// APIKey resolves the evaluator's API key from the environment.
func (c *Config) APIKey() (string, error) {
	key := os.Getenv(c.Evaluator.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", c.Evaluator.APIKeyEnv)
	}
	return key, nil
}
