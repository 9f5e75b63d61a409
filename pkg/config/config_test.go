package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sim", cfg.Backend)
	assert.Equal(t, 100, cfg.MaxSteps)
	assert.Equal(t, StoreMemory, cfg.Episodes.Store)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend: vnc
max_steps: 25
episodes:
  store: file
  dir: /tmp/episodes
  encoding: cbor
evaluator:
  enabled: true
  provider: anthropic
  model: claude-sonnet-4-5
  api_key_env: ANTHROPIC_API_KEY
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "vnc", cfg.Backend)
	assert.Equal(t, 25, cfg.MaxSteps)
	assert.Equal(t, StoreFile, cfg.Episodes.Store)
	assert.Equal(t, "cbor", cfg.Episodes.Encoding)
	assert.True(t, cfg.Evaluator.Enabled)
	assert.Equal(t, ProviderAnthropic, cfg.Evaluator.Provider)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "max_steps: 7\n"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MaxSteps)
	assert.Equal(t, "sim", cfg.Backend)
	assert.Equal(t, StoreMemory, cfg.Episodes.Store)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	cases := map[string]func(*Config){
		"empty backend":     func(c *Config) { c.Backend = "" },
		"zero max steps":    func(c *Config) { c.MaxSteps = 0 },
		"unknown store":     func(c *Config) { c.Episodes.Store = "redis" },
		"file without dir":  func(c *Config) { c.Episodes.Store = StoreFile },
		"unknown encoding":  func(c *Config) { c.Episodes.Encoding = "xml" },
		"unknown provider":  func(c *Config) { c.Evaluator.Enabled = true; c.Evaluator.Provider = "llama" },
		"empty api key env": func(c *Config) { c.Evaluator.Enabled = true; c.Evaluator.APIKeyEnv = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Evaluator.APIKeyEnv = "AGENTENV_TEST_KEY"

	_, err := cfg.APIKey()
	assert.Error(t, err, "unset env var should fail")

	t.Setenv("AGENTENV_TEST_KEY", "secret")
	key, err := cfg.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "secret", key)
}
