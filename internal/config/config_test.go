package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	configYAML := `
version: "0.1.0"
providers:
  openai:
    type: openai
    base_url: https://api.openai.com
    api_key: dummy
    timeout: 30s
models:
  main:
    provider: openai
    model: gpt-4o
    temperature: 0.2
    max_tokens: 2048
    default: true
agent:
  max_turns: 12
storage:
  root: /tmp/presentor-test
`

	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Models["main"].Provider)
	require.Equal(t, 12, cfg.Agent.MaxTurns)
	require.Equal(t, "/tmp/presentor-test", cfg.Storage.Root)
	require.Equal(t, "connect", cfg.Server.Transport)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	configYAML := `
providers:
  openrouter:
    type: openrouter
    base_url: https://openrouter.ai
    api_key: dummy
models:
  main:
    provider: openrouter
    model: qwen2.5
    default: true
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o644))

	t.Setenv("PRESENTOR_AGENT_MAX_TURNS", "8")
	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Agent.MaxTurns)
}

func TestValidateFailsOnUnknownProvider(t *testing.T) {
	cfg := Config{
		Providers: map[string]ProviderConfig{
			"openai": {Type: "openai"},
		},
		Models: map[string]ModelConfig{
			"broken": {Provider: "missing", Default: true},
		},
		Agent: AgentConfig{MaxTurns: 1},
	}

	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsZeroTurnCap(t *testing.T) {
	cfg := Config{
		Providers: map[string]ProviderConfig{
			"openai": {Type: "openai"},
		},
		Models: map[string]ModelConfig{
			"main": {Provider: "openai", Default: true},
		},
		Agent: AgentConfig{MaxTurns: 0},
	}

	require.ErrorContains(t, cfg.Validate(), "max_turns")
}
