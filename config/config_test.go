package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 8000, cfg.ServerPort)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 3, cfg.Anthropic.MaxRetries)
	assert.False(t, cfg.Debug)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	t.Setenv("REASONA_DEBUG", "true")
	t.Setenv("REASONA_LOG_LEVEL", "DEBUG")
	t.Setenv("REASONA_HOST", "127.0.0.1")
	t.Setenv("REASONA_PORT", "9090")

	cfg := FromEnv()

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "ak-test", cfg.Anthropic.APIKey)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1", cfg.ServerHost)
	assert.Equal(t, 9090, cfg.ServerPort)
}

func TestFromEnvInvalidPort(t *testing.T) {
	t.Setenv("REASONA_PORT", "not-a-port")

	cfg := FromEnv()

	assert.Equal(t, 8000, cfg.ServerPort)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reasona.yaml")
	data := []byte(`
openai:
  api_key: sk-file
  max_retries: 5
log_level: WARN
server_port: 3000
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := FromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-file", cfg.OpenAI.APIKey)
	assert.Equal(t, 5, cfg.OpenAI.MaxRetries)
	assert.Equal(t, "WARN", cfg.LogLevel)
	assert.Equal(t, 3000, cfg.ServerPort)
	// Untouched fields keep defaults.
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 3, cfg.Anthropic.MaxRetries)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile("/nonexistent/reasona.yaml")
	assert.Error(t, err)
}

func TestProvider(t *testing.T) {
	cfg := New()
	cfg.OpenAI.APIKey = "sk-test"

	p, err := cfg.Provider("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", p.APIKey)
	assert.True(t, p.Configured())

	_, err = cfg.Provider("mistral")
	assert.ErrorContains(t, err, `unknown provider "mistral"`)
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	custom := New()
	custom.ServerPort = 4242
	SetDefault(custom)

	assert.Equal(t, 4242, Default().ServerPort)
}
