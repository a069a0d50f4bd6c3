package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := NewManager(viper.New(), "").Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, 200, cfg.Chat.MaxOutputTokens)
	assert.Equal(t, 10, cfg.Chat.HistoryWindow)
	assert.Equal(t, 30*time.Second, cfg.Chat.Timeout)
	assert.Equal(t, 20.0, cfg.Align.Threshold)
	assert.Equal(t, 0.0, cfg.Targets.Alien.Alpha)
	assert.Equal(t, 70.0, cfg.Targets.Alien.Beta)
	assert.Equal(t, 5*time.Second, cfg.Satellite.PollInterval)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadMissingKeyFailsFast(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("OPENAI_API_KEY", "sk-irrelevant")

	_, err := NewManager(viper.New(), "").Load()
	require.Error(t, err)

	var cfgErr *engine.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Key)
	assert.Equal(t, "gemini", cfgErr.Provider)
}

func TestLoadUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("LLM_PROVIDER", "mistral")

	_, err := NewManager(viper.New(), "").Load()
	var cfgErr *engine.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "LLM_PROVIDER", cfgErr.Key)
}

func TestLoadConfigFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "skyfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: anthropic
port: 9000
anthropic:
  api_key: from-file
chat:
  timeout: 5s
align:
  threshold: 15
`), 0o600))

	t.Setenv("PORT", "9100")

	m := NewManager(viper.New(), path)
	cfg, err := m.Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "from-file", cfg.Anthropic.APIKey)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Chat.Timeout)
	assert.Equal(t, 15.0, cfg.Align.Threshold)
	assert.Equal(t, path, m.GetConfigPath())
}

func TestValidate(t *testing.T) {
	base := Config{
		Provider: "openai",
		Port:     8080,
		OpenAI:   ProviderConfig{APIKey: "k"},
		Chat:     ChatConfig{Timeout: time.Second},
		Align:    AlignConfig{Threshold: 20},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Port = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Align.Threshold = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.OpenAI.APIKey = "  "
	assert.Error(t, bad.Validate())
}
