package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ChamsBouzaiene/skyfinder/internal/config"
	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

func TestParseProvider(t *testing.T) {
	for in, want := range map[string]Provider{
		"":          ProviderOpenAI,
		"openai":    ProviderOpenAI,
		" Gemini ":  ProviderGemini,
		"ANTHROPIC": ProviderAnthropic,
	} {
		got, err := ParseProvider(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseProvider("kimi")
	var cfgErr *engine.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestNewClientSelectsAdapter(t *testing.T) {
	cfg := &config.Config{
		Provider:  "anthropic",
		Anthropic: config.ProviderConfig{APIKey: "k", Model: "claude-3-haiku-20240307"},
		Chat:      config.ChatConfig{MaxOutputTokens: 200, Timeout: time.Second},
	}

	client, provider, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, provider)
	assert.IsType(t, &AnthropicClient{}, client)

	cfg.Provider = "openai"
	cfg.OpenAI.APIKey = "k"
	client, _, err = NewClient(context.Background(), cfg)
	require.NoError(t, err)
	_, ok := client.(ModelLister)
	assert.True(t, ok)
}

func TestNewGatewayMissingKey(t *testing.T) {
	cfg := &config.Config{
		Provider: "gemini",
		OpenAI:   config.ProviderConfig{APIKey: "only-openai"},
	}

	_, err := NewGateway(context.Background(), cfg, zaptest.NewLogger(t))
	var cfgErr *engine.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Key)
	assert.Equal(t, "gemini", cfgErr.Provider)
}

func TestNewGatewayWrapsWithRetry(t *testing.T) {
	cfg := &config.Config{
		Provider: "openai",
		OpenAI:   config.ProviderConfig{APIKey: "k", Model: "gpt-3.5-turbo"},
		Chat:     config.ChatConfig{Timeout: 2 * time.Second},
	}

	gw, err := NewGateway(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &engine.RetryingGateway{}, gw)
}

func TestProviderString(t *testing.T) {
	assert.Equal(t, "openai", ProviderOpenAI.String())
	assert.Equal(t, "gemini", ProviderGemini.String())
	assert.Equal(t, "anthropic", ProviderAnthropic.String())
	assert.Equal(t, "provider(9)", Provider(9).String())
}
