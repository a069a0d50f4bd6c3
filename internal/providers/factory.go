package providers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/skyfinder/internal/config"
	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

// Provider names an upstream chat service.
type Provider int

const (
	ProviderOpenAI Provider = iota
	ProviderGemini
	ProviderAnthropic
)

func (p Provider) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderGemini:
		return "gemini"
	case ProviderAnthropic:
		return "anthropic"
	default:
		return fmt.Sprintf("provider(%d)", int(p))
	}
}

// ParseProvider maps a config value onto a Provider.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "openai":
		return ProviderOpenAI, nil
	case "gemini":
		return ProviderGemini, nil
	case "anthropic":
		return ProviderAnthropic, nil
	}
	return 0, &engine.ConfigError{
		Key: "LLM_PROVIDER",
		Msg: fmt.Sprintf("unknown provider %q (supported: openai, gemini, anthropic)", s),
	}
}

// ModelLister is implemented by adapters that can enumerate upstream models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// NewClient builds the bare adapter for the configured provider. A missing
// credential is a ConfigError.
func NewClient(ctx context.Context, cfg *config.Config) (engine.Gateway, Provider, error) {
	provider, err := ParseProvider(cfg.Provider)
	if err != nil {
		return nil, 0, err
	}

	pc, keyEnv, _ := cfg.ProviderSettings(provider.String())
	if strings.TrimSpace(pc.APIKey) == "" {
		return nil, provider, &engine.ConfigError{Provider: provider.String(), Key: keyEnv}
	}

	opts := engine.ChatOptions{Model: pc.Model, MaxOutputTokens: cfg.Chat.MaxOutputTokens}

	switch provider {
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, pc.APIKey, pc.BaseURL, opts)
		if err != nil {
			return nil, provider, err
		}
		return client, provider, nil
	case ProviderAnthropic:
		return NewAnthropicClient(pc.APIKey, pc.BaseURL, opts), provider, nil
	default:
		return NewOpenAIClient(pc.APIKey, pc.BaseURL, opts), provider, nil
	}
}

// NewGateway builds the configured adapter wrapped with the per-attempt
// timeout and single retry used for every chat turn.
func NewGateway(ctx context.Context, cfg *config.Config, logger *zap.Logger) (engine.Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, provider, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	policy := engine.DefaultRetryPolicy()
	if cfg.Chat.Timeout > 0 {
		policy.AttemptTimeout = cfg.Chat.Timeout
	}

	logger.Info("chat provider selected",
		zap.String("provider", provider.String()),
		zap.Duration("attempt_timeout", policy.AttemptTimeout))

	return engine.NewRetryingGateway(client, policy, logger.Named("gateway")), nil
}
