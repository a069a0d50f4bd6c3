// Package config resolves the server settings from the environment, an
// optional skyfinder.yaml and built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

// Config holds every runtime setting of the server.
type Config struct {
	Provider  string          `mapstructure:"provider"`
	Port      int             `mapstructure:"port"`
	OpenAI    ProviderConfig  `mapstructure:"openai"`
	Gemini    ProviderConfig  `mapstructure:"gemini"`
	Anthropic ProviderConfig  `mapstructure:"anthropic"`
	Personas  PersonaConfig   `mapstructure:"personas"`
	PublicDir string          `mapstructure:"public_dir"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Align     AlignConfig     `mapstructure:"align"`
	Targets   TargetsConfig   `mapstructure:"targets"`
	Satellite SatelliteConfig `mapstructure:"satellite"`
	Log       LogConfig       `mapstructure:"log"`
}

// ProviderConfig is the credential block of one upstream provider.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// PersonaConfig points at the persona template files.
type PersonaConfig struct {
	Station string `mapstructure:"station"`
	Alien   string `mapstructure:"alien"`
}

type ChatConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	HistoryWindow   int           `mapstructure:"history_window"`
	Greeting        string        `mapstructure:"greeting"`
}

type AlignConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

type TargetsConfig struct {
	Alien FixedTarget `mapstructure:"alien"`
}

// FixedTarget is a sky position given directly as angles.
type FixedTarget struct {
	Alpha float64 `mapstructure:"alpha"`
	Beta  float64 `mapstructure:"beta"`
}

type SatelliteConfig struct {
	URL          string        `mapstructure:"url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ProviderSettings returns the credential block and its env var name for the
// named provider. ok is false for unknown names.
func (c *Config) ProviderSettings(name string) (pc ProviderConfig, keyEnv string, ok bool) {
	switch strings.ToLower(name) {
	case "openai":
		return c.OpenAI, "OPENAI_API_KEY", true
	case "gemini":
		return c.Gemini, "GEMINI_API_KEY", true
	case "anthropic":
		return c.Anthropic, "ANTHROPIC_API_KEY", true
	}
	return ProviderConfig{}, "", false
}

// Validate fails fast on settings the server cannot start without. Only
// the selected provider's credential is required.
func (c *Config) Validate() error {
	pc, keyEnv, ok := c.ProviderSettings(c.Provider)
	if !ok {
		return &engine.ConfigError{
			Key: "LLM_PROVIDER",
			Msg: fmt.Sprintf("unknown provider %q (supported: openai, gemini, anthropic)", c.Provider),
		}
	}
	if strings.TrimSpace(pc.APIKey) == "" {
		return &engine.ConfigError{Provider: strings.ToLower(c.Provider), Key: keyEnv}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &engine.ConfigError{Key: "PORT", Msg: fmt.Sprintf("invalid port %d", c.Port)}
	}
	if c.Align.Threshold <= 0 {
		return &engine.ConfigError{Key: "align.threshold", Msg: "must be positive"}
	}
	if c.Chat.Timeout <= 0 {
		return &engine.ConfigError{Key: "chat.timeout", Msg: "must be positive"}
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
