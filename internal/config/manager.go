package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
	"github.com/ChamsBouzaiene/skyfinder/internal/geometry"
)

const (
	configName = "skyfinder"
	configType = "yaml"
)

// DefaultAlienPosition keeps the alien clear of the ISS fallback position.
var DefaultAlienPosition = geometry.Angles{Alpha: 0, Beta: 70}

// DefaultGreeting is the assistant turn that follows the seeded persona.
const DefaultGreeting = "了解しました。国際宇宙ステーション(ISS)の職員として振る舞います。"

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"provider":                "LLM_PROVIDER",
	"port":                    "PORT",
	"openai.api_key":          "OPENAI_API_KEY",
	"openai.model":            "OPENAI_MODEL",
	"openai.base_url":         "OPENAI_BASE_URL",
	"gemini.api_key":          "GEMINI_API_KEY",
	"gemini.model":            "GEMINI_MODEL",
	"gemini.base_url":         "GEMINI_BASE_URL",
	"anthropic.api_key":       "ANTHROPIC_API_KEY",
	"anthropic.model":         "ANTHROPIC_MODEL",
	"anthropic.base_url":      "ANTHROPIC_BASE_URL",
	"personas.station":        "SKYFINDER_STATION_PROMPT",
	"personas.alien":          "SKYFINDER_ALIEN_PROMPT",
	"public_dir":              "SKYFINDER_PUBLIC_DIR",
	"chat.timeout":            "SKYFINDER_CHAT_TIMEOUT",
	"chat.max_output_tokens":  "SKYFINDER_MAX_OUTPUT_TOKENS",
	"chat.history_window":     "SKYFINDER_HISTORY_WINDOW",
	"chat.greeting":           "SKYFINDER_GREETING",
	"align.threshold":         "SKYFINDER_ALIGN_THRESHOLD",
	"targets.alien.alpha":     "SKYFINDER_ALIEN_ALPHA",
	"targets.alien.beta":      "SKYFINDER_ALIEN_BETA",
	"satellite.url":           "SKYFINDER_SATELLITE_URL",
	"satellite.poll_interval": "SKYFINDER_SATELLITE_POLL_INTERVAL",
	"log.level":               "SKYFINDER_LOG_LEVEL",
	"log.development":         "SKYFINDER_LOG_DEVELOPMENT",
}

// Manager resolves a Config from a viper instance.
type Manager struct {
	v          *viper.Viper
	configFile string
}

// NewManager creates a configuration manager. configFile, when set, is
// read instead of searching for skyfinder.yaml.
func NewManager(v *viper.Viper, configFile string) *Manager {
	if v == nil {
		v = viper.New()
	}
	return &Manager{v: v, configFile: configFile}
}

// SetDefaults registers the built-in value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider", "openai")
	v.SetDefault("port", 8080)
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("anthropic.model", "claude-3-haiku-20240307")
	v.SetDefault("personas.station", filepath.Join("personas", "station.md"))
	v.SetDefault("personas.alien", filepath.Join("personas", "alien.md"))
	v.SetDefault("public_dir", "public")
	v.SetDefault("chat.timeout", 30*time.Second)
	v.SetDefault("chat.max_output_tokens", engine.DefaultMaxOutputTokens)
	v.SetDefault("chat.history_window", 10)
	v.SetDefault("chat.greeting", DefaultGreeting)
	v.SetDefault("align.threshold", geometry.DefaultThreshold)
	v.SetDefault("targets.alien.alpha", DefaultAlienPosition.Alpha)
	v.SetDefault("targets.alien.beta", DefaultAlienPosition.Beta)
	v.SetDefault("satellite.url", "http://api.open-notify.org/iss-now.json")
	v.SetDefault("satellite.poll_interval", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads the config file (if any), applies env overrides and
// defaults, and returns the validated result.
func (m *Manager) Load() (*Config, error) {
	SetDefaults(m.v)
	for key, env := range envBindings {
		if err := m.v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := m.readConfigFile(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (m *Manager) readConfigFile() error {
	if m.configFile != "" {
		m.v.SetConfigFile(m.configFile)
		if err := m.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	m.v.SetConfigName(configName)
	m.v.SetConfigType(configType)
	m.v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		m.v.AddConfigPath(filepath.Join(dir, "skyfinder"))
	}

	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// GetConfigPath returns the config file that was read, or "" when the
// settings came from the environment and defaults only.
func (m *Manager) GetConfigPath() string {
	return m.v.ConfigFileUsed()
}
