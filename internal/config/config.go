package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultModel             = "gpt-5-mini"
	DefaultMaxTokens         = 4096
	DefaultMaxToolIterations = 20
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 8200
	DefaultBufSize           = 100
	DefaultPeriodicExpr      = "0 0 * * * *" // hourly, on the hour
	DefaultSummaryLang       = "en"

	// DefaultCollaboratorTimeoutSec bounds each weather/calendar/geofence
	// query during context assembly.
	DefaultCollaboratorTimeoutSec = 5
	// DefaultDecisionTimeoutSec is the orchestrator watchdog around the
	// external decision step.
	DefaultDecisionTimeoutSec = 120
)

type Config struct {
	Agent    AgentConfig    `json:"agent"`
	Provider ProviderConfig `json:"provider"`
	Chat     ChatConfig     `json:"chat"`
	Backends BackendsConfig `json:"backends"`
	Home     HomeConfig     `json:"home"`
	Gateway  GatewayConfig  `json:"gateway"`
	Trigger  TriggerConfig  `json:"trigger"`
}

type AgentConfig struct {
	Model              string `json:"model"`
	MaxTokens          int    `json:"maxTokens"`
	MaxToolIterations  int    `json:"maxToolIterations"`
	DecisionTimeoutSec int    `json:"decisionTimeoutSec,omitempty"`
}

type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "openai" (default) or "anthropic"
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// ChatConfig describes the single chat room this process serves.
type ChatConfig struct {
	Enabled        bool   `json:"enabled"`
	TelegramToken  string `json:"telegramToken"`
	RoomID         string `json:"roomId"`
	SystemUsername string `json:"systemUsername,omitempty"`
}

// BackendsConfig holds the two MCP endpoints. Either may be empty; the
// adapter and decision step degrade instead of failing startup.
type BackendsConfig struct {
	MemoryURL string `json:"memoryUrl,omitempty"`
	MiscURL   string `json:"miscUrl,omitempty"`
}

// HomeConfig points at the Home Assistant instance used for weather,
// calendar and geofence context.
type HomeConfig struct {
	BaseURL        string `json:"baseUrl,omitempty"`
	Token          string `json:"token,omitempty"`
	WeatherEntity  string `json:"weatherEntity,omitempty"`
	CalendarEntity string `json:"calendarEntity,omitempty"`
	PersonEntity   string `json:"personEntity,omitempty"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type TriggerConfig struct {
	PeriodicEnabled bool   `json:"periodicEnabled"`
	PeriodicExpr    string `json:"periodicExpr,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Model:              DefaultModel,
			MaxTokens:          DefaultMaxTokens,
			MaxToolIterations:  DefaultMaxToolIterations,
			DecisionTimeoutSec: DefaultDecisionTimeoutSec,
		},
		Provider: ProviderConfig{Type: "openai"},
		Chat:     ChatConfig{},
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Trigger: TriggerConfig{
			PeriodicEnabled: true,
			PeriodicExpr:    DefaultPeriodicExpr,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".ha-ai-tasker")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(ConfigPath())
}

func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if key := os.Getenv("TASKER_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = "openai"
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		cfg.Provider.Type = "anthropic"
	}
	if url := os.Getenv("TASKER_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if url := os.Getenv("MCP_SERVER_URL_MEMORY"); url != "" {
		cfg.Backends.MemoryURL = url
	}
	if url := os.Getenv("MCP_SERVER_URL_MISC"); url != "" {
		cfg.Backends.MiscURL = url
	}
	if token := os.Getenv("TASKER_TELEGRAM_TOKEN"); token != "" {
		cfg.Chat.TelegramToken = token
		cfg.Chat.Enabled = true
	}
	if room := os.Getenv("TASKER_ROOM_ID"); room != "" {
		cfg.Chat.RoomID = room
	}
	if user := os.Getenv("TASKER_SYSTEM_USERNAME"); user != "" {
		cfg.Chat.SystemUsername = user
	}
	if url := os.Getenv("HOMEASSISTANT_URL"); url != "" {
		cfg.Home.BaseURL = url
	}
	if token := os.Getenv("HOMEASSISTANT_TOKEN"); token != "" {
		cfg.Home.Token = token
	}
	if model := os.Getenv("TASKER_MODEL"); model != "" {
		cfg.Agent.Model = model
	}
	if port := os.Getenv("TASKER_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Gateway.Port = parsed
		}
	}
	if expr := os.Getenv("TASKER_PERIODIC_EXPR"); expr != "" {
		cfg.Trigger.PeriodicExpr = expr
	}

	if cfg.Agent.Model == "" {
		cfg.Agent.Model = DefaultModel
	}
	if cfg.Agent.MaxTokens <= 0 {
		cfg.Agent.MaxTokens = DefaultMaxTokens
	}
	if cfg.Agent.MaxToolIterations <= 0 {
		cfg.Agent.MaxToolIterations = DefaultMaxToolIterations
	}
	if cfg.Agent.DecisionTimeoutSec <= 0 {
		cfg.Agent.DecisionTimeoutSec = DefaultDecisionTimeoutSec
	}
	if cfg.Trigger.PeriodicExpr == "" {
		cfg.Trigger.PeriodicExpr = DefaultPeriodicExpr
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
