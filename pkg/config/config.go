package config

import (
	"encoding/json"
	"log"
	"os"
)

type Config struct {
	App       AppConfig                 `json:"app"`
	Providers map[string]ProviderConfig `json:"providers"`
	STT       STTConfig                 `json:"stt"`
	Knowledge KnowledgeConfig           `json:"knowledge"`
	Browser   BrowserConfig             `json:"browser"`
	Storage   StorageConfig             `json:"storage"`
	Gateways  GatewaysConfig            `json:"gateways"`
}

type AppConfig struct {
	Name             string `json:"name"`
	SystemPromptPath string `json:"system_prompt_path,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	Enabled bool   `json:"enabled"`
}

// STTConfig selects the transcription source. Mode is "scripted" or
// "assemblyai"; the choice is always explicit, never inferred from which
// credentials happen to be present.
type STTConfig struct {
	Mode            string `json:"mode"`
	APIKey          string `json:"api_key,omitempty"`
	SampleRate      int    `json:"sample_rate,omitempty"`
	IntervalSeconds int    `json:"interval_seconds,omitempty"`
}

// KnowledgeConfig selects the lookup resolver: "local" (JSON knowledge base
// + policies file), "demo" (built-in sample data) or "web" (DuckDuckGo).
type KnowledgeConfig struct {
	Mode         string `json:"mode"`
	BasePath     string `json:"base_path,omitempty"`
	PoliciesPath string `json:"policies_path,omitempty"`
}

// BrowserConfig selects the action resolver: "sim" or "live".
type BrowserConfig struct {
	Mode            string `json:"mode"`
	PortalURL       string `json:"portal_url,omitempty"`
	InputSelector   string `json:"input_selector,omitempty"`
	SubmitSelector  string `json:"submit_selector,omitempty"`
	Headless        bool   `json:"headless,omitempty"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty"`
	ScreenshotDir   string `json:"screenshot_dir,omitempty"`
	SimDelaySeconds int    `json:"sim_delay_seconds,omitempty"`
}

// StorageConfig selects the transcript archiver. Type is "sqlite", "file"
// or "none". SaveEvery is the append interval between auto-saves.
type StorageConfig struct {
	Type      string `json:"type"`
	Path      string `json:"path,omitempty"`
	SaveEvery int    `json:"save_every,omitempty"`
}

type GatewaysConfig struct {
	HTTP     HTTPConfig     `json:"http"`
	Telegram TelegramConfig `json:"telegram"`
}

type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  int64  `json:"chat_id,omitempty"`
}

func LoadConfig(path string) *Config {
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer file.Close()

	var cfg Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config file: %v", err)
	}

	return &cfg
}

// GetDefaultProvider returns the first enabled provider
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (TelegramConfig, bool) {
	tg := c.Gateways.Telegram
	if tg.Enabled && tg.Token != "" {
		return tg, true
	}
	return TelegramConfig{}, false
}
