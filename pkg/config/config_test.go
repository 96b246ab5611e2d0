package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"app": {"name": "sahaay"},
		"providers": {
			"openai": {"api_key": "sk-test", "model": "gpt-4o-mini", "enabled": true}
		},
		"stt": {"mode": "scripted", "interval_seconds": 2},
		"knowledge": {"mode": "demo"},
		"browser": {"mode": "sim", "sim_delay_seconds": 1},
		"storage": {"type": "sqlite", "path": "data/test.db", "save_every": 5},
		"gateways": {
			"http": {"enabled": true, "addr": ":7866"},
			"telegram": {"enabled": false}
		}
	}`)

	cfg := LoadConfig(path)

	if cfg.App.Name != "sahaay" {
		t.Errorf("app name = %q", cfg.App.Name)
	}
	if cfg.STT.Mode != "scripted" || cfg.STT.IntervalSeconds != 2 {
		t.Errorf("unexpected stt config %+v", cfg.STT)
	}
	if cfg.Knowledge.Mode != "demo" {
		t.Errorf("knowledge mode = %q", cfg.Knowledge.Mode)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.SaveEvery != 5 {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
	if !cfg.Gateways.HTTP.Enabled || cfg.Gateways.HTTP.Addr != ":7866" {
		t.Errorf("unexpected http gateway config %+v", cfg.Gateways.HTTP)
	}
}

func TestGetDefaultProvider(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"openai":     {APIKey: "sk-a", Enabled: false},
			"openrouter": {APIKey: "sk-b", Model: "gpt-4o", Enabled: true},
		},
	}

	name, p := cfg.GetDefaultProvider()
	if name != "openrouter" {
		t.Errorf("provider = %q, want the enabled one", name)
	}
	if p.Model != "gpt-4o" {
		t.Errorf("model = %q", p.Model)
	}
}

func TestGetDefaultProvider_NoneEnabled(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"openai": {APIKey: "sk-a"},
		},
	}

	if name, _ := cfg.GetDefaultProvider(); name != "" {
		t.Errorf("expected no provider, got %q", name)
	}
}

func TestGetTelegramConfig(t *testing.T) {
	cfg := &Config{}
	if _, ok := cfg.GetTelegramConfig(); ok {
		t.Error("disabled telegram should not be returned")
	}

	cfg.Gateways.Telegram = TelegramConfig{Enabled: true, ChatID: 42}
	if _, ok := cfg.GetTelegramConfig(); ok {
		t.Error("enabled telegram without a token should not be returned")
	}

	cfg.Gateways.Telegram.Token = "123:abc"
	tg, ok := cfg.GetTelegramConfig()
	if !ok || tg.ChatID != 42 {
		t.Errorf("got %+v ok=%v, want enabled config", tg, ok)
	}
}
