package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %s", cfg.OpenAIModel)
	}
	if cfg.ChatRateLimit != 10 {
		t.Errorf("expected default rate limit 10, got %d", cfg.ChatRateLimit)
	}
	if cfg.ChatRateWindow != time.Minute {
		t.Errorf("expected default rate window 1m, got %s", cfg.ChatRateWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("CHAT_RATE_WINDOW", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.OpenAITemperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %f", cfg.OpenAITemperature)
	}
	if cfg.ChatRateWindow != 30*time.Second {
		t.Errorf("expected window 30s, got %s", cfg.ChatRateWindow)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLLMConfigured(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: ""}
	if cfg.LLMConfigured() {
		t.Error("empty key should not count as configured")
	}
	cfg.OpenAIAPIKey = "not-a-key"
	if cfg.LLMConfigured() {
		t.Error("malformed key should not count as configured")
	}
	cfg.OpenAIAPIKey = "sk-test-123"
	if !cfg.LLMConfigured() {
		t.Error("sk- prefixed key should count as configured")
	}
}
