package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.GenerationWorkers != 8 {
		t.Errorf("Expected default 8 workers, got %d", cfg.GenerationWorkers)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("Expected default model, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Errorf("Expected default 60s timeout, got %v", cfg.LLM.Timeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GENERATION_WORKERS", "4")
	t.Setenv("LLM_TIMEOUT", "30s")
	t.Setenv("TIP_BROADCAST_CRON", "0 8 * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.GenerationWorkers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.GenerationWorkers)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.LLM.Timeout)
	}
	if cfg.TipBroadcastCron != "0 8 * * *" {
		t.Errorf("Expected cron override, got %s", cfg.TipBroadcastCron)
	}
}

func TestLoad_InvalidWorkerCountFallsBack(t *testing.T) {
	t.Setenv("GENERATION_WORKERS", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GenerationWorkers != 8 {
		t.Errorf("Expected fallback to 8 workers, got %d", cfg.GenerationWorkers)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Port:              "8080",
		DBPath:            "./data/test.db",
		GenerationWorkers: 8,
		LLM:               LLMConfig{Model: "gpt-4o-mini", Timeout: time.Minute},
		WhatsApp:          WhatsAppConfig{Number: "whatsapp:+1"},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	broken := valid
	broken.DBPath = ""
	if err := broken.Validate(); err == nil {
		t.Error("Expected error for empty DB_PATH")
	}

	broken = valid
	broken.LLM.Timeout = 0
	if err := broken.Validate(); err == nil {
		t.Error("Expected error for zero timeout")
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := Config{}
	if !cfg.IsDevelopment() {
		t.Error("Expected dev mode without a messaging API URL")
	}
	cfg.WhatsApp.APIURL = "https://api.example.com"
	if cfg.IsDevelopment() {
		t.Error("Expected production mode with a messaging API URL")
	}
}
