// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port              string
	DBPath            string
	AdminContact      string
	GenerationWorkers int
	TipBroadcastCron  string
	WeeklyReportCron  string
	ExpiryCleanupCron string
	GoalCheckCron     string
	LLM               LLMConfig
	WhatsApp          WhatsAppConfig
}

// LLMConfig configures the text-generation backend.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// WhatsAppConfig configures the outbound messaging API.
type WhatsAppConfig struct {
	APIURL string
	Number string
	Token  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	workers := getEnvInt("GENERATION_WORKERS", 8)
	if workers <= 0 {
		workers = 8
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DBPath:            getEnv("DB_PATH", "./data/nexifit.db"),
		AdminContact:      getEnv("ADMIN_CONTACT", "admin@nexifit.com"),
		GenerationWorkers: workers,
		TipBroadcastCron:  getEnv("TIP_BROADCAST_CRON", "0 7 * * *"),
		WeeklyReportCron:  getEnv("WEEKLY_REPORT_CRON", "0 9 * * 1"),
		ExpiryCleanupCron: getEnv("EXPIRY_CLEANUP_CRON", "30 3 * * *"),
		GoalCheckCron:     getEnv("GOAL_CHECK_CRON", "0 10 * * *"),
		LLM: LLMConfig{
			BaseURL: getEnv("LLM_BASE_URL", ""),
			APIKey:  getEnv("LLM_API_KEY", ""),
			Model:   getEnv("LLM_MODEL", "gpt-4o-mini"),
			Timeout: getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		WhatsApp: WhatsAppConfig{
			APIURL: getEnv("WHATSAPP_API_URL", ""),
			Number: getEnv("WHATSAPP_NUMBER", "whatsapp:+14155238886"),
			Token:  getEnv("WHATSAPP_TOKEN", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL cannot be empty")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}
	if c.WhatsApp.Number == "" {
		return fmt.Errorf("WHATSAPP_NUMBER cannot be empty")
	}
	if c.GenerationWorkers <= 0 {
		return fmt.Errorf("GENERATION_WORKERS must be > 0")
	}
	return nil
}

// IsDevelopment reports whether the server runs without a messaging
// API, relying on the websocket console instead.
func (c *Config) IsDevelopment() bool {
	return c.WhatsApp.APIURL == ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
