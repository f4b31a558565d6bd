package config

import (
	"os"
	"strings"
)

// Environment variables that override file values.
const (
	EnvWebhookURL = "DISCORD_WEBHOOK_URL"
	EnvIconURL    = "AUTHOR_ICON_URL"
	EnvMode       = "GAMEWATCH_MODE"
)

// ApplyEnv overrides config values from the environment. Unset or blank
// variables leave the file value alone.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg == nil {
		return
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvWebhookURL)); v != "" {
		cfg.WebhookURL = v
	}
	if v := strings.TrimSpace(getenv(EnvIconURL)); v != "" {
		cfg.BrandingIconURL = v
	}
	if v := strings.TrimSpace(getenv(EnvMode)); v != "" {
		cfg.Mode = strings.ToLower(v)
	}
}
