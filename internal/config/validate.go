package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gamewatch/internal/changes"
)

// Validate checks a config after defaults, env and flags were applied.
// All problems are reported together.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	switch cfg.Mode {
	case ModeReport, ModeChanged, ModeNew:
	default:
		add("mode: unknown value %q (use report, changed or new)", cfg.Mode)
	}
	if cfg.Mode != ModeReport && !cfg.Dispatch.DryRun {
		if strings.TrimSpace(cfg.WebhookURL) == "" {
			add("webhook_url: required unless mode is report (or set %s)", EnvWebhookURL)
		} else if err := checkURL(cfg.WebhookURL); err != nil {
			add("webhook_url: %v", err)
		}
	}
	for name, v := range map[string]string{
		"branding_icon_url":        cfg.BrandingIconURL,
		"branding.avatar_url":      cfg.Branding.AvatarURL,
		"branding.author_url":      cfg.Branding.AuthorURL,
		"branding.footer_icon_url": cfg.Branding.FooterIconURL,
	} {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if err := checkURL(v); err != nil {
			add("%s: %v", name, err)
		}
	}
	if strings.TrimSpace(cfg.Files.Current) == "" {
		add("files.current: required")
	}
	if strings.TrimSpace(cfg.Files.Previous) == "" {
		add("files.previous: required")
	}
	if _, err := changes.ParsePolicy(cfg.Detect.Policy); err != nil {
		add("detect.policy: %v", err)
	}
	switch cfg.Dispatch.OnError {
	case OnErrorAbort, OnErrorContinue:
	default:
		add("dispatch.on_error: unknown value %q (use abort or continue)", cfg.Dispatch.OnError)
	}
	if cfg.Dispatch.RatePerSec < 0 {
		add("dispatch.rate_per_sec: must be >= 0")
	}
	for path, raw := range map[string]string{
		"discord.timeout":       cfg.Discord.Timeout,
		"dispatch.dedup_window": cfg.Dispatch.DedupWindow,
		"artwork.timeout":       cfg.Artwork.Timeout,
		"watch.debounce":        cfg.Watch.Debounce,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.Artwork.RetryMax < 0 {
		add("artwork.retry_max: must be >= 0")
	}
	if t := cfg.Telegram; t != nil && t.Enabled {
		if strings.TrimSpace(t.Token) == "" {
			add("telegram.token: required when telegram.enabled")
		}
		if t.ChatID == 0 {
			add("telegram.chat_id: required when telegram.enabled")
		}
		if _, err := ParseDurationField("telegram.timeout", t.Timeout); err != nil {
			errs = append(errs, err)
		}
	}
	if s := cfg.Storage; s != nil {
		switch strings.ToLower(strings.TrimSpace(s.Driver)) {
		case "", "none":
		case "file", "sqlite", "sqlite3":
			if strings.TrimSpace(s.Path) == "" {
				add("storage.path: required for driver %q", s.Driver)
			}
		default:
			add("storage.driver: unknown value %q", s.Driver)
		}
		if _, err := ParseDurationField("storage.busy_timeout", s.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("not an http(s) url")
	}
	return nil
}
