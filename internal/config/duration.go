package config

import (
	"fmt"
	"strings"
	"time"
)

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// Durations are the config's duration strings, parsed.
type Durations struct {
	DiscordTimeout  time.Duration
	ArtworkTimeout  time.Duration
	TelegramTimeout time.Duration
	DedupWindow     time.Duration
	WatchDebounce   time.Duration
	BusyTimeout     time.Duration
}

// Durations parses every duration field, applying defaults for empty ones.
func (c *Config) Durations() (Durations, error) {
	var (
		d   Durations
		err error
	)
	if d.DiscordTimeout, err = ParseDurationOrDefault("discord.timeout", c.Discord.Timeout, 15*time.Second); err != nil {
		return d, err
	}
	if d.ArtworkTimeout, err = ParseDurationOrDefault("artwork.timeout", c.Artwork.Timeout, 20*time.Second); err != nil {
		return d, err
	}
	if c.Telegram != nil {
		if d.TelegramTimeout, err = ParseDurationOrDefault("telegram.timeout", c.Telegram.Timeout, 15*time.Second); err != nil {
			return d, err
		}
	}
	if d.DedupWindow, err = ParseDurationOrDefault("dispatch.dedup_window", c.Dispatch.DedupWindow, 30*24*time.Hour); err != nil {
		return d, err
	}
	if d.WatchDebounce, err = ParseDurationOrDefault("watch.debounce", c.Watch.Debounce, 2*time.Second); err != nil {
		return d, err
	}
	if c.Storage != nil {
		if d.BusyTimeout, err = ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return d, err
		}
	}
	return d, nil
}
