package config

import (
	"reflect"
	"sort"
	"strings"

	logx "gamewatch/pkg/logx"
)

// SummarizeConfigChange returns the sections that differ and safe structured
// attrs for logging. Secrets (webhook url, telegram token) are never logged,
// only whether they are set or changed.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 8)
	attrs := make([]logx.Field, 0, 16)

	if oldCfg.Mode != newCfg.Mode {
		changed = append(changed, "mode")
		attrs = append(attrs, logx.String("mode", newCfg.Mode))
	}
	if strings.TrimSpace(oldCfg.WebhookURL) != strings.TrimSpace(newCfg.WebhookURL) {
		changed = append(changed, "webhook")
		attrs = append(attrs, logx.Bool("webhook.set", strings.TrimSpace(newCfg.WebhookURL) != ""))
	}
	if oldCfg.Files != newCfg.Files {
		changed = append(changed, "files")
		attrs = append(attrs,
			logx.String("files.current", newCfg.Files.Current),
			logx.String("files.previous", newCfg.Files.Previous),
			logx.Bool("files.allow_missing_baseline", newCfg.Files.AllowMissingBaseline),
		)
	}
	if oldCfg.Detect != newCfg.Detect {
		changed = append(changed, "detect")
		attrs = append(attrs, logx.String("detect.policy", newCfg.Detect.Policy))
	}
	if oldCfg.Branding != newCfg.Branding || oldCfg.BrandingIconURL != newCfg.BrandingIconURL {
		changed = append(changed, "branding")
	}
	if oldCfg.Discord != newCfg.Discord {
		changed = append(changed, "discord")
		attrs = append(attrs, logx.Bool("discord.thread_set", newCfg.Discord.ThreadID != ""))
	}
	if oldCfg.Dispatch != newCfg.Dispatch {
		changed = append(changed, "dispatch")
		attrs = append(attrs,
			logx.String("dispatch.on_error", newCfg.Dispatch.OnError),
			logx.Any("dispatch.rate_per_sec", newCfg.Dispatch.RatePerSec),
			logx.Bool("dispatch.dry_run", newCfg.Dispatch.DryRun),
		)
	}
	if oldCfg.Artwork != newCfg.Artwork {
		changed = append(changed, "artwork")
	}
	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}
	if oldCfg.Watch != newCfg.Watch {
		changed = append(changed, "watch")
		attrs = append(attrs,
			logx.String("watch.schedule", newCfg.Watch.Schedule),
			logx.Bool("watch.on_change", newCfg.Watch.OnChange),
		)
	}

	// Telegram (never log token)
	oT, nT := derefTelegram(oldCfg.Telegram), derefTelegram(newCfg.Telegram)
	if !reflect.DeepEqual(oT, nT) {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.enabled", nT.Enabled),
			logx.Bool("telegram.token_set", strings.TrimSpace(nT.Token) != ""),
			logx.Int64("telegram.chat_id", nT.ChatID),
		)
	}

	// Storage: nil means disabled.
	oS, nS := derefStorage(oldCfg.Storage), derefStorage(newCfg.Storage)
	if oS != nS {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(nS.Driver)),
			logx.Bool("storage.path_set", strings.TrimSpace(nS.Path) != ""),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

func derefTelegram(t *TelegramConfig) TelegramConfig {
	if t == nil {
		return TelegramConfig{}
	}
	return *t
}

func derefStorage(s *StorageConfig) StorageConfig {
	if s == nil {
		return StorageConfig{}
	}
	return *s
}
