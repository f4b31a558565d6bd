package config

// Mode values.
const (
	ModeReport  = "report"
	ModeChanged = "changed"
	ModeNew     = "new"
)

// OnError values.
const (
	OnErrorAbort    = "abort"
	OnErrorContinue = "continue"
)

type Config struct {
	// Mode selects what a run does: report, changed (default) or new.
	Mode string `json:"mode,omitempty"`

	// WebhookURL is the Discord webhook. Overridden by DISCORD_WEBHOOK_URL.
	WebhookURL string `json:"webhook_url,omitempty"`
	// BrandingIconURL is used for the author and footer icons. Overridden by
	// AUTHOR_ICON_URL.
	BrandingIconURL string `json:"branding_icon_url,omitempty"`

	Files    FilesConfig    `json:"files"`
	Detect   DetectConfig   `json:"detect,omitempty"`
	Branding BrandingConfig `json:"branding,omitempty"`
	Discord  DiscordConfig  `json:"discord,omitempty"`
	Dispatch DispatchConfig `json:"dispatch,omitempty"`
	Artwork  ArtworkConfig  `json:"artwork,omitempty"`
	Logging  LoggingConfig  `json:"logging"`
	Watch    WatchConfig    `json:"watch,omitempty"`

	Telegram *TelegramConfig `json:"telegram,omitempty"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
}

type FilesConfig struct {
	Current  string `json:"current"`
	Previous string `json:"previous"`
	// AllowMissingBaseline treats a missing previous file as an empty
	// catalog (first run) instead of an input error.
	AllowMissingBaseline bool `json:"allow_missing_baseline,omitempty"`
}

type DetectConfig struct {
	// Policy is "timestamp" (default) or "whole-record".
	Policy string `json:"policy,omitempty"`
}

// BrandingConfig decorates every notification. Empty fields fall back to
// the defaults in Defaults().
type BrandingConfig struct {
	Username      string `json:"username,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	AuthorName    string `json:"author_name,omitempty"`
	AuthorURL     string `json:"author_url,omitempty"`
	FooterText    string `json:"footer_text,omitempty"`
	FooterIconURL string `json:"footer_icon_url,omitempty"`
	// LinkBase is prefixed to the record id to build the title link.
	LinkBase string `json:"link_base,omitempty"`
	// NSFWText is drawn over obscured artwork.
	NSFWText string `json:"nsfw_text,omitempty"`
}

type DiscordConfig struct {
	ThreadID string `json:"thread_id,omitempty"`
	// Timeout is a Go duration string (e.g. "15s").
	Timeout string `json:"timeout,omitempty"`
}

type DispatchConfig struct {
	// OnError is "abort" (default) or "continue".
	OnError string `json:"on_error,omitempty"`
	// RatePerSec paces sends; 0 disables pacing.
	RatePerSec float64 `json:"rate_per_sec,omitempty"`
	// DedupWindow is how long a delivered revision stays marked in the
	// journal (Go duration string, default "720h"). Needs storage.
	DedupWindow string `json:"dedup_window,omitempty"`
	DryRun      bool   `json:"dry_run,omitempty"`
}

type ArtworkConfig struct {
	Timeout   string  `json:"timeout,omitempty"`
	RetryMax  int     `json:"retry_max,omitempty"`
	MaxBytes  int64   `json:"max_bytes,omitempty"`
	MaxSide   int     `json:"max_side,omitempty"`
	BlurSigma float64 `json:"blur_sigma,omitempty"`
}

// TelegramConfig configures the optional mirror sink.
type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	Token    string `json:"token"`
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
	APIURL   string `json:"api_url,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

// StorageConfig controls the optional delivery journal.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./state/journal.sqlite" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// WatchConfig drives `gamewatch watch`.
type WatchConfig struct {
	// Schedule accepts a cron expression, "@every 10m", a Go duration or a
	// "HH:MM" interval.
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	// OnChange triggers a run when the current dataset file changes.
	OnChange bool `json:"on_change,omitempty"`
	// Debounce delays a file-triggered run until writes settle (default "2s").
	Debounce string `json:"debounce,omitempty"`
	// ReloadConfig re-reads the config file when it changes.
	ReloadConfig bool `json:"reload_config,omitempty"`
}
