package config

import "strings"

const (
	DefaultAuthorName = "⎝⎝✧GͥOͣDͫ✧⎠⎠"
	DefaultAuthorURL  = "https://digitalzone.vercel.app/games"
	DefaultFooterText = "DigitalZone"
	DefaultLinkBase   = "https://digitalzone.vercel.app/games#"
)

// Defaults returns a config with every optional field filled in.
func Defaults() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills empty optional fields in place.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	setIfEmpty(&cfg.Mode, ModeChanged)
	setIfEmpty(&cfg.Files.Current, "games.json")
	setIfEmpty(&cfg.Files.Previous, "previous_games.json")
	setIfEmpty(&cfg.Detect.Policy, "timestamp")
	setIfEmpty(&cfg.Dispatch.OnError, OnErrorAbort)
	setIfEmpty(&cfg.Dispatch.DedupWindow, "720h")

	b := &cfg.Branding
	setIfEmpty(&b.Username, DefaultAuthorName)
	setIfEmpty(&b.AuthorName, DefaultAuthorName)
	setIfEmpty(&b.AuthorURL, DefaultAuthorURL)
	setIfEmpty(&b.FooterText, DefaultFooterText)
	setIfEmpty(&b.LinkBase, DefaultLinkBase)
	setIfEmpty(&b.NSFWText, "NSFW")

	setIfEmpty(&cfg.Logging.Level, "info")
	setIfEmpty(&cfg.Watch.Debounce, "2s")
}

func setIfEmpty(dst *string, v string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = v
	}
}

// IconURL returns the branding icon used for author and footer.
func (c *Config) IconURL() string {
	return strings.TrimSpace(c.BrandingIconURL)
}
