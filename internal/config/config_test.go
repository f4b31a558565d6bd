package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadYAMLWithDefaults(t *testing.T) {
	p := writeFile(t, "gamewatch.yaml", `
webhook_url: https://discord.com/api/webhooks/1/abc
files:
  current: data/games.json
  previous: data/previous.json
storage:
  driver: sqlite
  path: state/journal.sqlite
`)
	m := NewConfigManager(p)
	m.SetEnv(noEnv)
	cfg, err := m.Load()
	require.NoError(t, err)

	assert.Equal(t, ModeChanged, cfg.Mode)
	assert.Equal(t, "data/games.json", cfg.Files.Current)
	assert.Equal(t, OnErrorAbort, cfg.Dispatch.OnError)
	assert.Equal(t, "timestamp", cfg.Detect.Policy)
	assert.Equal(t, DefaultFooterText, cfg.Branding.FooterText)
	assert.Equal(t, DefaultLinkBase, cfg.Branding.LinkBase)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Same(t, cfg, m.Get())

	d, err := cfg.Durations()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, d.DiscordTimeout)
	assert.Equal(t, 720*time.Hour, d.DedupWindow)
}

func TestUnknownFieldRejected(t *testing.T) {
	p := writeFile(t, "c.json", `{"webhook_url":"https://x.test/h","colour":"red"}`)
	m := NewConfigManager(p)
	m.SetEnv(noEnv)
	_, err := m.Load()
	assert.ErrorContains(t, err, "colour")

	p = writeFile(t, "c.json", `{"mode":"report"}{"mode":"new"}`)
	_, err = NewConfigManager(p).Parse()
	assert.ErrorContains(t, err, "trailing data")
}

func TestEnvAndOverrideLayering(t *testing.T) {
	p := writeFile(t, "c.json", `{"mode":"new","webhook_url":"https://file.test/h"}`)
	env := map[string]string{
		EnvWebhookURL: "https://env.test/h",
		EnvIconURL:    "https://cdn.test/icon.png",
		EnvMode:       "REPORT",
	}
	m := NewConfigManager(p)
	m.SetEnv(func(k string) string { return env[k] })
	cfg, err := m.Parse()
	require.NoError(t, err)
	assert.Equal(t, "https://env.test/h", cfg.WebhookURL)
	assert.Equal(t, "https://cdn.test/icon.png", cfg.IconURL())
	assert.Equal(t, ModeReport, cfg.Mode)

	m.SetOverride(func(c *Config) { c.Mode = ModeNew })
	cfg, err = m.Parse()
	require.NoError(t, err)
	assert.Equal(t, ModeNew, cfg.Mode)
}

func TestEnvOnlyWithoutFile(t *testing.T) {
	m := NewConfigManager("")
	m.SetEnv(func(k string) string {
		if k == EnvWebhookURL {
			return "https://discord.com/api/webhooks/1/abc"
		}
		return ""
	})
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "games.json", cfg.Files.Current)
	assert.Equal(t, "previous_games.json", cfg.Files.Previous)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	err := Validate(cfg)
	assert.ErrorContains(t, err, "webhook_url: required")

	cfg.Mode = ModeReport
	assert.NoError(t, Validate(cfg))

	cfg = Defaults()
	cfg.WebhookURL = "ftp://nope"
	cfg.Mode = "loud"
	cfg.Dispatch.OnError = "retry"
	cfg.Detect.Policy = "fuzzy"
	cfg.Discord.Timeout = "soon"
	cfg.Telegram = &TelegramConfig{Enabled: true}
	cfg.Storage = &StorageConfig{Driver: "file"}
	err = Validate(cfg)
	require.Error(t, err)
	for _, want := range []string{
		"mode: unknown value",
		"webhook_url: not an http(s) url",
		"dispatch.on_error",
		"detect.policy",
		"discord.timeout",
		"telegram.token",
		"telegram.chat_id",
		"storage.path",
	} {
		assert.ErrorContains(t, err, want)
	}
	assert.NotContains(t, err.Error(), "ftp://nope")

	cfg = Defaults()
	cfg.Dispatch.DryRun = true
	assert.NoError(t, Validate(cfg), "dry run needs no webhook")
}

func TestReload(t *testing.T) {
	p := writeFile(t, "c.yml", "mode: report\n")
	m := NewConfigManager(p)
	m.SetEnv(noEnv)
	first, err := m.Load()
	require.NoError(t, err)

	_, changed, err := m.Reload()
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(p, []byte("mode: nonsense\n"), 0o600))
	cur, changed, err := m.Reload()
	require.Error(t, err)
	assert.False(t, changed)
	assert.Same(t, first, cur)

	require.NoError(t, os.WriteFile(p, []byte("mode: report\nwatch:\n  schedule: \"@every 5m\"\n"), 0o600))
	cur, changed, err = m.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "@every 5m", cur.Watch.Schedule)
}

func TestSummarizeConfigChange(t *testing.T) {
	a := Defaults()
	b := Defaults()
	b.WebhookURL = "https://discord.com/api/webhooks/1/secret"
	b.Telegram = &TelegramConfig{Enabled: true, Token: "123:secret", ChatID: 5}
	b.Dispatch.OnError = OnErrorContinue

	sections, attrs := SummarizeConfigChange(a, b)
	assert.Equal(t, []string{"dispatch", "telegram", "webhook"}, sections)
	assert.NotEmpty(t, attrs)

	sections, _ = SummarizeConfigChange(a, Defaults())
	assert.Empty(t, sections)
}

func TestEmptyYAML(t *testing.T) {
	p := writeFile(t, "c.yaml", "\n")
	m := NewConfigManager(p)
	m.SetEnv(noEnv)
	cfg, err := m.Parse()
	require.NoError(t, err)
	assert.Equal(t, ModeChanged, cfg.Mode)
}
