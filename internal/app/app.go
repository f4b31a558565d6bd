// Package app runs one detection and notification pass.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"gamewatch/internal/artwork"
	"gamewatch/internal/catalog"
	"gamewatch/internal/changes"
	"gamewatch/internal/config"
	"gamewatch/internal/notifier"
	"gamewatch/internal/storage"
	"gamewatch/internal/transport"
	"gamewatch/internal/transport/discord"
	"gamewatch/internal/transport/telegram"
	logx "gamewatch/pkg/logx"
)

// NoChangesMessage is printed when the snapshots match.
const NoChangesMessage = "No changes detected."

type App struct {
	cfg    *config.Config
	log    logx.Logger
	stdout io.Writer

	detector changes.Detector
	disp     *notifier.Dispatcher
	store    storage.Store
}

type Option func(*App)

// WithStdout redirects user-facing output (report lines, "No changes").
func WithStdout(w io.Writer) Option { return func(a *App) { a.stdout = w } }

// New wires sinks, artwork and the journal from a validated config.
// Callers must Close the App.
func New(cfg *config.Config, log logx.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &App{cfg: cfg, log: log.With(logx.String("comp", "app")), stdout: os.Stdout}
	for _, o := range opts {
		o(a)
	}

	policy, err := changes.ParsePolicy(cfg.Detect.Policy)
	if err != nil {
		return nil, err
	}
	a.detector = changes.Detector{Policy: policy}

	if cfg.Mode == config.ModeReport {
		return a, nil
	}
	if err := a.wireDispatcher(log); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wireDispatcher(log logx.Logger) error {
	cfg := a.cfg
	dur, err := cfg.Durations()
	if err != nil {
		return err
	}
	onError, err := notifier.ParseErrorPolicy(cfg.Dispatch.OnError)
	if err != nil {
		return err
	}

	var primary transport.Sink
	if cfg.WebhookURL != "" || !cfg.Dispatch.DryRun {
		wh, err := discord.New(discord.Config{
			WebhookURL: cfg.WebhookURL,
			ThreadID:   cfg.Discord.ThreadID,
			Timeout:    dur.DiscordTimeout,
		}, log.With(logx.String("comp", "discord")))
		if err != nil {
			return err
		}
		primary = wh
	}

	var mirrors []transport.Sink
	if t := cfg.Telegram; t != nil && t.Enabled {
		m, err := telegram.New(telegram.Config{
			Token:    t.Token,
			ChatID:   t.ChatID,
			ThreadID: t.ThreadID,
			APIURL:   t.APIURL,
			Timeout:  dur.TelegramTimeout,
		}, log.With(logx.String("comp", "telegram")))
		if err != nil {
			return err
		}
		mirrors = append(mirrors, m)
	}

	if sc, ok, err := mapStorageConfig(cfg); err != nil {
		return err
	} else if ok {
		if a.store, err = storage.Open(sc, log); err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
	}

	art := artwork.NewService(
		artwork.NewFetcher(artwork.FetchConfig{
			Timeout:  dur.ArtworkTimeout,
			RetryMax: cfg.Artwork.RetryMax,
			MaxBytes: cfg.Artwork.MaxBytes,
		}),
		artwork.ObscureOptions{
			Text:    cfg.Branding.NSFWText,
			MaxSide: cfg.Artwork.MaxSide,
			Sigma:   cfg.Artwork.BlurSigma,
		},
	)

	a.disp = notifier.New(notifier.Config{
		Branding:    branding(cfg),
		OnError:     onError,
		RatePerSec:  cfg.Dispatch.RatePerSec,
		DedupWindow: dur.DedupWindow,
		Policy:      a.detector.Policy,
		DryRun:      cfg.Dispatch.DryRun,
	}, primary, art, a.store, log, mirrors...)
	return nil
}

func branding(cfg *config.Config) notifier.Branding {
	b := cfg.Branding
	icon := cfg.IconURL()
	return notifier.Branding{
		Username:      b.Username,
		AvatarURL:     firstNonEmpty(b.AvatarURL, icon),
		AuthorName:    b.AuthorName,
		AuthorURL:     b.AuthorURL,
		AuthorIconURL: icon,
		FooterText:    b.FooterText,
		FooterIconURL: firstNonEmpty(b.FooterIconURL, icon),
		LinkBase:      b.LinkBase,
		NSFWText:      b.NSFWText,
	}
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// Diff loads both snapshots and returns what the configured mode would
// dispatch. Nothing is sent or written.
func (a *App) Diff(ctx context.Context) (changes.ChangeSet, error) {
	cs, _, err := a.detect(ctx)
	return cs, err
}

// Run performs one pass. The baseline is replaced only when every record
// was delivered (skips and duplicates count as delivered); report mode and
// dry runs never touch it.
func (a *App) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{Mode: a.cfg.Mode, Policy: a.detector.Policy}
	a.log.Info("run start",
		logx.String("mode", out.Mode),
		logx.String("policy", out.Policy.String()),
		logx.String("current", a.cfg.Files.Current),
		logx.String("previous", a.cfg.Files.Previous),
	)

	cs, raw, err := a.detect(ctx)
	if err != nil {
		return out, err
	}
	out.Changes = cs

	if len(cs) == 0 {
		fmt.Fprintln(a.stdout, NoChangesMessage)
		a.log.Info("no changes")
		return out, nil
	}
	a.log.Info("changes detected",
		logx.Int("new", cs.Count(changes.KindNew)),
		logx.Int("changed", cs.Count(changes.KindChanged)),
	)

	if a.cfg.Mode == config.ModeReport {
		for _, r := range cs.Records() {
			fmt.Fprintf(a.stdout, "%d %s\n", utf8.RuneCountInString(r.Name), r.Name)
		}
		return out, nil
	}

	out.Report, err = a.disp.Dispatch(ctx, cs)
	if err != nil {
		a.log.Warn("baseline kept; run had delivery failures", logx.Int("failed", out.Report.Failed()))
		return out, err
	}
	if a.cfg.Dispatch.DryRun {
		return out, nil
	}

	if err := catalog.WriteFileAtomic(a.cfg.Files.Previous, raw); err != nil {
		return out, fmt.Errorf("write baseline: %w", err)
	}
	out.BaselineWritten = true
	a.log.Info("baseline updated", logx.String("path", a.cfg.Files.Previous))
	return out, nil
}

// detect returns the ChangeSet and the raw bytes of the current snapshot,
// which become the next baseline verbatim.
func (a *App) detect(ctx context.Context) (changes.ChangeSet, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	raw, err := os.ReadFile(a.cfg.Files.Current)
	if err != nil {
		return nil, nil, fmt.Errorf("load current: %w", err)
	}
	current, err := catalog.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("load current %s: %w", a.cfg.Files.Current, err)
	}

	var previous catalog.Dataset
	if a.cfg.Files.AllowMissingBaseline {
		var found bool
		previous, found, err = catalog.LoadOptional(a.cfg.Files.Previous)
		if err == nil && !found {
			a.log.Warn("baseline missing; treating every record as new", logx.String("path", a.cfg.Files.Previous))
		}
	} else {
		previous, err = catalog.Load(a.cfg.Files.Previous)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load previous: %w", err)
	}

	if a.cfg.Mode == config.ModeNew {
		return a.detector.DetectNewOnly(current, previous), raw, nil
	}
	return a.detector.Detect(current, previous), raw, nil
}
