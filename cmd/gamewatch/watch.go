package main

import (
	"context"

	"gamewatch/internal/app"
	"gamewatch/internal/watch"
	logx "gamewatch/pkg/logx"

	"github.com/spf13/cobra"
)

func newWatchCmd(f *flags) *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay running and dispatch on a schedule or when the catalog changes",
		Long: `Run gamewatch as a service. A run is triggered by watch.schedule (cron,
"@every 10m", "10m" or an HH:MM interval) and/or, with watch.on_change, by
writes to the current catalog file. Runs never overlap.

Under systemd (Type=notify) READY=1 is sent once triggers are armed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, cfg, logs, log, err := f.load(cmd)
			if err != nil {
				return err
			}
			defer closeLogs(logs)

			dur, err := cfg.Durations()
			if err != nil {
				return usageError{err}
			}
			opt := watch.Options{
				Schedule:   cfg.Watch.Schedule,
				Timezone:   cfg.Watch.Timezone,
				Debounce:   dur.WatchDebounce,
				RunAtStart: now,
			}
			if cfg.Watch.OnChange {
				opt.Files = []string{cfg.Files.Current}
			}
			if cfg.Watch.ReloadConfig && m.Path() != "" {
				opt.ConfigFile = m.Path()
				opt.OnConfigChange = func() {
					// Schedule and watched files are fixed at start; everything
					// a run reads comes from the reloaded config.
					next, changed, err := m.Reload()
					if err == nil && changed && logs != nil {
						logs.Apply(logConfig(next, cmd.ErrOrStderr()))
					}
				}
			}

			run := func(ctx context.Context, reason string) error {
				cur := m.Get()
				a, err := app.New(cur, log)
				if err != nil {
					return err
				}
				defer a.Close()
				out, err := a.Run(ctx)
				if err == nil {
					log.Debug("run outcome",
						logx.String("reason", reason),
						logx.Int("changes", len(out.Changes)),
						logx.Bool("baseline_written", out.BaselineWritten),
					)
				}
				return err
			}

			svc, err := watch.New(opt, run, log)
			if err != nil {
				return usageError{err}
			}
			return svc.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "run once immediately at start")
	return cmd
}

