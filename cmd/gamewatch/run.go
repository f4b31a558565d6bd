package main

import (
	"gamewatch/internal/app"
	logx "gamewatch/pkg/logx"

	"github.com/spf13/cobra"
)

func newRunCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Detect changes once and dispatch them",
		Long: `Load both catalogs, detect changes and act on the configured mode:

  report   print the name length and name of every changed game
  changed  post every new or updated game (default)
  new      post only games missing from the baseline

The baseline is replaced with the current catalog only when every post
succeeded. "No changes detected." exits 0.`,
		Example: `  DISCORD_WEBHOOK_URL=https://discord.com/api/webhooks/... gamewatch run
  gamewatch run --config gamewatch.yaml --mode new
  gamewatch run --mode report`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, logs, log, err := f.load(cmd)
			if err != nil {
				return err
			}
			defer closeLogs(logs)

			a, err := app.New(cfg, log, app.WithStdout(cmd.OutOrStdout()))
			if err != nil {
				return usageError{err}
			}
			defer a.Close()

			out, err := a.Run(cmd.Context())
			if err != nil {
				log.Error("run failed", logx.Err(err))
				return err
			}
			if !out.NoChanges() && out.Report.Skipped() > 0 {
				log.Warn("some records were skipped", logx.Int("skipped", out.Report.Skipped()))
			}
			return nil
		},
	}
}
