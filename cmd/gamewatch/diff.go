package main

import (
	"encoding/json"

	"gamewatch/internal/app"
	"gamewatch/internal/changes"
	"gamewatch/internal/config"

	"github.com/spf13/cobra"
)

func newDiffCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Print the detected changes as JSON without sending anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// diff never sends, so it needs no webhook.
			if !cmd.Flags().Changed("mode") {
				_ = cmd.Flags().Set("mode", config.ModeReport)
			}
			_ = cmd.Flags().Set("dry-run", "true")
			_, cfg, logs, log, err := f.load(cmd)
			if err != nil {
				return err
			}
			defer closeLogs(logs)

			a, err := app.New(cfg, log)
			if err != nil {
				return usageError{err}
			}
			defer a.Close()

			cs, err := a.Diff(cmd.Context())
			if err != nil {
				return err
			}
			if cs == nil {
				cs = changes.ChangeSet{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cs)
		},
	}
}
