package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gamewatch/internal/config"
	logx "gamewatch/pkg/logx"

	"github.com/spf13/cobra"
)

// flags holds values shared by all subcommands. Only flags the user set
// override the config file.
type flags struct {
	configPath string
	mode       string
	current    string
	previous   string
	onError    string
	policy     string
	logLevel   string
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "gamewatch",
		Short: "Detect game catalog changes and notify a Discord webhook",
		Long: `gamewatch compares the current game catalog with the previous baseline
and posts one Discord embed per new or updated game.

Configuration is read from --config (JSON or YAML), then overridden by
DISCORD_WEBHOOK_URL, AUTHOR_ICON_URL and GAMEWATCH_MODE, then by flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "config file (.json, .yaml or .yml)")
	pf.StringVar(&f.mode, "mode", "", "report, changed or new")
	pf.StringVar(&f.current, "current", "", "current catalog file")
	pf.StringVar(&f.previous, "previous", "", "baseline catalog file")
	pf.StringVar(&f.onError, "on-error", "", "abort or continue after a failed delivery")
	pf.StringVar(&f.policy, "policy", "", "change policy: timestamp or whole-record")
	pf.StringVar(&f.logLevel, "log-level", "", "trace, debug, info, warn or error")
	pf.BoolVar(&f.dryRun, "dry-run", false, "build notifications without sending them")

	root.AddCommand(newRunCmd(f), newWatchCmd(f), newDiffCmd(f))
	return root
}

// manager builds a config manager with flag overrides installed.
func (f *flags) manager(cmd *cobra.Command) *config.ConfigManager {
	m := config.NewConfigManager(f.configPath)
	set := cmd.Flags().Changed
	m.SetOverride(func(c *config.Config) {
		if set("mode") {
			c.Mode = strings.ToLower(strings.TrimSpace(f.mode))
		}
		if set("current") {
			c.Files.Current = f.current
		}
		if set("previous") {
			c.Files.Previous = f.previous
		}
		if set("on-error") {
			c.Dispatch.OnError = strings.ToLower(strings.TrimSpace(f.onError))
		}
		if set("policy") {
			c.Detect.Policy = f.policy
		}
		if set("log-level") {
			c.Logging.Level = f.logLevel
		}
		if set("dry-run") {
			c.Dispatch.DryRun = f.dryRun
		}
	})
	return m
}

// load returns the validated config and a logger configured from it.
// Config problems are usage errors.
func (f *flags) load(cmd *cobra.Command) (*config.ConfigManager, *config.Config, *logx.Service, logx.Logger, error) {
	m := f.manager(cmd)
	cfg, err := m.Load()
	if err != nil {
		return nil, nil, nil, logx.Logger{}, usageError{fmt.Errorf("config: %w", err)}
	}
	svc, log := logx.New(logConfig(cfg, cmd.ErrOrStderr()))
	m.SetLogger(log.With(logx.String("comp", "config")))
	return m, cfg, svc, log, nil
}

func logConfig(cfg *config.Config, stderr io.Writer) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Stderr: stderr,
	}
}

func closeLogs(svc *logx.Service) {
	if svc == nil {
		return
	}
	if err := svc.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "close log file:", err)
	}
}
