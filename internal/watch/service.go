// Package watch keeps gamewatch running and triggers runs on a schedule
// and/or when the current dataset changes on disk.
package watch

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "gamewatch/pkg/logx"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"
)

type Options struct {
	// Schedule is optional when Files is set; see ParseSchedule.
	Schedule string
	Timezone string
	// Files trigger a run when they change (the current dataset).
	Files    []string
	Debounce time.Duration
	// RunAtStart performs one run before waiting for triggers.
	RunAtStart bool

	// ConfigFile, when set with OnConfigChange, is watched too; a change
	// calls OnConfigChange instead of triggering a run.
	ConfigFile     string
	OnConfigChange func()
}

// Service owns the triggers. Runs never overlap.
type Service struct {
	opt   Options
	sched *Schedule
	loc   *time.Location
	r     *runner
	log   logx.Logger
}

func New(opt Options, run RunFunc, log logx.Logger) (*Service, error) {
	if run == nil {
		return nil, errors.New("watch: run func is nil")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "watch"))
	s := &Service{opt: opt, loc: time.Local, log: log, r: newRunner(run, log)}

	if strings.TrimSpace(opt.Schedule) != "" {
		sch, err := ParseSchedule(opt.Schedule)
		if err != nil {
			return nil, err
		}
		s.sched = &sch
	}
	if s.sched == nil && len(opt.Files) == 0 {
		return nil, errors.New("watch: nothing to wait for (set watch.schedule or watch.on_change)")
	}
	if tz := strings.TrimSpace(opt.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, err
		}
		s.loc = loc
	}
	return s, nil
}

// Trigger requests a run, as a schedule tick would.
func (s *Service) Trigger(reason string) { s.r.trigger(reason) }

// Runs returns how many runs started and how many failed.
func (s *Service) Runs() (total, failed int64) { return s.r.runs.Load(), s.r.failed.Load() }

// Run blocks until ctx is cancelled. A run in progress is given the
// cancelled context and waited for.
func (s *Service) Run(ctx context.Context) error {
	g := newGroup(ctx, s.log)
	ctx = g.Context()
	g.Go("runner", s.r.loop)

	var c *cron.Cron
	if s.sched != nil {
		cs, err := s.sched.cronSchedule()
		if err != nil {
			_ = g.Stop()
			return err
		}
		c = cron.New(cron.WithLocation(s.loc))
		c.Schedule(cs, cron.FuncJob(func() { s.r.trigger("schedule") }))
		c.Start()
		s.log.Info("schedule armed", logx.String("schedule", s.sched.String()), logx.String("tz", s.loc.String()))
	}

	watched := append([]string(nil), s.opt.Files...)
	if s.opt.ConfigFile != "" && s.opt.OnConfigChange != nil {
		watched = append(watched, s.opt.ConfigFile)
	}
	if len(watched) > 0 {
		g.Go("files", func(ctx context.Context) {
			watchFiles(ctx, watched, s.opt.Debounce, s.log, s.onFileChange)
		})
	}

	if s.opt.RunAtStart {
		s.r.trigger("start")
	}
	sdNotify(s.log, daemon.SdNotifyReady)
	s.log.Info("watching", logx.Int("files", len(s.opt.Files)), logx.Bool("scheduled", s.sched != nil))

	<-ctx.Done()
	sdNotify(s.log, daemon.SdNotifyStopping)
	if c != nil {
		<-c.Stop().Done()
	}
	err := g.Stop()
	total, failed := s.Runs()
	s.log.Info("watch stopped", logx.Int64("runs", total), logx.Int64("failed", failed))
	return err
}

func (s *Service) onFileChange(path string) {
	if path == s.opt.ConfigFile && s.opt.OnConfigChange != nil {
		s.log.Debug("config file changed", logx.String("path", path))
		s.opt.OnConfigChange()
		return
	}
	s.log.Debug("dataset changed", logx.String("path", path))
	s.r.trigger("file")
}
