package watch

import (
	"context"
	"sync/atomic"
	"time"

	logx "gamewatch/pkg/logx"
)

// RunFunc performs one pass. Errors are logged; the watcher keeps going.
type RunFunc func(ctx context.Context, reason string) error

// runner serialises runs. Triggers that arrive while a run is in flight are
// coalesced into a single follow-up run.
type runner struct {
	run  RunFunc
	log  logx.Logger
	kick chan string

	runs   atomic.Int64
	failed atomic.Int64
}

func newRunner(run RunFunc, log logx.Logger) *runner {
	return &runner{run: run, log: log, kick: make(chan string, 1)}
}

// trigger never blocks.
func (r *runner) trigger(reason string) {
	select {
	case r.kick <- reason:
	default:
		r.log.Debug("run already pending; trigger coalesced", logx.String("reason", reason))
	}
}

func (r *runner) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-r.kick:
			r.once(ctx, reason)
		}
	}
}

func (r *runner) once(ctx context.Context, reason string) {
	start := time.Now()
	n := r.runs.Add(1)
	log := r.log.With(logx.Int64("run", n), logx.String("reason", reason))
	log.Debug("run triggered")

	err := guard("run", log, func() error { return r.run(ctx, reason) })
	if err != nil {
		if ctx.Err() != nil {
			log.Info("run cancelled", logx.Err(err))
			return
		}
		r.failed.Add(1)
		log.Error("run failed", logx.Duration("took", time.Since(start)), logx.Err(err))
		return
	}
	log.Info("run finished", logx.Duration("took", time.Since(start)))
}
