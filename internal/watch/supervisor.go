package watch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	logx "gamewatch/pkg/logx"
)

// group runs the watcher's named goroutines under one shared context.
// A panic is logged with its stack and kept as the group's first error;
// the other goroutines keep running until Stop.
type group struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    logx.Logger

	wg      sync.WaitGroup
	started atomic.Uint64
	active  atomic.Int64

	errOnce  sync.Once
	firstErr atomic.Value // error
}

func newGroup(parent context.Context, log logx.Logger) *group {
	ctx, cancel := context.WithCancel(parent)
	return &group{ctx: ctx, cancel: cancel, log: log}
}

func (g *group) Context() context.Context { return g.ctx }

func (g *group) Go(name string, fn func(ctx context.Context)) {
	if fn == nil {
		return
	}
	g.started.Add(1)
	g.active.Add(1)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.active.Add(-1)
		if err := guard(name, g.log, func() error { fn(g.ctx); return nil }); err != nil {
			g.setErr(err)
		}
		g.log.Debug("goroutine stopped", logx.String("name", name))
	}()
}

// Active reports goroutines still running.
func (g *group) Active() int64 { return g.active.Load() }

// Stop cancels the group, waits for every goroutine and returns the first
// panic, if any.
func (g *group) Stop() error {
	g.cancel()
	g.wg.Wait()
	if v := g.firstErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func (g *group) setErr(err error) {
	g.errOnce.Do(func() { g.firstErr.Store(err) })
}

// guard calls fn and turns a panic into an error.
func guard(name string, log logx.Logger, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("goroutine panicked", logx.String("name", name), logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			err = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()
	return fn()
}
