package watch

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "gamewatch/pkg/logx"

	"github.com/fsnotify/fsnotify"
)

// watchFiles calls onChange(path) once writes to one of paths settle for
// debounce. The directories are watched rather than the files so editors
// and atomic renames are seen. The watcher restarts itself with backoff when
// fsnotify breaks. It returns when ctx is done.
func watchFiles(ctx context.Context, paths []string, debounce time.Duration, log logx.Logger, onChange func(path string)) {
	if len(paths) == 0 {
		return
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	byDir := map[string]map[string]string{} // dir -> basename -> path
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		dir, base := filepath.Dir(abs), filepath.Base(abs)
		if byDir[dir] == nil {
			byDir[dir] = map[string]string{}
		}
		byDir[dir][base] = p
	}

	var (
		mu     sync.Mutex
		timers = map[string]*time.Timer{}
	)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()
	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t := timers[path]; t != nil {
			t.Stop()
		}
		timers[path] = time.AfterFunc(debounce, func() {
			if ctx.Err() == nil {
				onChange(path)
			}
		})
	}

	const (
		backoffBase = 250 * time.Millisecond
		backoffMax  = 5 * time.Second
	)
	backoff := backoffBase
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	wait := func() bool {
		d := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		backoff = min(backoff*2, backoffMax)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d):
			return true
		}
	}

	for ctx.Err() == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			log.Warn("file watch init failed", logx.Err(err))
			if !wait() {
				return
			}
			continue
		}
		ok := true
		for dir := range byDir {
			if err := w.Add(dir); err != nil {
				log.Warn("file watch add failed", logx.String("dir", dir), logx.Err(err))
				ok = false
				break
			}
		}
		if !ok {
			_ = w.Close()
			if !wait() {
				return
			}
			continue
		}
		backoff = backoffBase
		log.Debug("file watcher started", logx.Int("files", len(paths)))

		consume(ctx, w, byDir, schedule, log)
		_ = w.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn("file watcher stopped; restarting")
		if !wait() {
			return
		}
	}
}

// consume handles events until ctx is done or the watcher breaks.
func consume(ctx context.Context, w *fsnotify.Watcher, byDir map[string]map[string]string, schedule func(string), log logx.Logger) {
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&relevant == 0 {
				continue
			}
			if p, hit := byDir[filepath.Dir(ev.Name)][filepath.Base(ev.Name)]; hit {
				schedule(p)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if err == nil {
				continue
			}
			// Overflow means events were lost: assume everything changed.
			if strings.Contains(strings.ToLower(err.Error()), "overflow") {
				log.Warn("file watch overflow; rescheduling all", logx.Err(err))
				for _, files := range byDir {
					for _, p := range files {
						schedule(p)
					}
				}
				continue
			}
			log.Warn("file watch error", logx.Err(err))
		}
	}
}
