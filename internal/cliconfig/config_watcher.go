package cliconfig

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nap-labs/napguard/pkg/log"
)

// Watcher monitors the config file via fsnotify and delivers reloaded
// configurations to a callback. Only runtime-tunable fields matter to the
// callback; listen address and service table changes require a restart.
type Watcher struct {
	path     string
	base     Config
	onReload func(Config)
	logger   log.Logger

	mu       sync.Mutex
	debounce *time.Timer
}

// NewWatcher creates a watcher for the config file at path. onReload is
// called with the merged configuration after every valid change.
func NewWatcher(path string, base Config, logger log.Logger, onReload func(Config)) *Watcher {
	return &Watcher{path: path, base: base, onReload: onReload, logger: logger}
}

// Run watches until ctx is cancelled. A missing config file disables the
// watcher without error.
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" || !FileExists(w.path) {
		w.logger.Debug("config watcher disabled, no config file")
		<-ctx.Done()
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("config watcher failed to start", log.Err(err))
		<-ctx.Done()
		return ctx.Err()
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops a
	// watch on the file itself.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		w.logger.Error("config watcher failed to watch directory", log.Err(err))
		<-ctx.Done()
		return ctx.Err()
	}
	w.logger.Info("config watcher started", log.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) debounceReload(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(delay, w.reload)
}

func (w *Watcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", log.Err(err))
		return
	}

	cfg := w.base
	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		w.logger.Warn("config reload rejected", log.Err(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("config reload rejected", log.Err(err))
		return
	}

	w.logger.Info("configuration reloaded",
		log.Duration("timer_duration", cfg.TimerDuration))
	w.onReload(cfg)
}
