package config

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is how often a Watcher checks its file for changes.
const DefaultPollInterval = 500 * time.Millisecond

// Watcher keeps a configuration in sync with a file on disk.
//
// The file's directory is watched with fsnotify, and the file is also polled
// for modification time changes in case events are missed or unsupported.
// A changed file is parsed and validated. On success the new snapshot
// replaces the current one; on failure the error is logged and the previous
// snapshot stays in effect.
type Watcher struct {
	path     string
	interval time.Duration
	logger   *log.Logger
	current  atomic.Pointer[Config]
	modTime  time.Time
	reloads  atomic.Uint64
}

// NewWatcher loads path and returns a watcher holding it. The first load must
// succeed; later reloads may fail without replacing the current config.
func NewWatcher(path string, logger *log.Logger) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: DefaultPollInterval,
		logger:   logger,
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	w.modTime = info.ModTime()
	w.current.Store(cfg)
	return w, nil
}

// SetInterval changes the poll interval. Call it before Run.
func (w *Watcher) SetInterval(d time.Duration) {
	if d > 0 {
		w.interval = d
	}
}

// Current returns the active configuration snapshot.
func (w *Watcher) Current() *Config {
	return w.current.Load()
}

// Reloads returns how many times a changed file was successfully applied.
func (w *Watcher) Reloads() uint64 {
	return w.reloads.Load()
}

// Run watches the file until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	fw, err := fsnotify.NewWatcher()
	if err == nil {
		defer fw.Close()
		// Watch the directory: editors often replace the file on save.
		if err = fw.Add(filepath.Dir(w.path)); err == nil {
			events, errs = fw.Events, fw.Errors
		}
	}
	if err != nil {
		w.logf("config: falling back to polling: %v", err)
	}

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Poll()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == target && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				w.Poll()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logf("config: watch error: %v", err)
		}
	}
}

// Poll checks the file once and reloads it if its modification time changed.
// It reports whether a new configuration was applied. Poll must not be called
// concurrently with itself or with Run.
func (w *Watcher) Poll() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		w.logf("config: stat %s: %v", w.path, err)
		return false
	}
	if info.ModTime().Equal(w.modTime) {
		return false
	}
	w.modTime = info.ModTime()

	cfg, err := Load(w.path)
	if err != nil {
		w.logf("config: keeping previous settings: %v", err)
		return false
	}
	w.current.Store(cfg)
	w.reloads.Add(1)
	w.logf("config: reloaded %s", w.path)
	return true
}

func (w *Watcher) logf(format string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}
