package slides

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultReloadDelay collapses the burst of events an editor save produces
const DefaultReloadDelay = 200 * time.Millisecond

// Watcher reloads a slides file whenever it changes on disk. Each reload
// yields a new registry; a file that fails to load is logged and skipped.
type Watcher struct {
	path     string
	delay    time.Duration
	log      *zap.Logger
	onReload func(*Registry)
}

// NewWatcher creates a watcher for path. onReload receives every
// successfully loaded registry.
func NewWatcher(path string, logger *zap.Logger, onReload func(*Registry)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve slides path: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{path: abs, delay: DefaultReloadDelay, log: logger, onReload: onReload}, nil
}

// Run watches until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	// watch the directory so atomic renames are seen
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.log.Info("watching slides file", zap.String("path", w.path))

	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.delay)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("slides watcher error", zap.Error(err))
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	reg, err := LoadFile(w.path)
	if err != nil {
		w.log.Warn("slides reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.log.Info("slides reloaded", zap.Int("slides", reg.Len()))
	if w.onReload != nil {
		w.onReload(reg)
	}
}
