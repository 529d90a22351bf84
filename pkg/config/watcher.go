package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"gcodewriter/pkg/log"
)

// DefaultDebounce is how long a Watcher waits after the last change
// before invoking its callback.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a fixed set of files. Bursts of events are
// coalesced into one callback carrying every file that changed.
type Watcher struct {
	fs       *fsnotify.Watcher
	paths    map[string]struct{}
	debounce time.Duration
	onChange func(changed []string)
	logger   *log.Logger
}

// NewWatcher watches paths. The parent directories are watched rather
// than the files, so editors that replace a file on save are still seen.
func NewWatcher(paths []string, debounce time.Duration, onChange func(changed []string)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}

	w := &Watcher{
		fs:       fsw,
		paths:    make(map[string]struct{}, len(paths)),
		debounce: debounce,
		onChange: onChange,
		logger:   log.GetLogger("watch"),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("config: bad path %q: %w", p, err)
		}
		w.paths[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("config: watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Run delivers debounced change callbacks until ctx is cancelled or the
// watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			if _, watched := w.paths[abs]; !watched {
				continue
			}
			w.logger.WithFields(log.Fields{"file": abs, "op": event.Op.String()}).Debug("file event")
			pending[abs] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watcher error")
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			w.onChange(changed)
		}
	}
}

// Close stops watching. A running Run returns.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
