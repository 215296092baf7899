package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called after the database files change on disk.
type ChangeCallback func()

// Watch starts an fsnotify watcher on the directory holding the database and
// reports modifications to the database file (including its WAL sidecars)
// until ctx is cancelled. Rapid event bursts are debounced into a single
// callback so a UI subscriber refetches once per external write, not once per
// syscall.
//
// This exists for the desktop case where a second instance, or a file-sync
// tool, writes the same database: the owning process gets a signal to refresh
// its listings.
func Watch(ctx context.Context, dbPath string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	base := filepath.Base(abs)
	logger.Info("watcher: started", slog.String("db", abs))

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(500 * time.Millisecond)
			debounceCh = debounce.C
		} else {
			debounce.Reset(500 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			logger.Debug("watcher: database changed")
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Only the database file and its -wal/-shm sidecars matter.
			name := filepath.Base(ev.Name)
			if name != base && !strings.HasPrefix(name, base+"-") {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
