package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called after the store reloaded state from disk
// because the database file was replaced out-of-band.
type ReloadCallback func()

// Watch starts an fsnotify watcher on the data directory and reloads the
// store when the database file changes under it (for example a file-sync
// tool or a manually restored backup) until ctx is cancelled.
//
// The store's own atomic writes land as rename events too; those are
// recognized by checksum and skipped. Reload failures are logged and
// skipped — a malformed half-synced file must not take the engine down.
func (s *Store) Watch(ctx context.Context, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(s.paths.DataDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", s.paths.DataDir))

	// reloadTimer debounces bursts of events around a file replace.
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			s.reloadIfChanged(logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.paths.DatabasePath {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reloadIfChanged compares the on-disk file against the last payload this
// process wrote and reloads only when some other writer produced it.
func (s *Store) reloadIfChanged(logger *slog.Logger, cb ReloadCallback) {
	data, err := os.ReadFile(s.paths.DatabasePath)
	if err != nil {
		logger.Warn("watcher: read database failed", slog.String("error", err.Error()))
		return
	}
	if checksum(data) == s.lastWrittenChecksum() {
		return
	}
	if err := s.Reload(); err != nil {
		logger.Warn("watcher: reload failed", slog.String("error", err.Error()))
		return
	}
	// Remember the content we just absorbed so a trailing event for the
	// same file does not trigger a second reload.
	s.lastSum.Store(checksum(data))
	logger.Info("watcher: database reloaded after external change")
	if cb != nil {
		cb()
	}
}
