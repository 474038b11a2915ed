package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the directory holding file and calls
// onChange once per burst of events touching file (or its -wal/-journal
// siblings) until ctx is cancelled.
//
// The directory is watched rather than the file itself because an atomic
// save replaces the file's inode.
func Watch(ctx context.Context, file string, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	dir, base := filepath.Split(abs)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Info("watcher: started", slog.String("file", abs))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), base) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
