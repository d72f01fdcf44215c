package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hushdesk/internal/workerutil"
)

// watchDebounce is a test seam.
var watchDebounce = 250 * time.Millisecond

// Watcher reloads the config file when it changes on disk and hands the
// result to a callback. Save replaces the file by rename, so the parent
// directory is watched and events are filtered by file name.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	onChange func(Config)
	debounce time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewWatcher starts watching path. onChange runs on the watcher goroutine
// after each settled change that parses successfully.
func NewWatcher(path string, onChange func(Config)) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("config watcher: onChange callback is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("config watcher: watch %s: %w", filepath.Dir(path), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     filepath.Clean(path),
		fsw:      fsw,
		onChange: onChange,
		debounce: watchDebounce,
		cancel:   cancel,
	}
	workerutil.RunWithPanicRecovery(ctx, "config-watcher", &w.wg, w.run, workerutil.RecoveryOptions{
		IsShutdown: func() bool { return ctx.Err() != nil },
	})
	return w, nil
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		w.cancel()
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("[WARN-CONFIG] config watcher error", "error", err)
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("[WARN-CONFIG] ignoring config change that failed to load", "path", w.path, "error", err)
		return
	}
	slog.Info("[CONFIG] config file changed on disk, reloading", "path", w.path)
	w.onChange(cfg)
}
