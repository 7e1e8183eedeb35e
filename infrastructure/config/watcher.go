package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/duelist/domain/config"
	"github.com/felixgeelhaar/duelist/infrastructure/logging"
)

// Watcher reloads a configuration file when it changes on disk.
type Watcher struct {
	path     string
	loader   *Loader
	debounce time.Duration
	onChange func(*config.EngineConfig)
}

// NewWatcher creates a watcher for path. onChange receives every config
// that loads and validates; invalid edits are logged and skipped.
func NewWatcher(path string, loader *Loader, onChange func(*config.EngineConfig)) *Watcher {
	if loader == nil {
		loader = NewLoader()
	}
	return &Watcher{
		path:     path,
		loader:   loader,
		debounce: 100 * time.Millisecond,
		onChange: onChange,
	}
}

// Run watches until ctx is done. The parent directory is watched so
// editors that replace the file on save are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			w.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn().
				Add(logging.Component("config")).
				Add(logging.ErrorField(err)).
				Msg("config watch error")
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := w.loader.LoadFile(w.path)
	if err != nil {
		logging.Warn().
			Add(logging.Component("config")).
			Add(logging.Str("path", w.path)).
			Add(logging.ErrorField(err)).
			Msg("config reload rejected")
		return
	}

	logging.Info().
		Add(logging.Component("config")).
		Add(logging.Str("path", w.path)).
		Msg("config reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
