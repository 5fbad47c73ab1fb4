package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const defaultReloadDebounce = 250 * time.Millisecond

// Watch reloads path into store whenever the file changes. The parent
// directory is watched so editors that replace the file by rename still
// trigger a reload. The watcher stops when ctx is cancelled.
func Watch(ctx context.Context, store *Store, path string, debounce time.Duration) error {
	if store == nil {
		return errors.New("catalog store is nil")
	}
	if path == "" {
		return errors.New("catalog path is required")
	}
	if debounce <= 0 {
		debounce = defaultReloadDebounce
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return err
	}

	go func() {
		defer w.Close()
		reload := make(chan struct{}, 1)
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.AfterFunc(debounce, func() {
						select {
						case reload <- struct{}{}:
						default:
						}
					})
				} else {
					timer.Reset(debounce)
				}
			case <-reload:
				if err := store.Reload(target); err != nil {
					log.Warn().Err(err).Str("path", target).Msg("task catalog reload failed; keeping previous catalog")
					continue
				}
				log.Info().Str("path", target).Int("categories", len(store.Current().Categories)).Msg("task catalog reloaded")
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Str("path", target).Msg("task catalog watcher error")
			}
		}
	}()
	return nil
}
