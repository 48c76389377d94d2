package provider

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the registry whenever the providers file changes, until ctx is done.
// The parent directory is watched so editors that replace the file are handled.
func (r *Registry) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	target, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("resolve providers file path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if err := r.ReloadFile(target); err != nil {
					r.logger.Error("providers reload failed, keeping previous set",
						zap.String("path", target), zap.Error(err))
					continue
				}
				r.logger.Info("providers reloaded", zap.String("path", target), zap.Int("count", len(r.List())))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("providers watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
