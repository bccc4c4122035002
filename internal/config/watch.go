// v0
// internal/config/watch.go
package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the configuration whenever the properties file changes and
// hands the fresh AppConfig to onReload. Editors often replace files via
// rename, so the watch sits on the directory and filters by name. A reload
// that fails to parse keeps the running config and is only logged.
func (c *AppConfig) Watch(ctx context.Context, log *slog.Logger, onReload func(*AppConfig)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(c.PropertiesPath)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}
	want := filepath.Base(c.PropertiesPath)
	log.Info("watching properties for reload", "path", c.PropertiesPath)

	go func() {
		defer func() {
			if err := w.Close(); err != nil {
				log.Error("watcher close failed", "err", err)
			}
		}()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != want {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				fresh, err := loadFrom(c.PropertiesPath, log)
				if err != nil {
					log.Warn("properties reload failed, keeping current config", "err", err)
					continue
				}
				log.Info("properties reloaded", "event", ev.Op.String())
				onReload(fresh)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("watcher error", "err", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
