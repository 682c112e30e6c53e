package dashboard

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay coalesces the burst of events editors and copies produce.
const reloadDelay = 250 * time.Millisecond

// Watch reloads the data whenever one of the two files is written or
// replaced, until ctx is done.
func (s *Service) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	files := map[string]bool{}
	dirs := map[string]bool{}
	for _, path := range []string{s.opts.CSVPath, s.opts.GeoJSONPath} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	s.logger.Info("watching data files",
		zap.String("op", "dashboard.Watch"),
		zap.String("csv", s.opts.CSVPath),
		zap.String("geojson", s.opts.GeoJSONPath),
	)

	timer := time.NewTimer(reloadDelay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !files[name] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(reloadDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error",
				zap.String("op", "dashboard.Watch"),
				zap.Error(err),
			)
		case <-timer.C:
			_ = s.Reload()
		}
	}
}
