package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce coalesces the burst of events editors fire on save.
const debounce = 300 * time.Millisecond

// Run re-executes extract whenever a source document under root changes.
// Extraction failures are logged and watching continues; only the watcher
// itself failing, or ctx ending, stops the loop.
func Run(ctx context.Context, root string, log *zap.Logger, extract func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return err
	}
	log.Info("watching for changes", zap.String("path", root))

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addTree(watcher, event.Name)
				}
			}
			if !strings.HasSuffix(strings.ToLower(event.Name), ".rst") {
				continue
			}
			log.Debug("source changed", zap.String("file", event.Name))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			if err := extract(); err != nil {
				log.Error("extraction failed", zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

// addTree watches every directory under root.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
