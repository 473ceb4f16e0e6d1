package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Wait blocks until a complete report exists at path or ctx ends. The
// nearest existing ancestor directory is watched, so the report directory
// itself may be created later.
func Wait(ctx context.Context, path string) error {
	if ready(path) {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	watched := ""
	for {
		dir := nearestExistingDir(filepath.Dir(path))
		if dir != watched {
			if watched != "" {
				_ = watcher.Remove(watched)
			}
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			watched = dir
		}

		// Re-check after the watch is in place so no event is missed.
		if ready(path) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			return fmt.Errorf("watching report: %w", err)
		}
	}
}

// ready reports whether path holds a parseable report. A file still being
// written is not ready.
func ready(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	_, err := Parse(path)
	return err == nil
}

func nearestExistingDir(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
