package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	m "gooze.dev/pkg/mutguard/internal/model"
)

// ChangeHandler receives the Go files touched by one debounced burst of events.
type ChangeHandler func(ctx context.Context, paths []m.Path)

// FileWatcher reports changes to Go files below a root.
type FileWatcher interface {
	// Watch blocks until ctx is done, calling onChange once per burst. Calls
	// never overlap.
	Watch(ctx context.Context, root m.Path, debounce time.Duration, onChange ChangeHandler) error
}

// FSNotifyWatcher implements FileWatcher with fsnotify.
type FSNotifyWatcher struct{}

// NewFSNotifyWatcher constructs an FSNotifyWatcher.
func NewFSNotifyWatcher() *FSNotifyWatcher {
	return &FSNotifyWatcher{}
}

// Watch registers every directory below root and dispatches debounced changes.
func (w *FSNotifyWatcher) Watch(ctx context.Context, root m.Path, debounce time.Duration, onChange ChangeHandler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() { _ = watcher.Close() }()

	if err := addTree(watcher, string(root)); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	pending := make(map[m.Path]struct{})

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := addTree(watcher, event.Name); addErr != nil {
						slog.Warn("failed to watch directory", "path", event.Name, "error", addErr)
					}

					continue
				}
			}

			if !isWatchedGoFile(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}

			pending[m.Path(event.Name)] = struct{}{}

			timer.Reset(debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}

			paths := make([]m.Path, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}

			sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
			clear(pending)

			onChange(ctx, paths)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Warn("watcher error", "error", watchErr)
		}
	}
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		if path != root && SkipDirName(info.Name()) {
			return filepath.SkipDir
		}

		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}

		return nil
	})
}

// SkipDirName reports whether a directory is never scanned or watched.
func SkipDirName(name string) bool {
	switch name {
	case "vendor", "node_modules", "testdata", "build", "dist", "bin":
		return true
	}

	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func isWatchedGoFile(path string) bool {
	return strings.HasSuffix(path, ".go")
}
