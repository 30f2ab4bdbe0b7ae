package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch re-syncs the library whenever the documents folder changes. Events
// are debounced so a burst of writes (an editor save, a folder copy) triggers
// a single sync. Watch returns after starting the watcher goroutine; the
// watcher stops when ctx is cancelled.
func (l *Library) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the root and every subdirectory; fsnotify does not recurse
	err = filepath.Walk(l.config.DocsDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return err
	}

	go l.watchLoop(ctx, watcher)

	return nil
}

func (l *Library) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	timer := time.NewTimer(l.config.WatchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// New subdirectories need their own watch
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := watcher.Add(event.Name); err != nil {
					l.config.Logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
			}

			timer.Reset(l.config.WatchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.config.Logger.Warn("watcher error", "error", err)

		case <-timer.C:
			if _, err := l.Sync(ctx); err != nil {
				l.config.Logger.Error("sync after change failed", "error", err)
			}
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
