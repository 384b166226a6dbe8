// Package watcher reports changes to a fixed set of files, such as the root
// POM, so that watch mode can regenerate the diagram.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/pom-graph/pkg/logging"
)

// batchWindow groups the several fsnotify events a single save produces
const batchWindow = 100 * time.Millisecond

// ChangeEvent is a batch of changes to watched files
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches individual files. fsnotify works on directories, so the
// parent directory of each file is watched and events for other names are
// dropped. Watching the directory also catches editors that save by
// replacing the file.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	targets map[string]bool
	events  chan ChangeEvent
	logger  *slog.Logger
}

// NewFileWatcher creates a watcher for the given files
func NewFileWatcher(paths ...string) (*FileWatcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	targets := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		targets[abs] = true
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: w,
		targets: targets,
		events:  make(chan ChangeEvent, 10),
		logger:  logging.New("watcher"),
	}, nil
}

// Start registers the watched directories and processes events until ctx is
// cancelled, after which the Events channel is closed.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for path := range fw.targets {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			fw.watcher.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	fw.logger.Info("started watching", "files", len(fw.targets), "directories", len(dirs))

	go fw.processEvents(ctx)
	return nil
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	changed := make(map[string]bool)
	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			changed[filepath.Clean(event.Name)] = true
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			paths := make([]string, 0, len(changed))
			for p := range changed {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(changed)

			select {
			case fw.events <- ChangeEvent{Paths: paths, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return fw.targets[abs]
}
