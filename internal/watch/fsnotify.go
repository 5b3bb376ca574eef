package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mailbuilder/internal/files"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
)

// FSNotifySource watches the static base directory of every glob
// recursively and filters native events by glob match.
type FSNotifySource struct{}

// NewFSNotifySource returns a native file event source.
func NewFSNotifySource() *FSNotifySource {
	return &FSNotifySource{}
}

func (f *FSNotifySource) Watch(ctx context.Context, groups []Group, events chan<- Event) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	for _, g := range groups {
		for _, pattern := range g.Patterns {
			root := files.Base(pattern)
			if root == "" {
				root = "."
			}
			addDirsRecursive(w, root)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if shouldIgnore(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					addDirsRecursive(w, ev.Name)
					continue
				}
			}
			slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			for _, g := range groups {
				if files.Match(g.Patterns, ev.Name) {
					emit(ctx, events, Event{Group: g.Name, Paths: []string{ev.Name}})
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}
