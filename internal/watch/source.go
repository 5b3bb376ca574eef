package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

// Group is a named set of globs watched together.
type Group struct {
	Name     string
	Patterns []string
}

// Event reports changed paths within one group.
type Event struct {
	Group string
	Paths []string
}

// ChangeSource emits events for the given groups until ctx is done.
// Watch blocks; it returns nil on cancellation.
type ChangeSource interface {
	Watch(ctx context.Context, groups []Group, events chan<- Event) error
}

// NewSource returns the change source selected by dev.watchBackend.
func NewSource(dev config.DevConfig) (ChangeSource, error) {
	switch dev.WatchBackend {
	case config.WatchBackendPoll, "":
		interval := dev.PollInterval.Std()
		if interval <= 0 {
			interval = config.DefaultPollInterval
		}
		return NewPollSource(interval), nil
	case config.WatchBackendFSNotify:
		return NewFSNotifySource(), nil
	default:
		return nil, fmt.Errorf("unknown watch backend %q", dev.WatchBackend)
	}
}

// shouldIgnore reports paths that never trigger rebuilds: hidden files,
// editor swap and backup files, and OS metadata files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}

func emit(ctx context.Context, events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// fileState is what the poll source compares between snapshots.
type fileState struct {
	size    int64
	modTime time.Time
}
