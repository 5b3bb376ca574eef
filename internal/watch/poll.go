package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/mailbuilder/internal/files"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
)

// PollSource rescans each group's globs every interval and reports files
// that appeared, disappeared or changed size or modification time.
type PollSource struct {
	interval time.Duration
}

// NewPollSource returns a polling source.
func NewPollSource(interval time.Duration) *PollSource {
	return &PollSource{interval: interval}
}

func (p *PollSource) Watch(ctx context.Context, groups []Group, events chan<- Event) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	for _, g := range groups {
		last := snapshot(g.Patterns)
		_, err := s.NewJob(
			gocron.DurationJob(p.interval),
			gocron.NewTask(func() {
				current := snapshot(g.Patterns)
				changed := diff(last, current)
				last = current
				if len(changed) > 0 {
					emit(ctx, events, Event{Group: g.Name, Paths: changed})
				}
			}),
			gocron.WithName("watch-"+g.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return fmt.Errorf("schedule poll for %s: %w", g.Name, err)
		}
	}

	s.Start()
	slog.Debug("Polling for changes", logfields.Count(len(groups)), slog.Duration("interval", p.interval))
	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		slog.Warn("Poll scheduler shutdown error", logfields.Error(err))
	}
	return nil
}

func snapshot(patterns []string) map[string]fileState {
	matches, err := files.Expand(patterns)
	if err != nil {
		slog.Warn("Invalid watch glob", logfields.Error(err))
		return nil
	}
	state := make(map[string]fileState, len(matches))
	for _, path := range matches {
		if shouldIgnore(path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		state[path] = fileState{size: info.Size(), modTime: info.ModTime()}
	}
	return state
}

// diff lists the paths that differ between two snapshots, sorted.
func diff(before, after map[string]fileState) []string {
	var changed []string
	for path, st := range after {
		if prev, ok := before[path]; !ok || prev.size != st.size || !prev.modTime.Equal(st.modTime) {
			changed = append(changed, path)
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			changed = append(changed, path)
		}
	}
	slices.Sort(changed)
	return changed
}
