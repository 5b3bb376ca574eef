package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
)

// Action runs the rebuild for one group.
type Action func(ctx context.Context, ev Event) error

// Watcher dispatches source events to per-group actions.
type Watcher struct {
	source  ChangeSource
	groups  []Group
	actions map[string]Action
}

// New returns a watcher. Every group needs an action.
func New(source ChangeSource, groups []Group, actions map[string]Action) (*Watcher, error) {
	for _, g := range groups {
		if actions[g.Name] == nil {
			return nil, fmt.Errorf("no action for watch group %q", g.Name)
		}
	}
	return &Watcher{source: source, groups: groups, actions: actions}, nil
}

// Run watches until ctx is done. In-flight actions are allowed to finish
// before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	events := make(chan Event, len(w.groups))
	requests := make(map[string]chan Event, len(w.groups))

	var wg sync.WaitGroup
	for _, g := range w.groups {
		req := make(chan Event, 1)
		requests[g.Name] = req
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.worker(ctx, g.Name, req)
		}()
	}

	srcErr := make(chan error, 1)
	go func() { srcErr <- w.source.Watch(ctx, w.groups, events) }()

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err = <-srcErr:
			break loop
		case ev := <-events:
			req, ok := requests[ev.Group]
			if !ok {
				continue
			}
			slog.Info("Change detected", logfields.Group(ev.Group), logfields.Count(len(ev.Paths)))
			select {
			case req <- ev:
			default:
			}
		}
	}

	for _, req := range requests {
		close(req)
	}
	wg.Wait()
	return err
}

// worker runs one group's action serially. req holds at most one queued
// request; Run drops requests while it is full, so changes that arrive
// during a run fold into a single follow-up.
func (w *Watcher) worker(ctx context.Context, group string, req <-chan Event) {
	action := w.actions[group]
	for ev := range req {
		if ctx.Err() != nil {
			continue
		}
		if err := action(ctx, ev); err != nil {
			slog.Warn("Rebuild failed", logfields.Group(group), logfields.Error(err))
		}
	}
}
