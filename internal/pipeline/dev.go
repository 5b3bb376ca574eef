package pipeline

import (
	"context"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mailbuilder/internal/devserver"
	"git.home.luguber.info/inful/mailbuilder/internal/watch"
)

// Watch group names.
const (
	GroupAssets    = "assets"
	GroupStyles    = "styles"
	GroupTemplates = "templates"
)

// Reloader is notified after a successful rebuild.
type Reloader interface {
	Reload()
}

// WatchGroups maps the configured globs to watch groups. Groups without
// patterns are left out.
func (b *Builder) WatchGroups() []watch.Group {
	all := []watch.Group{
		{Name: GroupAssets, Patterns: b.cfg.AssetPaths},
		{Name: GroupStyles, Patterns: b.cfg.StylesPaths},
		{Name: GroupTemplates, Patterns: b.cfg.Views.WatchPath},
	}
	groups := all[:0]
	for _, g := range all {
		if len(g.Patterns) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// WatchStages returns the stages a change in group triggers.
func (b *Builder) WatchStages(group string) []StageDef {
	tail := append([]StageDef{b.def(StageMinify, b.stageMinify)}, b.publishStages()...)
	switch group {
	case GroupAssets:
		return append([]StageDef{b.def(StageAssets, b.stageAssets)}, b.publishStages()...)
	case GroupStyles:
		return append([]StageDef{b.def(StageStyles, b.stageStyles), b.def(StageHTML, b.stageHTML)}, tail...)
	case GroupTemplates:
		return append([]StageDef{b.def(StageHTML, b.stageHTML)}, tail...)
	default:
		return nil
	}
}

// WatchActions builds the rebuild action for every watch group. Browsers are
// reloaded only when the rebuild had no fatal stage.
func (b *Builder) WatchActions(reloader Reloader) map[string]watch.Action {
	actions := make(map[string]watch.Action)
	for _, g := range b.WatchGroups() {
		defs := b.WatchStages(g.Name)
		actions[g.Name] = func(ctx context.Context, _ watch.Event) error {
			if _, err := b.run(ctx, "watch:"+g.Name, defs); err != nil {
				return err
			}
			reloader.Reload()
			return nil
		}
	}
	return actions
}

// Dev runs a full build, then serves the intermediate directory and rebuilds
// on change until ctx is done.
func (b *Builder) Dev(ctx context.Context) error {
	if b.registry == nil && b.cfg.Dev.Metrics {
		WithRegistry(prom.NewRegistry())(b)
	}
	if _, err := b.Build(ctx); err != nil {
		return err
	}

	source, err := watch.NewSource(b.cfg.Dev)
	if err != nil {
		return err
	}
	var opts []devserver.Option
	if b.registry != nil {
		opts = append(opts, devserver.WithRegistry(b.registry))
	}
	srv := devserver.New(b.cfg, opts...)
	return b.serveAndWatch(ctx, srv, source)
}

func (b *Builder) serveAndWatch(ctx context.Context, srv *devserver.Server, source watch.ChangeSource) error {
	w, err := watch.New(source, b.WatchGroups(), b.WatchActions(srv))
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = srv.Shutdown(context.WithoutCancel(ctx)) }()
	return w.Run(ctx)
}
