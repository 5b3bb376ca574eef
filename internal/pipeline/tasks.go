package pipeline

import (
	"context"

	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

// Task names.
const (
	TaskBuild       = "build"
	TaskDev         = "dev"
	TaskMinify      = "minify"
	TaskMail        = "mail"
	TaskPublish     = "publish"
	TaskEmptyBucket = "empty-bucket"
	TaskClean       = "clean"
)

func (b *Builder) def(name StageName, fn Stage) StageDef {
	return StageDef{Name: name, Fn: fn}
}

// publishStages copy the intermediate directory to both output directories.
func (b *Builder) publishStages() []StageDef {
	return []StageDef{
		b.def(StagePublishDist, b.stagePublishDist),
		b.def(StagePublishSender, b.stagePublishSender),
	}
}

// BuildStages is the full build: clean, styles, assets alongside html,
// minify, then publish to dist and the email-sender directory.
func (b *Builder) BuildStages() []StageDef {
	return append([]StageDef{
		b.def(StageClean, b.stageClean),
		b.def(StageStyles, b.stageStyles),
		Concurrently(
			b.def(StageAssets, b.stageAssets),
			b.def(StageHTML, b.stageHTML),
		),
		b.def(StageMinify, b.stageMinify),
	}, b.publishStages()...)
}

func (b *Builder) run(ctx context.Context, task string, defs []StageDef) (*Report, error) {
	r := NewReport(task, b.env, b.recorder)
	ctx = observability.WithBuildID(ctx, r.BuildID)
	ctx = observability.WithTask(ctx, task)
	ctx = observability.WithEnv(ctx, b.env)

	observability.InfoContext(ctx, "Task started")
	err := runStages(ctx, r, defs)
	r.Finish()
	r.Log(ctx)
	return r, err
}

// Build runs the full build.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	return b.run(ctx, TaskBuild, b.BuildStages())
}

// Minify rewrites the intermediate pages into <tmp>/minify.
func (b *Builder) Minify(ctx context.Context) (*Report, error) {
	return b.run(ctx, TaskMinify, []StageDef{b.def(StageMinify, b.stageMinify)})
}

// Clean removes the dist, tmp and email-sender directories.
func (b *Builder) Clean(ctx context.Context) (*Report, error) {
	return b.run(ctx, TaskClean, []StageDef{b.def(StageClean, b.stageClean)})
}

// Mail sends the configured pages from the existing dist output.
func (b *Builder) Mail(ctx context.Context) (*Report, error) {
	if err := b.cfg.ValidateMail(); err != nil {
		return nil, err
	}
	return b.run(ctx, TaskMail, []StageDef{b.def(StageMail, b.stageMail)})
}

// Publish runs the full build, then empties the bucket and uploads the
// storage source directory. Bucket failures are warnings.
func (b *Builder) Publish(ctx context.Context) (*Report, error) {
	if err := b.cfg.ValidateStorage(true); err != nil {
		return nil, err
	}
	defs := append(b.BuildStages(), b.def(StagePublishBucket, b.stagePublishBucket))
	return b.run(ctx, TaskPublish, defs)
}

// EmptyBucket deletes one listing page of objects from the bucket. Unlike
// the empty phase of Publish, a failure here fails the task.
func (b *Builder) EmptyBucket(ctx context.Context) (*Report, error) {
	if err := b.cfg.ValidateStorage(false); err != nil {
		return nil, err
	}
	return b.run(ctx, TaskEmptyBucket, []StageDef{b.def(StageEmptyBucket, b.stageEmptyBucket)})
}
