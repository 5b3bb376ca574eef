package pipeline

import (
	"context"

	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/mail"
	"git.home.luguber.info/inful/mailbuilder/internal/minify"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
	"git.home.luguber.info/inful/mailbuilder/internal/output"
	"git.home.luguber.info/inful/mailbuilder/internal/render"
	"git.home.luguber.info/inful/mailbuilder/internal/styles"
)

func (b *Builder) stageClean(ctx context.Context, _ *Report) error {
	return output.Clean(ctx, b.cfg.DistPath, b.cfg.TmpPath, b.cfg.EmailSenderPath)
}

func (b *Builder) stageStyles(ctx context.Context, r *Report) error {
	c, release, err := b.openCompiler()
	if err != nil {
		return err
	}
	defer release()
	res, err := styles.Build(ctx, b.cfg, c)
	r.Count(func(c *Counts) { c.Styles += len(res.Written) })
	return err
}

func (b *Builder) stageAssets(ctx context.Context, r *Report) error {
	n, err := output.CopyAssets(ctx, b.cfg)
	r.Count(func(c *Counts) { c.Assets += n })
	return err
}

func (b *Builder) stageHTML(ctx context.Context, r *Report) error {
	renderer, err := render.New(b.cfg)
	if err != nil {
		return err
	}
	info := b.info
	info.ID = r.BuildID
	written, err := renderer.RenderAll(ctx, b.overlay, info)
	if err != nil {
		return err
	}
	b.recorder.IncPagesRendered(len(written))
	r.Count(func(c *Counts) { c.Pages += len(written) })
	observability.InfoContext(ctx, "Pages rendered", logfields.Count(len(written)))
	return nil
}

func (b *Builder) stageMinify(ctx context.Context, r *Report) error {
	written, err := minify.New().Run(ctx, b.cfg)
	r.Count(func(c *Counts) { c.Minified += len(written) })
	return err
}

func (b *Builder) stagePublishDist(ctx context.Context, r *Report) error {
	n, err := output.PublishDist(ctx, b.cfg)
	r.Count(func(c *Counts) { c.DistFiles += n })
	return err
}

func (b *Builder) stagePublishSender(ctx context.Context, r *Report) error {
	n, err := output.PublishEmailSender(ctx, b.cfg)
	r.Count(func(c *Counts) { c.SenderFiles += n })
	return err
}

func (b *Builder) stageMail(ctx context.Context, r *Report) error {
	sender, err := b.mailSender()
	if err != nil {
		return err
	}
	res, err := mail.Dispatch(ctx, b.cfg, sender, b.recorder)
	r.Count(func(c *Counts) { c.Mails += len(res.Sent) })
	return err
}

func (b *Builder) stageEmptyBucket(ctx context.Context, r *Report) error {
	p, err := b.publisher(ctx)
	if err != nil {
		return err
	}
	res, err := p.Empty(ctx)
	r.Count(func(c *Counts) { c.Deleted += res.Deleted })
	return err
}

func (b *Builder) stagePublishBucket(ctx context.Context, r *Report) error {
	p, err := b.publisher(ctx)
	if err != nil {
		return err
	}
	res, err := p.Publish(ctx, b.cfg.S3SourcePath)
	r.Count(func(c *Counts) {
		c.Deleted += res.Empty.Deleted
		c.Uploaded += len(res.Upload.Uploaded)
	})
	return err
}
