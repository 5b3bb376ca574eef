package pipeline

import (
	"context"
	"errors"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mailbuilder/internal/bucket"
	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/git"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/mail"
	"git.home.luguber.info/inful/mailbuilder/internal/metrics"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
	"git.home.luguber.info/inful/mailbuilder/internal/render"
	"git.home.luguber.info/inful/mailbuilder/internal/styles"
)

// Builder runs tasks against one configuration and environment.
type Builder struct {
	cfg      *config.Config
	env      string
	overlay  config.Overlay
	info     render.BuildInfo
	recorder metrics.Recorder
	registry *prom.Registry

	compiler styles.Compiler
	sender   mail.Sender
	s3       bucket.S3Client
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder reports stage and task metrics to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = rec }
}

// WithRegistry records Prometheus metrics on reg; the dev server exposes it.
func WithRegistry(reg *prom.Registry) Option {
	return func(b *Builder) {
		b.registry = reg
		b.recorder = metrics.NewPrometheusRecorder(reg)
	}
}

// WithCompiler replaces the configured style compiler. The caller owns it.
func WithCompiler(c styles.Compiler) Option {
	return func(b *Builder) { b.compiler = c }
}

// WithSender replaces the configured mail transport.
func WithSender(s mail.Sender) Option {
	return func(b *Builder) { b.sender = s }
}

// WithS3Client replaces the S3 client built from the aws settings.
func WithS3Client(c bucket.S3Client) Option {
	return func(b *Builder) { b.s3 = c }
}

// New resolves the overlay for env and stamps the build with the current git
// HEAD when the project is a checkout. An unknown env fails here, before any
// stage runs.
func New(ctx context.Context, cfg *config.Config, env string, opts ...Option) (*Builder, error) {
	overlay, err := cfg.Overlays().Resolve(env)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		cfg:      cfg,
		env:      env,
		overlay:  overlay,
		info:     render.BuildInfo{Env: env},
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	head, err := git.ReadHead(dir)
	switch {
	case err == nil:
		b.info.Commit = head.ShortCommit()
		b.info.Branch = head.Branch
	case errors.Is(err, git.ErrNotRepository):
	default:
		observability.DebugContext(ctx, "Cannot read git HEAD", logfields.Path(dir), logfields.Error(err))
	}
	return b, nil
}

// openCompiler returns the style compiler and a release func.
func (b *Builder) openCompiler() (styles.Compiler, func(), error) {
	if b.compiler != nil {
		return b.compiler, func() {}, nil
	}
	c, err := styles.NewCompiler(b.cfg.Styles)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}

func (b *Builder) mailSender() (mail.Sender, error) {
	if b.sender != nil {
		return b.sender, nil
	}
	return mail.NewSender(b.cfg.Email)
}

func (b *Builder) publisher(ctx context.Context) (*bucket.Publisher, error) {
	client := b.s3
	if client == nil {
		c, err := bucket.NewClient(ctx, b.cfg.AWS)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return bucket.NewPublisher(client, b.cfg.AWS, bucket.WithRecorder(b.recorder)), nil
}
