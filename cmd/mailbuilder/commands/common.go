package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
	"git.home.luguber.info/inful/mailbuilder/internal/pipeline"
)

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Build description file" default:"conf/build.json" type:"path"`
	Env     string           `help:"Environment overlay to render with" default:"development"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build       BuildCmd       `cmd:"" default:"1" help:"Clean, compile styles, render pages and publish to dist and email-sender"`
	Dev         DevCmd         `cmd:"" help:"Build, then serve tmp with live reload and rebuild on change"`
	Minify      MinifyCmd      `cmd:"" help:"Minify rendered pages into tmp/minify"`
	Mail        MailCmd        `cmd:"" help:"Send the configured pages from dist as emails"`
	Publish     PublishCmd     `cmd:"" help:"Build, then replace the bucket contents with the storage source directory"`
	EmptyBucket EmptyBucketCmd `cmd:"" name:"empty-bucket" help:"Delete one listing page of objects from the bucket"`
	Clean       CleanCmd       `cmd:"" help:"Remove the dist, tmp and email-sender directories"`
	Init        InitCmd        `cmd:"" help:"Write an example build description and development overlay"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	observability.Setup(os.Stderr, c.Verbose)
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// builder loads the configuration and resolves the environment overlay.
func (c *CLI) builder(ctx context.Context, opts ...pipeline.Option) (*pipeline.Builder, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	return pipeline.New(ctx, cfg, c.Env, opts...)
}

// runTask is the common body of the one-shot commands.
func (c *CLI) runTask(task func(*pipeline.Builder, context.Context) (*pipeline.Report, error)) error {
	ctx, cancel := signalContext()
	defer cancel()
	b, err := c.builder(ctx)
	if err != nil {
		return err
	}
	_, err = task(b, ctx)
	return err
}
