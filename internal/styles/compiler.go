package styles

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

// Compiler turns one stylesheet source into CSS.
type Compiler interface {
	Compile(ctx context.Context, src Source) ([]byte, error)
	Close() error
}

// Source is a stylesheet handed to a Compiler.
type Source struct {
	// Path is the file the content was read from.
	Path string
	// Content is the raw stylesheet text.
	Content string
	// IncludePaths are searched when resolving imports.
	IncludePaths []string
}

// NewCompiler returns the backend selected by cfg.
func NewCompiler(cfg config.StylesConfig) (Compiler, error) {
	switch cfg.Backend {
	case config.StyleBackendDartSass, "":
		return NewDartSass(cfg.DartSassBinary, cfg.OutputStyle)
	case config.StyleBackendEsbuild:
		return NewEsbuild(cfg.OutputStyle), nil
	default:
		return nil, fmt.Errorf("unknown style backend %q", cfg.Backend)
	}
}
