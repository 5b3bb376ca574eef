package styles

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrSassSource is returned by Esbuild for .scss and .sass sources.
var ErrSassSource = errors.New("esbuild backend cannot compile Sass; use the dartsass backend")

// Esbuild compiles CSS (including nesting) with esbuild's transform API.
type Esbuild struct {
	minify bool
}

// NewEsbuild returns an esbuild backend; "compressed" minifies the output.
func NewEsbuild(outputStyle string) *Esbuild {
	return &Esbuild{minify: outputStyle == "compressed"}
}

func (e *Esbuild) Compile(ctx context.Context, src Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".scss", ".sass":
		return nil, ErrSassSource
	}
	res := api.Transform(src.Content, api.TransformOptions{
		Loader:           api.LoaderCSS,
		Sourcefile:       src.Path,
		MinifyWhitespace: e.minify,
		MinifySyntax:     e.minify,
		LogLevel:         api.LogLevelSilent,
		LegalComments:    api.LegalCommentsInline,
		// Mail clients lag browsers; nesting is flattened for old WebKit.
		Engines: []api.Engine{{Name: api.EngineSafari, Version: "12"}},
	})
	if len(res.Errors) > 0 {
		errs := make([]error, 0, len(res.Errors))
		for _, msg := range res.Errors {
			if msg.Location != nil {
				errs = append(errs, fmt.Errorf("%s:%d:%d: %s", src.Path, msg.Location.Line, msg.Location.Column, msg.Text))
				continue
			}
			errs = append(errs, errors.New(msg.Text))
		}
		return nil, errors.Join(errs...)
	}
	return res.Code, nil
}

func (e *Esbuild) Close() error { return nil }
