package styles

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bep/godartsass/v2"

	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

// DartSass compiles SCSS/Sass through a long-running Dart Sass process.
type DartSass struct {
	transpiler  *godartsass.Transpiler
	outputStyle godartsass.OutputStyle
}

// NewDartSass starts the Dart Sass binary at binary, or "sass" on PATH when
// binary is empty.
func NewDartSass(binary, outputStyle string) (*DartSass, error) {
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: binary,
	})
	if err != nil {
		name := binary
		if name == "" {
			name = "sass"
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryStyle,
			fmt.Sprintf("failed to start Dart Sass %q (install it or set styles.dartSassBinary)", name)).
			Fatal().WithContext("binary", name).Build()
	}
	style := godartsass.OutputStyleExpanded
	if outputStyle == "compressed" {
		style = godartsass.OutputStyleCompressed
	}
	return &DartSass{transpiler: t, outputStyle: style}, nil
}

func (d *DartSass) Compile(_ context.Context, src Source) ([]byte, error) {
	abs, err := filepath.Abs(src.Path)
	if err != nil {
		return nil, err
	}
	res, err := d.transpiler.Execute(godartsass.Args{
		Source:       src.Content,
		URL:          "file://" + filepath.ToSlash(abs),
		OutputStyle:  d.outputStyle,
		SourceSyntax: syntaxFor(src.Path),
		IncludePaths: src.IncludePaths,
	})
	if err != nil {
		return nil, err
	}
	return []byte(res.CSS), nil
}

func (d *DartSass) Close() error {
	return d.transpiler.Close()
}

func syntaxFor(path string) godartsass.SourceSyntax {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sass":
		return godartsass.SourceSyntaxSASS
	case ".css":
		return godartsass.SourceSyntaxCSS
	default:
		return godartsass.SourceSyntaxSCSS
	}
}
