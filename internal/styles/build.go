package styles

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/files"
	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

// Result summarises one compile run.
type Result struct {
	Written []string
	Failed  []string
}

// Build compiles every file matched by cfg.StylesPaths into cfg.StylesOutputDir().
// A file that fails to compile is logged and skipped; if any failed, the
// returned error is a style warning joining the individual failures.
func Build(ctx context.Context, cfg *config.Config, c Compiler) (Result, error) {
	var (
		res  Result
		errs []error
	)
	outDir := cfg.StylesOutputDir()

	for _, pattern := range cfg.StylesPaths {
		matches, err := files.Expand([]string{pattern})
		if err != nil {
			return res, ferrors.WrapError(err, ferrors.CategoryStyle, "invalid style glob").
				Fatal().WithContext("pattern", pattern).Build()
		}
		base := files.Base(pattern)

		for _, path := range matches {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if strings.HasPrefix(filepath.Base(path), "_") {
				continue
			}
			rel, err := filepath.Rel(base, path)
			if err != nil {
				return res, ferrors.WrapError(err, ferrors.CategoryInternal, "style path outside glob base").
					Fatal().WithContext("path", path).Build()
			}
			dst := filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".css")

			if err := compileFile(ctx, c, path, base, dst); err != nil {
				observability.WarnContext(ctx, "Stylesheet failed to compile", logfields.File(path), logfields.Error(err))
				res.Failed = append(res.Failed, path)
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
			observability.DebugContext(ctx, "Compiled stylesheet", logfields.File(path), logfields.Path(dst))
			res.Written = append(res.Written, dst)
		}
	}

	if len(errs) > 0 {
		return res, ferrors.WrapError(errors.Join(errs...), ferrors.CategoryStyle, "some stylesheets failed to compile").
			Warning().WithContext("failed", len(errs)).Build()
	}
	return res, nil
}

func compileFile(ctx context.Context, c Compiler, path, base, dst string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	css, err := c.Compile(ctx, Source{
		Path:         path,
		Content:      string(content),
		IncludePaths: []string{filepath.Dir(path), base},
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, css, 0o644)
}
