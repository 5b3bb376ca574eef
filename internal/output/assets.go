package output

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/files"
	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

// copyWorkers bounds concurrent asset copies.
const copyWorkers = 8

// CopyAssets copies every file matched by cfg.AssetPaths into
// cfg.AssetsOutputDir(), dropping directory structure. When two sources share
// a name the destination holds whichever copy finished last.
func CopyAssets(ctx context.Context, cfg *config.Config) (int, error) {
	matches, err := files.Expand(cfg.AssetPaths)
	if err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryFileSystem, "invalid asset glob").Fatal().Build()
	}
	outDir := cfg.AssetsOutputDir()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(copyWorkers)
	for _, src := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := files.CopyFile(src, filepath.Join(outDir, filepath.Base(src))); err != nil {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to copy asset").
					Fatal().WithContext("file", src).Build()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(matches), nil
}
