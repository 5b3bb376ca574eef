package output

import (
	"context"
	"os"

	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

// Clean removes each directory recursively. Missing directories are ignored.
func Clean(ctx context.Context, dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to remove directory").
				Fatal().WithContext("path", dir).Build()
		}
		observability.DebugContext(ctx, "Removed directory", logfields.Path(dir))
	}
	return nil
}
