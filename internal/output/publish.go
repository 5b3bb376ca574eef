package output

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	"git.home.luguber.info/inful/mailbuilder/internal/files"
	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

// stylesDir is the compiled stylesheet subtree of tmp, never published.
const stylesDir = "styles"

// PublishDist copies everything under cfg.TmpPath except the compiled
// stylesheets into cfg.DistPath.
func PublishDist(ctx context.Context, cfg *config.Config) (int, error) {
	n, err := copyTree(cfg.TmpPath, cfg.DistPath, func(rel string) bool {
		return rel != stylesDir && !strings.HasPrefix(rel, stylesDir+"/")
	})
	if err != nil {
		return n, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to publish dist").
			Fatal().WithContext("path", cfg.DistPath).Build()
	}
	observability.DebugContext(ctx, "Published dist", logfields.Path(cfg.DistPath), logfields.Count(n))
	return n, nil
}

// PublishEmailSender copies every HTML file under cfg.TmpPath, at any depth,
// into cfg.EmailSenderPath.
func PublishEmailSender(ctx context.Context, cfg *config.Config) (int, error) {
	n, err := copyTree(cfg.TmpPath, cfg.EmailSenderPath, func(rel string) bool {
		return strings.EqualFold(path.Ext(rel), ".html")
	})
	if err != nil {
		return n, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to publish email-sender").
			Fatal().WithContext("path", cfg.EmailSenderPath).Build()
	}
	observability.DebugContext(ctx, "Published email-sender", logfields.Path(cfg.EmailSenderPath), logfields.Count(n))
	return n, nil
}

func copyTree(src, dst string, keep files.Filter) (int, error) {
	n, err := files.CopyTree(src, dst, keep)
	if errors.Is(err, fs.ErrNotExist) && !files.Exists(src) {
		return 0, nil
	}
	return n, err
}
