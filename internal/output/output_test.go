package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(root string) *config.Config {
	return &config.Config{
		TmpPath:         filepath.Join(root, "tmp"),
		DistPath:        filepath.Join(root, "dist"),
		EmailSenderPath: filepath.Join(root, "email-sender"),
		AssetPaths:      []string{filepath.Join(root, "src", "assets", "**", "*")},
	}
}

func TestClean_Idempotent(t *testing.T) {
	cfg := testConfig(t.TempDir())
	writeFile(t, filepath.Join(cfg.TmpPath, "a.html"), "a")
	writeFile(t, filepath.Join(cfg.DistPath, "nested", "b.html"), "b")

	ctx := context.Background()
	require.NoError(t, Clean(ctx, cfg.DistPath, cfg.TmpPath, cfg.EmailSenderPath))
	assert.NoDirExists(t, cfg.TmpPath)
	assert.NoDirExists(t, cfg.DistPath)

	require.NoError(t, Clean(ctx, cfg.DistPath, cfg.TmpPath, cfg.EmailSenderPath))
	require.NoError(t, Clean(ctx, ""))
}

func TestCopyAssets_Flattens(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	writeFile(t, filepath.Join(root, "src", "assets", "logo.png"), "png")
	writeFile(t, filepath.Join(root, "src", "assets", "fonts", "deep", "font.woff"), "woff")

	n, err := CopyAssets(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(cfg.AssetsOutputDir(), "logo.png"))
	assert.FileExists(t, filepath.Join(cfg.AssetsOutputDir(), "font.woff"))
	assert.NoDirExists(t, filepath.Join(cfg.AssetsOutputDir(), "fonts"))
}

func TestCopyAssets_NoMatches(t *testing.T) {
	cfg := testConfig(t.TempDir())
	n, err := CopyAssets(context.Background(), cfg)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublishDist_SkipsStyles(t *testing.T) {
	cfg := testConfig(t.TempDir())
	writeFile(t, filepath.Join(cfg.TmpPath, "example.html"), "<p>x</p>")
	writeFile(t, filepath.Join(cfg.TmpPath, "minify", "example.html"), "<p>x</p>")
	writeFile(t, filepath.Join(cfg.TmpPath, "assets", "logo.png"), "png")
	writeFile(t, filepath.Join(cfg.TmpPath, "styles", "pages", "example.css"), "p{}")
	writeFile(t, filepath.Join(cfg.TmpPath, "stylesheet.txt"), "kept")

	n, err := PublishDist(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.FileExists(t, filepath.Join(cfg.DistPath, "example.html"))
	assert.FileExists(t, filepath.Join(cfg.DistPath, "minify", "example.html"))
	assert.FileExists(t, filepath.Join(cfg.DistPath, "assets", "logo.png"))
	assert.FileExists(t, filepath.Join(cfg.DistPath, "stylesheet.txt"))
	assert.NoDirExists(t, filepath.Join(cfg.DistPath, "styles"))
}

func TestPublishEmailSender_HTMLOnly(t *testing.T) {
	cfg := testConfig(t.TempDir())
	writeFile(t, filepath.Join(cfg.TmpPath, "example.html"), "<p>x</p>")
	writeFile(t, filepath.Join(cfg.TmpPath, "minify", "example.html"), "<p>x</p>")
	writeFile(t, filepath.Join(cfg.TmpPath, "assets", "logo.png"), "png")

	n, err := PublishEmailSender(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(cfg.EmailSenderPath, "example.html"))
	assert.FileExists(t, filepath.Join(cfg.EmailSenderPath, "minify", "example.html"))
	assert.NoFileExists(t, filepath.Join(cfg.EmailSenderPath, "assets", "logo.png"))
}

func TestPublish_MissingTmpIsNoop(t *testing.T) {
	cfg := testConfig(t.TempDir())
	n, err := PublishDist(context.Background(), cfg)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = PublishEmailSender(context.Background(), cfg)
	require.NoError(t, err)
	assert.Zero(t, n)
}
