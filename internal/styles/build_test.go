package styles

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// upperCompiler upper-cases its input and rejects sources containing "broken".
type upperCompiler struct{ calls []string }

func (u *upperCompiler) Compile(_ context.Context, src Source) ([]byte, error) {
	u.calls = append(u.calls, src.Path)
	if strings.Contains(src.Content, "broken") {
		return nil, errors.New("syntax error")
	}
	return []byte(strings.ToUpper(src.Content)), nil
}

func (u *upperCompiler) Close() error { return nil }

func testConfig(root string) *config.Config {
	return &config.Config{
		TmpPath:     filepath.Join(root, "tmp"),
		StylesPaths: []string{filepath.Join(root, "src", "styles", "**", "*.scss")},
	}
}

func TestBuild_WritesRelativeToGlobBase(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "styles", "pages", "example.scss"), "p{color:red}")
	writeFile(t, filepath.Join(root, "src", "styles", "common.scss"), "a{}")
	writeFile(t, filepath.Join(root, "src", "styles", "_vars.scss"), "$x: 1;")
	cfg := testConfig(root)
	c := &upperCompiler{}

	res, err := Build(context.Background(), cfg, c)
	require.NoError(t, err)
	assert.Len(t, res.Written, 2)
	assert.Empty(t, res.Failed)
	assert.Len(t, c.calls, 2, "partials are not compiled on their own")

	data, err := os.ReadFile(filepath.Join(cfg.PageCSSDir(), "example.css"))
	require.NoError(t, err)
	assert.Equal(t, "P{COLOR:RED}", string(data))
	assert.FileExists(t, filepath.Join(cfg.StylesOutputDir(), "common.css"))
	assert.NoFileExists(t, filepath.Join(cfg.StylesOutputDir(), "_vars.css"))
}

func TestBuild_FailureIsWarningAndContinues(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "styles", "pages", "a.scss"), "broken")
	writeFile(t, filepath.Join(root, "src", "styles", "pages", "b.scss"), "b{}")
	cfg := testConfig(root)

	res, err := Build(context.Background(), cfg, &upperCompiler{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryStyle))
	assert.True(t, ferrors.HasSeverity(err, ferrors.SeverityWarning))
	assert.Contains(t, err.Error(), "syntax error")
	assert.Len(t, res.Failed, 1)
	assert.FileExists(t, filepath.Join(cfg.PageCSSDir(), "b.css"))
	assert.NoFileExists(t, filepath.Join(cfg.PageCSSDir(), "a.css"))
}

func TestBuild_NoMatchesIsNoop(t *testing.T) {
	cfg := testConfig(t.TempDir())
	res, err := Build(context.Background(), cfg, &upperCompiler{})
	require.NoError(t, err)
	assert.Empty(t, res.Written)
}

func TestEsbuild_CompilesPlainAndNestedCSS(t *testing.T) {
	c := NewEsbuild("expanded")
	css, err := c.Compile(context.Background(), Source{
		Path:    "example.css",
		Content: ".card { color: red; & .title { font-weight: bold; } }",
	})
	require.NoError(t, err)
	out := string(css)
	assert.Contains(t, out, "color: red")
	assert.Contains(t, out, ".card .title")
	assert.NotContains(t, out, "&")
}

func TestEsbuild_RejectsSassSources(t *testing.T) {
	c := NewEsbuild("expanded")
	for _, name := range []string{"example.scss", "example.SASS"} {
		_, err := c.Compile(context.Background(), Source{
			Path:    name,
			Content: "$brand: #f00; .btn { color: $brand; }",
		})
		assert.ErrorIs(t, err, ErrSassSource, name)
	}
}

func TestBuild_EsbuildReportsSassSources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "styles", "pages", "example.scss"), "$brand: #f00; p { color: $brand; }")
	cfg := testConfig(root)

	res, err := Build(context.Background(), cfg, NewEsbuild("expanded"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryStyle))
	assert.Contains(t, err.Error(), "example.scss")
	assert.Contains(t, err.Error(), "dartsass")
	assert.Len(t, res.Failed, 1)
	assert.NoFileExists(t, filepath.Join(cfg.PageCSSDir(), "example.css"))
}

// dartSass starts Dart Sass from PATH, skipping when it is not installed.
func dartSass(t *testing.T) *DartSass {
	t.Helper()
	if _, err := exec.LookPath("sass"); err != nil {
		t.Skip("sass not found on PATH")
	}
	c, err := NewDartSass("", "expanded")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

const paletteSCSS = `$brand: #ff0000;

@mixin button($color) {
  color: $color;
  &:hover {
    color: #000000;
  }
}
`

func TestDartSass_CompilesSassSyntax(t *testing.T) {
	c := dartSass(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "_palette.scss"), paletteSCSS)

	css, err := c.Compile(context.Background(), Source{
		Path:         filepath.Join(dir, "example.scss"),
		Content:      "@use \"palette\";\n.btn { @include palette.button(palette.$brand); .label { font-weight: bold; } }\n",
		IncludePaths: []string{dir},
	})
	require.NoError(t, err)
	out := string(css)
	assert.Contains(t, out, "color: #ff0000")
	assert.Contains(t, out, ".btn:hover")
	assert.Contains(t, out, ".btn .label")
	for _, sass := range []string{"$brand", "@use", "@include", "@mixin", "&"} {
		assert.NotContains(t, out, sass)
	}
}

func TestDartSass_UndefinedVariableFails(t *testing.T) {
	c := dartSass(t)
	_, err := c.Compile(context.Background(), Source{
		Path:    filepath.Join(t.TempDir(), "example.scss"),
		Content: ".btn { color: $missing; }",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestBuild_DartSassResolvesPartials(t *testing.T) {
	c := dartSass(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "styles", "_palette.scss"), paletteSCSS)
	writeFile(t, filepath.Join(root, "src", "styles", "pages", "example.scss"),
		"@use \"palette\";\np { @include palette.button(palette.$brand); }\n")
	cfg := testConfig(root)

	res, err := Build(context.Background(), cfg, c)
	require.NoError(t, err)
	assert.Len(t, res.Written, 1)

	data, err := os.ReadFile(filepath.Join(cfg.PageCSSDir(), "example.css"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "color: #ff0000")
	assert.NotContains(t, string(data), "$brand")
}

func TestNewCompiler_Backends(t *testing.T) {
	c, err := NewCompiler(config.StylesConfig{Backend: config.StyleBackendEsbuild})
	require.NoError(t, err)
	assert.IsType(t, &Esbuild{}, c)

	_, err = NewCompiler(config.StylesConfig{Backend: "less"})
	assert.Error(t, err)

	// Dart Sass is the default and comes from PATH.
	c, err = NewCompiler(config.StylesConfig{})
	if _, lookErr := exec.LookPath("sass"); lookErr != nil {
		require.Error(t, err)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryStyle))
		assert.Contains(t, err.Error(), "sass")
		return
	}
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.IsType(t, &DartSass{}, c)
}
