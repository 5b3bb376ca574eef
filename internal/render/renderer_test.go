package render

import (
	"context"
	"os"
	"path/filepath"
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

func fixture(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		TmpPath: filepath.Join(root, "tmp"),
		Views: config.ViewsConfig{
			PagesBasePath:  filepath.Join(root, "views", "pages"),
			LayoutPath:     filepath.Join(root, "views", "layouts"),
			PartialPath:    filepath.Join(root, "views", "partials"),
			PageStylesPath: "src/styles/pages",
		},
	}
	writeFile(t, filepath.Join(cfg.Views.LayoutPath, "base.hbs"),
		`<html><head><style>{{{cssContent}}}</style></head><body>{{#block "body"}}default{{/block}}{{#block "footer"}}<p>footer</p>{{/block}}</body></html>`)
	writeFile(t, filepath.Join(cfg.Views.PartialPath, "greeting.hbs"), `<h1>Hello {{name}}</h1>`)
	writeFile(t, filepath.Join(cfg.Views.PartialPath, "components", "button.hbs"), `<a href="{{baseUrl}}">Go</a>`)
	return cfg
}

func TestRenderAll_LayoutPartialsAndCSS(t *testing.T) {
	cfg := fixture(t)
	writeFile(t, filepath.Join(cfg.Views.PagesBasePath, "example.hbs"),
		`{{#extend "base"}}{{#content "body"}}{{> greeting}}<p>{{baseUrl}}</p>{{/content}}{{#content "footer" mode="append"}}<p>more</p>{{/content}}{{/extend}}`)
	writeFile(t, filepath.Join(cfg.PageCSSDir(), "example.css"), "p{color:red}")

	r, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "components/button", "greeting"}, r.Partials())

	written, err := r.RenderAll(context.Background(), config.Overlay{"name": "World", "baseUrl": "http://x/"}, BuildInfo{Env: "development"})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(cfg.TmpPath, "example.html")}, written)

	html, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.Equal(t,
		`<html><head><style>p{color:red}</style></head><body><h1>Hello World</h1><p>http://x/</p><p>footer</p><p>more</p></body></html>`,
		string(html))
}

func TestRenderAll_ContentModes(t *testing.T) {
	cfg := fixture(t)
	writeFile(t, filepath.Join(cfg.Views.PagesBasePath, "modes.hbs"),
		`{{#extend "base"}}{{#content "footer" mode="prepend"}}<p>first</p>{{/content}}{{/extend}}`)
	writeFile(t, filepath.Join(cfg.PageCSSDir(), "modes.css"), "")

	r, err := New(cfg)
	require.NoError(t, err)
	_, err = r.RenderAll(context.Background(), nil, BuildInfo{})
	require.NoError(t, err)

	html, err := os.ReadFile(filepath.Join(cfg.TmpPath, "modes.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `<body>default<p>first</p><p>footer</p></body>`)
}

func TestRenderAll_InlineCSSAndBuildContext(t *testing.T) {
	cfg := fixture(t)
	writeFile(t, filepath.Join(cfg.Views.PagesBasePath, "a.hbs"),
		`{{{lookup inlineCss "b"}}}|{{build.env}}|{{build.id}}|{{> components/button}}`)
	writeFile(t, filepath.Join(cfg.Views.PagesBasePath, "b.en.hbs"), `{{{cssContent}}}`)
	writeFile(t, filepath.Join(cfg.PageCSSDir(), "a.css"), "a{}")
	writeFile(t, filepath.Join(cfg.PageCSSDir(), "b.css"), "b{}")

	r, err := New(cfg)
	require.NoError(t, err)
	written, err := r.RenderAll(context.Background(), config.Overlay{"baseUrl": "https://cdn"}, BuildInfo{Env: "staging", ID: "42"})
	require.NoError(t, err)
	assert.Len(t, written, 2)

	a, err := os.ReadFile(filepath.Join(cfg.TmpPath, "a.html"))
	require.NoError(t, err)
	assert.Equal(t, `b{}|staging|42|<a href="https://cdn">Go</a>`, string(a))

	b, err := os.ReadFile(filepath.Join(cfg.TmpPath, "b.html"))
	require.NoError(t, err)
	assert.Equal(t, "b{}", string(b))
}

func TestRenderAll_MissingCSSFailsBeforeAnyOutput(t *testing.T) {
	cfg := fixture(t)
	writeFile(t, filepath.Join(cfg.Views.PagesBasePath, "ok.hbs"), `ok`)
	writeFile(t, filepath.Join(cfg.Views.PagesBasePath, "example.hbs"), `missing`)
	writeFile(t, filepath.Join(cfg.PageCSSDir(), "ok.css"), "")

	r, err := New(cfg)
	require.NoError(t, err)
	_, err = r.RenderAll(context.Background(), nil, BuildInfo{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRender))
	assert.Contains(t, err.Error(), filepath.Join(cfg.PageCSSDir(), "example.css"))
	assert.Contains(t, err.Error(), filepath.Join("src/styles/pages", "example.scss"))

	assert.NoFileExists(t, filepath.Join(cfg.TmpPath, "ok.html"))
	assert.NoFileExists(t, filepath.Join(cfg.TmpPath, "example.html"))
}

func TestRenderAll_UnresolvedPartialIsError(t *testing.T) {
	cfg := fixture(t)
	writeFile(t, filepath.Join(cfg.Views.PagesBasePath, "broken.hbs"), `{{> nowhere}}`)
	writeFile(t, filepath.Join(cfg.PageCSSDir(), "broken.css"), "")

	r, err := New(cfg)
	require.NoError(t, err)
	_, err = r.RenderAll(context.Background(), nil, BuildInfo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.hbs")
}

func TestRenderAll_UnknownLayoutIsError(t *testing.T) {
	cfg := fixture(t)
	writeFile(t, filepath.Join(cfg.Views.PagesBasePath, "x.hbs"), `{{#extend "missing"}}{{/extend}}`)
	writeFile(t, filepath.Join(cfg.PageCSSDir(), "x.css"), "")

	r, err := New(cfg)
	require.NoError(t, err)
	_, err = r.RenderAll(context.Background(), nil, BuildInfo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `layout "missing" not found`)
}

func TestHelpers(t *testing.T) {
	cfg := fixture(t)
	writeFile(t, filepath.Join(cfg.Views.PagesBasePath, "h.hbs"),
		`{{upper name}}|{{lower name}}|{{title phrase}}|{{{json tags}}}|{{{markdown body}}}`)
	writeFile(t, filepath.Join(cfg.PageCSSDir(), "h.css"), "")

	r, err := New(cfg)
	require.NoError(t, err)
	_, err = r.RenderAll(context.Background(), config.Overlay{
		"name":   "Mail",
		"phrase": "hello world",
		"tags":   []string{"a", "b"},
		"body":   "**hi**",
	}, BuildInfo{})
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(cfg.TmpPath, "h.html"))
	require.NoError(t, err)
	assert.Equal(t, "MAIL|mail|Hello World|[\"a\",\"b\"]|<p><strong>hi</strong></p>\n", string(out))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "example", BaseName("pages/example.hbs"))
	assert.Equal(t, "b", BaseName("b.en.hbs"))
	assert.Equal(t, "plain", BaseName("plain"))
}

func TestNew_MissingDirectoriesAreEmpty(t *testing.T) {
	cfg := &config.Config{Views: config.ViewsConfig{
		PartialPath: filepath.Join(t.TempDir(), "none"),
	}}
	r, err := New(cfg)
	require.NoError(t, err)
	assert.Empty(t, r.Partials())
}

func TestNew_DuplicateTemplateNameIsError(t *testing.T) {
	cfg := fixture(t)
	writeFile(t, filepath.Join(cfg.Views.PartialPath, "base.hbs"), `<p>partial</p>`)

	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRender))
	assert.True(t, ferrors.HasSeverity(err, ferrors.SeverityFatal))
	assert.Contains(t, err.Error(), `"base"`)
	assert.Contains(t, err.Error(), filepath.Join(cfg.Views.PartialPath, "base.hbs"))
	assert.Contains(t, err.Error(), filepath.Join(cfg.Views.LayoutPath, "base.hbs"))
}

func TestNew_SharedPartialAndLayoutDirectory(t *testing.T) {
	cfg := fixture(t)
	cfg.Views.LayoutPath = cfg.Views.PartialPath

	r, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"components/button", "greeting"}, r.Partials())
}
