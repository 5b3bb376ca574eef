package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aymerick/raymond"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

// TemplateExt marks page, layout and partial templates.
const TemplateExt = ".hbs"

// BuildInfo is exposed to templates as {{build.*}}.
type BuildInfo struct {
	Env    string
	ID     string
	Commit string
	Branch string
}

func (b BuildInfo) context() map[string]any {
	return map[string]any{
		"env":    b.Env,
		"id":     b.ID,
		"commit": b.Commit,
		"branch": b.Branch,
	}
}

// Page is a page template found under views.pagesBasePath.
type Page struct {
	Name     string // base name
	Template string // template path
	CSS      string // expected compiled stylesheet
}

// Renderer renders the pages of one configuration.
type Renderer struct {
	cfg      *config.Config
	partials map[string]string
	// sources records the file each partial name was loaded from.
	sources map[string]string
}

// New loads every partial and layout template. Partials and layouts share
// one namespace; a name defined twice is an error.
func New(cfg *config.Config) (*Renderer, error) {
	r := &Renderer{cfg: cfg, partials: make(map[string]string), sources: make(map[string]string)}
	seen := make(map[string]bool)
	for _, dir := range []string{cfg.Views.PartialPath, cfg.Views.LayoutPath} {
		if dir == "" || seen[filepath.Clean(dir)] {
			continue
		}
		seen[filepath.Clean(dir)] = true
		if err := r.loadPartials(dir); err != nil {
			var dup *duplicatePartialError
			if errors.As(err, &dup) {
				return nil, ferrors.RenderError(dup.Error()).
					WithContext("name", dup.name).Build()
			}
			return nil, ferrors.WrapError(err, ferrors.CategoryRender, "failed to load partials").
				Fatal().WithContext("path", dir).Build()
		}
	}
	return r, nil
}

func (r *Renderer) loadPartials(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != TemplateExt {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(strings.TrimSuffix(rel, TemplateExt))
		if prev, ok := r.sources[name]; ok {
			return &duplicatePartialError{name: name, first: prev, second: path}
		}
		r.partials[name] = string(data)
		r.sources[name] = path
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

type duplicatePartialError struct {
	name, first, second string
}

func (e *duplicatePartialError) Error() string {
	return fmt.Sprintf("partial %q is defined by both %s and %s", e.name, e.first, e.second)
}

// Partials lists the registered partial names.
func (r *Renderer) Partials() []string {
	names := make([]string, 0, len(r.partials))
	for name := range r.partials {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BaseName returns the file name up to its first dot.
func BaseName(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// Pages lists the page templates directly under views.pagesBasePath.
func (r *Renderer) Pages() ([]Page, error) {
	dir := r.cfg.Views.PagesBasePath
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "failed to read pages directory").
			Fatal().WithContext("path", dir).Build()
	}
	var pages []Page
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != TemplateExt {
			continue
		}
		name := BaseName(e.Name())
		pages = append(pages, Page{
			Name:     name,
			Template: filepath.Join(dir, e.Name()),
			CSS:      filepath.Join(r.cfg.PageCSSDir(), name+".css"),
		})
	}
	return pages, nil
}

// Preflight fails if any page lacks its compiled stylesheet. The error names
// both the missing CSS file and the source stylesheet expected to produce it.
func (r *Renderer) Preflight(pages []Page) error {
	var missing []string
	for _, p := range pages {
		if _, err := os.Stat(p.CSS); err == nil {
			continue
		}
		source := filepath.Join(r.cfg.Views.PageStylesPath, p.Name+".scss")
		missing = append(missing, fmt.Sprintf("page %q: missing compiled stylesheet %s (expected source %s)", p.Name, p.CSS, source))
	}
	if len(missing) == 0 {
		return nil
	}
	return ferrors.RenderError(strings.Join(missing, "; ")).
		WithContext("missing", len(missing)).
		Build()
}

// loadInlineCSS reads every compiled page stylesheet keyed by its name
// without the final extension.
func (r *Renderer) loadInlineCSS() (map[string]any, error) {
	dir := r.cfg.PageCSSDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	css := make(map[string]any, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		css[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = string(data)
	}
	return css, nil
}

func (r *Renderer) parse(source string) (*raymond.Template, error) {
	tpl, err := raymond.Parse(source)
	if err != nil {
		return nil, err
	}
	tpl.RegisterHelpers(r.helpers())
	tpl.RegisterPartials(r.partials)
	return tpl, nil
}

// RenderAll renders every page concurrently into <tmp>/<name>.html and
// returns the written paths. Nothing is rendered unless every page passes
// Preflight. Render failures are joined into one fatal render error.
func (r *Renderer) RenderAll(ctx context.Context, overlay config.Overlay, build BuildInfo) ([]string, error) {
	pages, err := r.Pages()
	if err != nil {
		return nil, err
	}
	if err := r.Preflight(pages); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}

	inline, err := r.loadInlineCSS()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "failed to read compiled stylesheets").
			Fatal().WithContext("path", r.cfg.PageCSSDir()).Build()
	}
	if err := os.MkdirAll(r.cfg.TmpPath, 0o755); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create tmp directory").
			Fatal().WithContext("path", r.cfg.TmpPath).Build()
	}

	written := make([]string, len(pages))
	errs := make([]error, len(pages))
	var g errgroup.Group
	for i, page := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			out, err := r.renderPage(page, overlay, build, inline)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", page.Template, err)
				return nil
			}
			written[i] = out
			observability.DebugContext(ctx, "Rendered page", logfields.Page(page.Name), logfields.Path(out))
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "failed to render pages").Fatal().Build()
	}
	return written, nil
}

func (r *Renderer) renderPage(page Page, overlay config.Overlay, build BuildInfo, inline map[string]any) (string, error) {
	source, err := os.ReadFile(page.Template)
	if err != nil {
		return "", err
	}
	own, err := os.ReadFile(page.CSS)
	if err != nil {
		return "", err
	}

	data := make(map[string]any, len(overlay)+3)
	for k, v := range overlay {
		data[k] = v
	}
	data["inlineCss"] = inline
	data["cssContent"] = string(own)
	data["build"] = build.context()

	tpl, err := r.parse(string(source))
	if err != nil {
		return "", err
	}
	html, err := tpl.Exec(data)
	if err != nil {
		return "", err
	}

	out := filepath.Join(r.cfg.TmpPath, page.Name+".html")
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return "", err
	}
	return out, nil
}
