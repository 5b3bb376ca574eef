// Package minify collapses whitespace in rendered pages.
package minify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/html"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

const mimeHTML = "text/html"

// Minifier removes insignificant whitespace from HTML. Every other byte
// (tag and attribute case, quotes, entities, comments, doctype) is copied
// from the input unchanged.
type Minifier struct {
	m *tdminify.M
}

// New returns a whitespace-only HTML minifier.
func New() *Minifier {
	m := tdminify.New()
	m.AddFunc(mimeHTML, collapseHTML)
	return &Minifier{m: m}
}

// HTML minifies src into dst.
func (mn *Minifier) HTML(dst io.Writer, src io.Reader) error {
	return mn.m.Minify(mimeHTML, dst, src)
}

// Bytes minifies b.
func (mn *Minifier) Bytes(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := mn.HTML(&buf, bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// blockTags are elements around which whitespace never renders.
var blockTags = map[string]bool{
	"html": true, "head": true, "body": true, "title": true, "meta": true, "link": true,
	"style": true, "script": true, "base": true,
	"table": true, "thead": true, "tbody": true, "tfoot": true, "tr": true, "td": true, "th": true,
	"caption": true, "colgroup": true, "col": true, "center": true,
	"div": true, "p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true, "hr": true, "br": true,
	"pre": true, "blockquote": true, "form": true, "section": true, "header": true, "footer": true,
	"article": true, "nav": true, "main": true, "aside": true,
}

// verbatimTags keep their content byte for byte.
var verbatimTags = map[string]bool{"pre": true, "textarea": true, "script": true, "style": true}

// collapseHTML is registered on the minify dispatcher for text/html.
func collapseHTML(_ *tdminify.M, w io.Writer, r io.Reader, _ map[string]string) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	// The lexer lower-cases tag names in place; tokens are copied from src.
	in := parse.NewInputBytes(bytes.Clone(src))
	l := html.NewLexer(in)
	c := collapser{afterBlock: true, out: make([]byte, 0, len(src))}

	for {
		tt, data := l.Next()
		if tt == html.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			_, err := w.Write(c.out)
			return err
		}
		end := in.Offset()
		tok := src[end-len(data) : end]

		switch tt {
		case html.TextToken:
			if c.verbatim > 0 {
				c.write(tok)
			} else {
				c.text(tok)
			}
		case html.StartTagToken:
			name := strings.ToLower(string(l.Text()))
			c.tag(tok, blockTags[name])
			if verbatimTags[name] {
				c.verbatim++
				c.open = name
			} else {
				c.open = ""
			}
		case html.StartTagVoidToken:
			if c.open != "" {
				c.verbatim--
				c.open = ""
			}
			c.write(tok)
		case html.EndTagToken:
			name := strings.ToLower(string(l.Text()))
			if verbatimTags[name] && c.verbatim > 0 {
				c.verbatim--
			}
			c.tag(tok, blockTags[name])
		case html.AttributeToken:
			if len(tok) > 0 && isSpace(tok[0]) {
				tok = append([]byte{' '}, bytes.TrimLeft(tok, spaceChars)...)
			}
			c.write(tok)
		case html.CommentToken:
			c.flush()
			c.write(tok)
		case html.DoctypeToken:
			c.tag(tok, true)
		case html.SvgToken, html.MathToken:
			c.tag(tok, false)
		default:
			c.write(tok)
		}
	}
}

const spaceChars = " \t\n\r\f"

// collapser accumulates output. A whitespace run becomes one space, and is
// dropped entirely next to a block-level tag.
type collapser struct {
	out []byte
	// pending is a space owed before the next inline content.
	pending bool
	// afterBlock is set when the last token emitted was block-level.
	afterBlock bool
	// verbatim counts open pre, textarea, script and style elements.
	verbatim int
	// open is the verbatim element whose start tag is still being lexed.
	open string
}

func (c *collapser) write(b []byte) {
	c.out = append(c.out, b...)
}

func (c *collapser) flush() {
	if c.pending {
		c.out = append(c.out, ' ')
		c.pending = false
	}
}

func (c *collapser) tag(tok []byte, block bool) {
	if block && c.verbatim == 0 {
		c.pending = false
	} else {
		c.flush()
	}
	c.write(tok)
	c.afterBlock = block
}

func (c *collapser) text(tok []byte) {
	s := collapseSpace(tok)
	if len(s) > 0 && s[0] == ' ' && !c.afterBlock {
		c.pending = true
	}
	body := bytes.Trim(s, " ")
	if len(body) == 0 {
		return
	}
	c.flush()
	c.write(body)
	c.afterBlock = false
	c.pending = s[len(s)-1] == ' '
}

func isSpace(ch byte) bool {
	return strings.IndexByte(spaceChars, ch) >= 0
}

// collapseSpace replaces every run of HTML whitespace with a single space.
func collapseSpace(b []byte) []byte {
	out := make([]byte, 0, len(b))
	inSpace := false
	for _, ch := range b {
		if isSpace(ch) {
			if !inSpace {
				out = append(out, ' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		out = append(out, ch)
	}
	return out
}

// Run minifies every .html file directly under cfg.TmpPath into
// cfg.MinifyOutputDir() and returns the written paths.
func (mn *Minifier) Run(ctx context.Context, cfg *config.Config) ([]string, error) {
	entries, err := os.ReadDir(cfg.TmpPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read tmp directory").
			Fatal().WithContext("path", cfg.TmpPath).Build()
	}

	outDir := cfg.MinifyOutputDir()
	var written []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}
		src := filepath.Join(cfg.TmpPath, e.Name())
		dst := filepath.Join(outDir, e.Name())
		if err := mn.file(src, dst); err != nil {
			return written, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to minify page").
				Fatal().WithContext("file", src).Build()
		}
		observability.DebugContext(ctx, "Minified page", logfields.File(src), logfields.Path(dst))
		written = append(written, dst)
	}
	return written, nil
}

func (mn *Minifier) file(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	out, err := mn.Bytes(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, out, 0o644)
}
