package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/canvasml/studio/pkg/filetype"
	"github.com/canvasml/studio/pkg/vfs"
)

// Markdown renders markdown files into a self-contained HTML page with
// syntax-highlighted code fences.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates the markdown adapter. The renderer is built on
// Initialize.
func NewMarkdown() *Markdown { return &Markdown{} }

func (*Markdown) ID() string { return filetype.EngineMarkdown }

func (*Markdown) Supports() Support {
	return Support{
		Categories: []filetype.Category{filetype.CategoryDocumentation},
		Extensions: []string{".md", ".mdx", ".markdown"},
	}
}

func (m *Markdown) Initialize(context.Context) error {
	m.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(highlighting.WithStyle("github")),
		),
		goldmark.WithRendererOptions(ghtml.WithUnsafe()),
	)
	return nil
}

func (m *Markdown) Preview(_ context.Context, p *Project, active *vfs.File) (string, error) {
	if m.md == nil {
		return "", errors.New("markdown adapter not initialized")
	}
	f := m.pick(p, active)
	if f == nil {
		return "", errors.New("no markdown document in project")
	}
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(f.Content), &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return fmt.Sprintf(markdownPage, html.EscapeString(f.Name), buf.String()), nil
}

func (m *Markdown) Update(ctx context.Context, p *Project, changed []*vfs.File) (string, error) {
	for _, f := range changed {
		if m.Supports().HasExtension(path.Ext(f.Path)) {
			return m.Preview(ctx, p, f)
		}
	}
	return m.Preview(ctx, p, nil)
}

func (*Markdown) Destroy() error { return nil }

func (m *Markdown) pick(p *Project, active *vfs.File) *vfs.File {
	sup := m.Supports()
	ok := func(f *vfs.File) bool {
		return f != nil && sup.HasExtension(strings.ToLower(path.Ext(f.Path)))
	}
	if ok(active) {
		return active
	}
	if e := p.Entry(); ok(e) {
		return e
	}
	for _, f := range p.Files {
		if ok(f) {
			return f
		}
	}
	return nil
}

const markdownPage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body{max-width:48rem;margin:2rem auto;padding:0 1rem;font-family:system-ui,sans-serif;line-height:1.6}
pre{overflow-x:auto;padding:1em;border-radius:6px}
code{font-family:ui-monospace,SFMono-Regular,monospace}
table{border-collapse:collapse}
td,th{border:1px solid #ccc;padding:.3em .6em}
</style>
</head>
<body>
%s</body>
</html>
`
