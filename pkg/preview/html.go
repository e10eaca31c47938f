package preview

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/canvasml/studio/pkg/filetype"
	"github.com/canvasml/studio/pkg/vfs"
)

// HTML is the pass-through adapter: a page's content is already the markup.
type HTML struct{}

// NewHTML creates the HTML pass-through adapter.
func NewHTML() *HTML { return &HTML{} }

func (*HTML) ID() string { return filetype.EngineHTML }

func (*HTML) Supports() Support {
	return Support{
		Categories: []filetype.Category{filetype.CategoryPage},
		Extensions: []string{".html", ".htm", ".svg"},
	}
}

func (*HTML) Initialize(context.Context) error { return nil }

func (h *HTML) Preview(_ context.Context, p *Project, active *vfs.File) (string, error) {
	f := h.pick(p, active)
	if f == nil {
		return "", errors.New("no html document in project")
	}
	return f.Content, nil
}

func (h *HTML) Update(ctx context.Context, p *Project, changed []*vfs.File) (string, error) {
	for _, f := range changed {
		if h.Supports().HasExtension(path.Ext(f.Path)) {
			return f.Content, nil
		}
	}
	return h.Preview(ctx, p, nil)
}

func (*HTML) Destroy() error { return nil }

// pick prefers the active file, then the entry point, then the first page.
func (h *HTML) pick(p *Project, active *vfs.File) *vfs.File {
	sup := h.Supports()
	ok := func(f *vfs.File) bool {
		return f != nil &&
			(sup.HasExtension(strings.ToLower(path.Ext(f.Path))) || sup.HasCategory(f.Category))
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
