package preview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/canvasml/studio/pkg/filetype"
	"github.com/canvasml/studio/pkg/vfs"
)

// fakeAdapter is a configurable test double.
type fakeAdapter struct {
	id        string
	support   Support
	initCalls atomic.Int32
	initErr   error
	markup    string
	renderErr error
	panics    bool
	destroyed bool
}

func (f *fakeAdapter) ID() string       { return f.id }
func (f *fakeAdapter) Supports() Support { return f.support }

func (f *fakeAdapter) Initialize(context.Context) error {
	f.initCalls.Add(1)
	return f.initErr
}

func (f *fakeAdapter) Preview(context.Context, *Project, *vfs.File) (string, error) {
	if f.panics {
		panic("render bug")
	}
	return f.markup, f.renderErr
}

func (f *fakeAdapter) Update(ctx context.Context, p *Project, _ []*vfs.File) (string, error) {
	return f.Preview(ctx, p, nil)
}

func (f *fakeAdapter) Destroy() error {
	f.destroyed = true
	return nil
}

func referenceRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewHTML())
	r.Register(NewMarkdown())
	r.Register(NewData())
	return r
}

func TestRegistry_ForFile_MarkdownAndUnknown(t *testing.T) {
	r := referenceRegistry()
	fs := vfs.New()
	notes := fs.Create("/notes.md", "# Hello", nil)
	unknown := fs.Create("/data.unknownext", "???", nil)

	if a := r.ForFile(notes); a == nil || a.ID() != filetype.EngineMarkdown {
		t.Errorf("ForFile(/notes.md) = %v, want markdown", a)
	}
	if a := r.ForFile(unknown); a != nil {
		t.Errorf("ForFile(/data.unknownext) = %s, want nil", a.ID())
	}

	res := r.PreviewFile(context.Background(), unknown)
	if !res.Success {
		t.Fatalf("no-adapter previewFile should succeed, got %+v", res)
	}
	if !strings.Contains(res.Markup, "No preview available") {
		t.Errorf("markup = %q, want informational no-preview page", res.Markup)
	}
}

func TestRegistry_ForFile_ExplicitEngineWins(t *testing.T) {
	r := referenceRegistry()
	f := &vfs.File{Path: "/page.md", Category: filetype.CategoryDocumentation, PreviewEngine: filetype.EngineHTML}
	if a := r.ForFile(f); a == nil || a.ID() != filetype.EngineHTML {
		t.Errorf("explicit engine override not honored: %v", a)
	}

	// An explicit "none" suppresses the detector suggestion entirely.
	f.PreviewEngine = filetype.EngineNone
	if a := r.ForFile(f); a != nil {
		t.Errorf("engine none should resolve to no adapter, got %s", a.ID())
	}
}

func TestRegistry_Register_LastWins(t *testing.T) {
	r := NewRegistry()
	first := &fakeAdapter{id: "x", markup: "first"}
	second := &fakeAdapter{id: "x", markup: "second"}
	r.Register(first)
	r.Register(second)

	a, ok := r.Adapter("x")
	if !ok || a != Adapter(second) {
		t.Error("last registration should win")
	}
}

func TestRegistry_Initialize_OncePerProcess(t *testing.T) {
	r := NewRegistry()
	fa := &fakeAdapter{id: "x"}
	r.Register(fa)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Initialize(context.Background(), "x"); err != nil {
				t.Errorf("Initialize: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := fa.initCalls.Load(); n != 1 {
		t.Errorf("Initialize ran %d times, want 1", n)
	}
}

func TestRegistry_Initialize_FailureRetries(t *testing.T) {
	r := NewRegistry()
	fa := &fakeAdapter{id: "x", initErr: errors.New("boom")}
	r.Register(fa)

	if err := r.Initialize(context.Background(), "x"); err == nil {
		t.Fatal("want init error")
	}
	fa.initErr = nil
	if err := r.Initialize(context.Background(), "x"); err != nil {
		t.Fatalf("retry after failed init: %v", err)
	}
	if n := fa.initCalls.Load(); n != 2 {
		t.Errorf("initCalls = %d, want 2", n)
	}
}

func TestRegistry_Preview_ExplicitEngineMissing(t *testing.T) {
	r := NewRegistry()
	res := r.Preview(context.Background(), vfs.New(), &Options{Engine: "bundler"})
	if res.Success || len(res.Errors) == 0 {
		t.Errorf("missing engine should be a structured failure, got %+v", res)
	}
}

func TestRegistry_Preview_AdapterPanicContained(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeAdapter{id: filetype.EngineBundler, panics: true})

	res := r.Preview(context.Background(), vfs.New(), nil)
	if res.Success {
		t.Fatal("panicking adapter should yield failure")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0], "panicked") {
		t.Errorf("errors = %v, want panic normalized", res.Errors)
	}
}

func TestRegistry_Preview_ActiveFileResolution(t *testing.T) {
	r := referenceRegistry()
	fs := vfs.New()
	fs.Create("/readme.md", "# Title\n\nbody", nil)

	res := r.Preview(context.Background(), fs, &Options{ActiveFile: "/readme.md"})
	if !res.Success {
		t.Fatalf("preview failed: %v", res.Errors)
	}
	if res.Engine != filetype.EngineMarkdown {
		t.Errorf("engine = %s, want markdown", res.Engine)
	}
	if !strings.Contains(res.Markup, "<h1") {
		t.Errorf("markup missing rendered heading: %q", res.Markup)
	}
}

func TestRegistry_Update_KeyedOffChangedFiles(t *testing.T) {
	r := referenceRegistry()
	fs := vfs.New()
	style := fs.Create("/app.css", "body{}", nil) // no adapter
	page := fs.Create("/index.html", "<h1>hi</h1>", nil)

	res := r.Update(context.Background(), fs, []*vfs.File{style, page}, nil)
	if !res.Success || res.Engine != filetype.EngineHTML {
		t.Fatalf("update = %+v, want html engine success", res)
	}
	if res.Markup != "<h1>hi</h1>" {
		t.Errorf("markup = %q", res.Markup)
	}

	res = r.Update(context.Background(), fs, []*vfs.File{style}, nil)
	if res.Success {
		t.Error("update with no resolvable adapter should fail structurally")
	}
}

func TestRegistry_Destroy(t *testing.T) {
	r := NewRegistry()
	fa := &fakeAdapter{id: "x"}
	r.Register(fa)
	if err := r.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if !fa.destroyed {
		t.Error("adapter not destroyed")
	}
}

func TestRegistry_PreviewFile_Markdown(t *testing.T) {
	r := referenceRegistry()
	f := vfs.New().Create("/notes.md", "# Notes\n\n- a\n- b", nil)

	res := r.PreviewFile(context.Background(), f)
	if !res.Success || res.Engine != filetype.EngineMarkdown {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Markup, "<li>") {
		t.Errorf("markup missing list items: %q", res.Markup)
	}
}
