package preview

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/canvasml/studio/pkg/filetype"
	"github.com/canvasml/studio/pkg/vfs"
)

// Registry resolves files to adapters and coordinates their lifecycle. It is
// an explicit, constructible object so tests get isolated instances; Default
// is the process-wide convenience.
type Registry struct {
	mu       sync.Mutex
	adapters map[string]Adapter
	inits    map[string]*initOp
}

// initOp memoizes one in-flight Initialize so concurrent callers for the same
// engine await a single run.
type initOp struct {
	done chan struct{}
	err  error
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		inits:    make(map[string]*initOp),
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry with the reference adapters
// registered.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
		defaultReg.Register(NewHTML())
		defaultReg.Register(NewMarkdown())
		defaultReg.Register(NewData())
	})
	return defaultReg
}

// Register adds an adapter. The last registration per identifier wins.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[a.ID()]; exists {
		slog.Debug("preview: adapter replaced", "engine", a.ID())
	}
	r.adapters[a.ID()] = a
}

// Adapter returns the adapter registered under id.
func (r *Registry) Adapter(id string) (Adapter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.adapters[id]
	return a, ok
}

// IDs returns the registered engine identifiers, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ForFile resolves the adapter for a file: the file's explicit engine (when
// not "none") wins, then the type detector's suggestion, then a scan over
// declared category/extension support. Returns nil when nothing applies.
func (r *Registry) ForFile(f *vfs.File) Adapter {
	if f == nil {
		return nil
	}
	engine := f.PreviewEngine
	if engine == "" {
		engine = filetype.Detect(f.Path).Engine
	}
	if engine == filetype.EngineNone {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.adapters[engine]; ok {
		return a
	}
	ext := strings.ToLower(path.Ext(f.Path))
	for _, id := range r.sortedIDsLocked() {
		s := r.adapters[id].Supports()
		if s.HasCategory(f.Category) || s.HasExtension(ext) {
			return r.adapters[id]
		}
	}
	return nil
}

func (r *Registry) sortedIDsLocked() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Initialize runs the adapter's Initialize lazily. A successful run is
// remembered for the life of the registry; a failed run is forgotten so the
// next caller retries. Concurrent callers for the same engine share one run.
func (r *Registry) Initialize(ctx context.Context, id string) error {
	r.mu.Lock()
	a, ok := r.adapters[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("preview: no adapter registered for engine %q", id)
	}
	if op, running := r.inits[id]; running {
		r.mu.Unlock()
		select {
		case <-op.done:
			return op.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	op := &initOp{done: make(chan struct{})}
	r.inits[id] = op
	r.mu.Unlock()

	op.err = a.Initialize(ctx)
	if op.err != nil {
		r.mu.Lock()
		delete(r.inits, id)
		r.mu.Unlock()
	}
	close(op.done)
	return op.err
}

// Preview renders the project. Adapter resolution order: explicit engine from
// opts, then the active file's adapter, then the default bundler engine.
func (r *Registry) Preview(ctx context.Context, fs *vfs.FS, opts *Options) *Result {
	start := time.Now()
	if opts == nil {
		opts = &Options{}
	}

	var active *vfs.File
	if opts.ActiveFile != "" {
		if f, ok := fs.Get(opts.ActiveFile); ok {
			active = f
		}
	}

	var a Adapter
	switch {
	case opts.Engine != "":
		var ok bool
		if a, ok = r.Adapter(opts.Engine); !ok {
			return failure(opts.Engine, start,
				"no adapter registered for engine "+opts.Engine)
		}
	case active != nil:
		a = r.ForFile(active)
	}
	if a == nil {
		var ok bool
		if a, ok = r.Adapter(filetype.EngineBundler); !ok {
			return failure(filetype.EngineBundler, start,
				"no adapter resolved and no bundler registered")
		}
	}

	return r.run(ctx, a, start, func(p *Project) (string, error) {
		return a.Preview(ctx, p, active)
	}, fs, opts)
}

// Update re-renders after a change batch. Resolution is keyed off the first
// changed file that maps to a known adapter.
func (r *Registry) Update(ctx context.Context, fs *vfs.FS, changed []*vfs.File, opts *Options) *Result {
	start := time.Now()
	if opts == nil {
		opts = &Options{}
	}

	var a Adapter
	for _, f := range changed {
		if a = r.ForFile(f); a != nil {
			break
		}
	}
	if a == nil {
		return failure("", start, "no adapter resolved for changed files")
	}

	return r.run(ctx, a, start, func(p *Project) (string, error) {
		return a.Update(ctx, p, changed)
	}, fs, opts)
}

// PreviewFile renders a single file. A file with no applicable adapter gets
// an informational "no preview" success, not a failure.
func (r *Registry) PreviewFile(ctx context.Context, f *vfs.File) *Result {
	start := time.Now()
	a := r.ForFile(f)
	if a == nil {
		return success("", noPreviewMarkup(f), start)
	}
	if err := r.Initialize(ctx, a.ID()); err != nil {
		return failure(a.ID(), start, "initialize: "+err.Error())
	}
	p := &Project{Files: []*vfs.File{f}}
	markup, err := renderGuarded(func() (string, error) {
		return a.Preview(ctx, p, f)
	})
	if err != nil {
		return failure(a.ID(), start, err.Error())
	}
	return success(a.ID(), markup, start)
}

// run initializes the adapter, builds the project view, and renders with
// panic containment.
func (r *Registry) run(ctx context.Context, a Adapter, start time.Time,
	render func(*Project) (string, error), fs *vfs.FS, opts *Options) *Result {

	if err := r.Initialize(ctx, a.ID()); err != nil {
		return failure(a.ID(), start, "initialize: "+err.Error())
	}
	markup, err := renderGuarded(func() (string, error) {
		return render(buildProject(fs, opts))
	})
	if err != nil {
		slog.Warn("preview: render failed", "engine", a.ID(), "err", err)
		return failure(a.ID(), start, err.Error())
	}
	return success(a.ID(), markup, start)
}

// renderGuarded converts an adapter panic into an error.
func renderGuarded(fn func() (string, error)) (markup string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("adapter panicked: %v", rec)
		}
	}()
	return fn()
}

// Destroy tears down every registered adapter and forgets initializations.
func (r *Registry) Destroy() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for id, a := range r.adapters {
		if err := a.Destroy(); err != nil && first == nil {
			first = fmt.Errorf("preview: destroy %s: %w", id, err)
		}
	}
	r.inits = make(map[string]*initOp)
	return first
}

func noPreviewMarkup(f *vfs.File) string {
	p := ""
	if f != nil {
		p = f.Path
	}
	return fmt.Sprintf(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>No preview</title></head>
<body><p>No preview available for <code>%s</code>.</p></body>
</html>
`, html.EscapeString(p))
}
