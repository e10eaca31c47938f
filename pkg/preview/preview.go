// Package preview routes project files to rendering adapters and normalizes
// every outcome into a structured result.
//
// Adapters are a closed capability surface: identifier, supported content,
// initialize, render, update, destroy. The reference adapters in this package
// render in place (HTML pass-through, Markdown to HTML, data pretty-printing);
// compute-heavy backends such as bundlers or interpreters live behind the same
// interface out of process. The router never lets an adapter failure escape as
// a panic or raw error: callers always get a Result.
package preview

import (
	"context"
	"strings"
	"time"

	"github.com/canvasml/studio/pkg/filetype"
	"github.com/canvasml/studio/pkg/vfs"
)

// Adapter renders one category of project content into self-contained markup
// intended for sandboxed display. Sandboxing is the embedder's concern.
type Adapter interface {
	// ID is the engine identifier files select the adapter by.
	ID() string

	// Supports declares the categories and extensions the adapter accepts.
	Supports() Support

	// Initialize prepares the adapter. The registry calls it lazily and at
	// most once per process unless it fails.
	Initialize(ctx context.Context) error

	// Preview renders the project, focused on active when non-nil.
	Preview(ctx context.Context, p *Project, active *vfs.File) (string, error)

	// Update re-renders after the given files changed.
	Update(ctx context.Context, p *Project, changed []*vfs.File) (string, error)

	// Destroy releases adapter resources.
	Destroy() error
}

// Support declares what content an adapter accepts.
type Support struct {
	Categories []filetype.Category
	Extensions []string
}

// HasCategory reports whether c is a supported category.
func (s Support) HasCategory(c filetype.Category) bool {
	for _, sc := range s.Categories {
		if sc == c {
			return true
		}
	}
	return false
}

// HasExtension reports whether ext (with leading dot) is supported.
func (s Support) HasExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, se := range s.Extensions {
		if se == ext {
			return true
		}
	}
	return false
}

// Project is the ephemeral read-only view handed to adapters. Built per call
// from a VFS snapshot; adapters must not mutate it.
type Project struct {
	Name            string
	Framework       string
	EntryPoint      string
	Dependencies    map[string]string
	DevDependencies map[string]string
	Files           []*vfs.File
}

// Entry returns the project's entry file, if any.
func (p *Project) Entry() *vfs.File {
	for _, f := range p.Files {
		if p.EntryPoint != "" && f.Path == p.EntryPoint {
			return f
		}
		if p.EntryPoint == "" && f.IsEntryPoint {
			return f
		}
	}
	return nil
}

// Options configure one Preview call. All fields are optional.
type Options struct {
	// Engine forces a specific adapter, winning over file-based resolution.
	Engine string
	// ActiveFile is the path the preview should focus on.
	ActiveFile string

	Name            string
	Framework       string
	EntryPoint      string
	Dependencies    map[string]string
	DevDependencies map[string]string
}

// Result is the structured outcome of every router operation. Adapter-not-
// found, adapter error, and adapter panic all normalize into the same shape.
type Result struct {
	Success  bool          `json:"success"`
	Engine   string        `json:"engine,omitempty"`
	Markup   string        `json:"markup,omitempty"`
	Errors   []string      `json:"errors,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Duration time.Duration `json:"duration"`
}

func success(engine, markup string, start time.Time) *Result {
	return &Result{Success: true, Engine: engine, Markup: markup, Duration: time.Since(start)}
}

func failure(engine string, start time.Time, msgs ...string) *Result {
	return &Result{Engine: engine, Errors: msgs, Duration: time.Since(start)}
}

// buildProject assembles the adapter-facing view from a VFS snapshot.
func buildProject(fs *vfs.FS, opts *Options) *Project {
	p := &Project{
		Name:            opts.Name,
		Framework:       opts.Framework,
		EntryPoint:      opts.EntryPoint,
		Dependencies:    opts.Dependencies,
		DevDependencies: opts.DevDependencies,
		Files:           fs.Files(),
	}
	if p.EntryPoint == "" {
		for _, f := range p.Files {
			if f.IsEntryPoint {
				p.EntryPoint = f.Path
				break
			}
		}
	}
	return p
}
