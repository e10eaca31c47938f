// Package vfs provides the in-memory addressable file store for one
// project/session. Files are keyed by normalized path and owned exclusively
// by their FS: every accessor returns a copy, never a shared pointer.
//
// All operations are total and favor auto-repair over rejection, because the
// streaming parser mutates the store mid-stream without pre-validating. The
// single explicit failure is moving a file that does not exist.
package vfs

import (
	"strings"
	"time"

	"github.com/canvasml/studio/pkg/filetype"
)

// Status is the lifecycle status of a file.
type Status string

const (
	StatusPristine   Status = "pristine"
	StatusModified   Status = "modified"
	StatusError      Status = "error"
	StatusWarning    Status = "warning"
	StatusBuilding   Status = "building"
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
)

// Provenance records where a file came from.
type Provenance string

const (
	ProvenanceLLM      Provenance = "llm"
	ProvenanceUser     Provenance = "user"
	ProvenanceTemplate Provenance = "template"
)

// FileError is a single diagnostic attached to a file.
type FileError struct {
	Line     int    `json:"line" msgpack:"line"`
	Column   int    `json:"column" msgpack:"column"`
	Severity string `json:"severity" msgpack:"severity"`
	Message  string `json:"message" msgpack:"message"`
	Source   string `json:"source,omitempty" msgpack:"source,omitempty"`
}

// File is a single entry in the store.
type File struct {
	Path          string            `json:"path" msgpack:"path"`
	Name          string            `json:"name" msgpack:"name"`
	Content       string            `json:"content" msgpack:"content"`
	Language      string            `json:"language" msgpack:"language"`
	Category      filetype.Category `json:"category" msgpack:"category"`
	Size          int               `json:"size" msgpack:"size"`
	Lines         int               `json:"lines" msgpack:"lines"`
	Status        Status            `json:"status" msgpack:"status"`
	Errors        []FileError       `json:"errors,omitempty" msgpack:"errors,omitempty"`
	IsEntryPoint  bool              `json:"is_entry_point,omitempty" msgpack:"is_entry_point,omitempty"`
	PreviewEngine string            `json:"preview_engine,omitempty" msgpack:"preview_engine,omitempty"`
	Version       int               `json:"version" msgpack:"version"`
	Provenance    Provenance        `json:"provenance" msgpack:"provenance"`
	Prompt        string            `json:"prompt,omitempty" msgpack:"prompt,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at" msgpack:"updated_at"`
}

// Clone returns a deep copy of the file.
func (f *File) Clone() *File {
	c := *f
	if f.Errors != nil {
		c.Errors = make([]FileError, len(f.Errors))
		copy(c.Errors, f.Errors)
	}
	return &c
}

// refresh recomputes the derived content fields.
func (f *File) refresh() {
	f.Size = len(f.Content)
	f.Lines = countLines(f.Content)
	f.UpdatedAt = time.Now()
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// Normalize canonicalizes a path: leading slash, no trailing slash, no
// doubled slashes. Normalize is idempotent.
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// Basename returns the last path segment.
func Basename(p string) string {
	p = Normalize(p)
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
