// Package exportstore writes reconstructed projects out of the virtual file
// system to a destination backend. It abstracts the backend so callers can
// swap between a local directory and S3-compatible object stores without
// changing application code.
package exportstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/canvasml/studio/pkg/vfs"
)

// Sink is a minimal interface for file-oriented destinations.
//
// Paths are forward-slash separated and relative to the sink root.
// Implementations must be safe for concurrent use.
type Sink interface {
	// Read opens the named file for reading. The caller must close the
	// returned ReadCloser. If the file does not exist, an error wrapping
	// os.ErrNotExist is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file for writing, truncating any existing one.
	// Parent directories are created automatically. The caller must close
	// the returned WriteCloser to flush data.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file. Missing files are not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// Manifest describes an exported project. It is written alongside the files
// as manifest.json.
type Manifest struct {
	Name            string            `json:"name,omitempty"`
	Framework       string            `json:"framework,omitempty"`
	EntryPoint      string            `json:"entryPoint,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	FileCount       int               `json:"fileCount"`
	ExportedAt      time.Time         `json:"exportedAt"`
}

// ManifestPath is where Export writes the project manifest.
const ManifestPath = "manifest.json"

// Export writes every file in the VFS to the sink, keyed by its project path
// without the leading slash. When m is non-nil a manifest.json is written
// too. Returns the number of project files written.
func Export(ctx context.Context, sink Sink, fs *vfs.FS, m *Manifest) (int, error) {
	files := fs.Files()
	for _, f := range files {
		if err := writeOne(ctx, sink, strings.TrimPrefix(f.Path, "/"), []byte(f.Content)); err != nil {
			return 0, fmt.Errorf("exportstore: write %s: %w", f.Path, err)
		}
	}
	if m != nil {
		m.FileCount = len(files)
		if m.ExportedAt.IsZero() {
			m.ExportedAt = time.Now().UTC()
		}
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return 0, fmt.Errorf("exportstore: encode manifest: %w", err)
		}
		if err := writeOne(ctx, sink, ManifestPath, data); err != nil {
			return 0, fmt.Errorf("exportstore: write manifest: %w", err)
		}
	}
	return len(files), nil
}

func writeOne(ctx context.Context, sink Sink, path string, data []byte) error {
	w, err := sink.Write(ctx, path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
