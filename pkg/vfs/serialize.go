package vfs

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// ToMap exports the store as a flat path→content map. This is the simple
// transport form: all metadata is dropped and rederived on import.
func (fs *FS) ToMap() map[string]string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make(map[string]string, len(fs.files))
	for p, f := range fs.files {
		out[p] = f.Content
	}
	return out
}

// FromMap builds a store from a flat path→content map, rerunning detection
// per path. Paths are inserted in sorted order so the result is
// deterministic.
func FromMap(m map[string]string) *FS {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fs := New()
	for _, p := range paths {
		fs.Create(p, m[p], nil)
	}
	return fs
}

// MarshalFiles encodes the ordered file array with full fidelity (metadata,
// versions, provenance) for persistence and versioning.
func (fs *FS) MarshalFiles() ([]byte, error) {
	data, err := msgpack.Marshal(fs.Files())
	if err != nil {
		return nil, fmt.Errorf("vfs: marshal files: %w", err)
	}
	return data, nil
}

// UnmarshalFiles rebuilds a store from a MarshalFiles payload.
func UnmarshalFiles(data []byte) (*FS, error) {
	var files []*File
	if err := msgpack.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("vfs: unmarshal files: %w", err)
	}
	return NewFromFiles(files), nil
}
