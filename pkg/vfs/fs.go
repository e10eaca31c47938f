package vfs

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/canvasml/studio/pkg/filetype"
)

// ErrNotFound is returned by Move when the source path does not exist.
var ErrNotFound = errors.New("vfs: file not found")

// DefaultDebounce is the idle window before batched change records are
// flushed to subscribers.
const DefaultDebounce = 50 * time.Millisecond

// FS is an in-memory file store keyed by normalized path.
//
// An FS instance is exclusively owned by its creator. Mutations from
// independent call stacks must be serialized externally; the internal lock
// only protects against the debounce timer goroutine.
type FS struct {
	mu    sync.Mutex
	files map[string]*File
	order []string // paths in creation order

	subs     map[int]func([]ChangeRecord)
	nextSub  int
	pending  []ChangeRecord
	timer    *time.Timer
	debounce time.Duration
}

// New creates an empty FS with the default debounce window.
func New() *FS {
	return &FS{
		files:    make(map[string]*File),
		subs:     make(map[int]func([]ChangeRecord)),
		debounce: DefaultDebounce,
	}
}

// NewFromFiles creates an FS seeded with copies of the given files, in order.
func NewFromFiles(files []*File) *FS {
	fs := New()
	for _, f := range files {
		c := f.Clone()
		c.Path = Normalize(c.Path)
		c.Name = Basename(c.Path)
		fs.mu.Lock()
		fs.insertLocked(c)
		fs.mu.Unlock()
	}
	return fs
}

// SetDebounce adjusts the change-notification idle window.
func (fs *FS) SetDebounce(d time.Duration) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.debounce = d
}

// CreateOptions overrides detection results and sets optional metadata at
// creation time. Zero-valued fields fall back to detection.
type CreateOptions struct {
	Language      string
	Category      filetype.Category
	Status        Status
	IsEntryPoint  bool
	PreviewEngine string
	Provenance    Provenance
	Prompt        string
}

// Create adds a file. The path is normalized, the type detector runs (options
// may override it), derived fields are computed, and the version starts at 1.
/// An existing file at the same path is replaced: exactly one entry per
// normalized path, last write wins.
func (fs *FS) Create(path, content string, opts *CreateOptions) *File {
	path = Normalize(path)
	det := filetype.Detect(path)

	f := &File{
		Path:       path,
		Name:       Basename(path),
		Content:    content,
		Language:   det.Language,
		Category:   det.Category,
		Status:     StatusPristine,
		Version:    1,
		Provenance: ProvenanceUser,
	}
	if opts != nil {
		if opts.Language != "" {
			f.Language = opts.Language
		}
		if opts.Category != "" {
			f.Category = opts.Category
		}
		if opts.Status != "" {
			f.Status = opts.Status
		}
		if opts.PreviewEngine != "" {
			f.PreviewEngine = opts.PreviewEngine
		}
		if opts.Provenance != "" {
			f.Provenance = opts.Provenance
		}
		f.IsEntryPoint = opts.IsEntryPoint
		f.Prompt = opts.Prompt
	}
	f.refresh()

	fs.mu.Lock()
	fs.insertLocked(f)
	fs.recordLocked(ChangeCreate, f)
	fs.mu.Unlock()
	return f.Clone()
}

// insertLocked stores f, preserving creation order across replacement.
func (fs *FS) insertLocked(f *File) {
	if _, exists := fs.files[f.Path]; !exists {
		fs.order = append(fs.order, f.Path)
	}
	fs.files[f.Path] = f
}

// Update replaces a file's content. A missing path is created instead of
// rejected, which keeps streaming callers safe; otherwise derived fields are
// recomputed, status becomes modified and the version is bumped.
func (fs *FS) Update(path, content string) *File {
	path = Normalize(path)

	fs.mu.Lock()
	f, ok := fs.files[path]
	if !ok {
		fs.mu.Unlock()
		return fs.Create(path, content, nil)
	}
	f.Content = content
	f.Status = StatusModified
	f.Version++
	f.refresh()
	fs.recordLocked(ChangeUpdate, f)
	out := f.Clone()
	fs.mu.Unlock()
	return out
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Content       *string
	Status        *Status
	Errors        *[]FileError
	IsEntryPoint  *bool
	PreviewEngine *string
}

// ApplyPatch applies a partial update. Size and line count are recomputed
// only when content is part of the patch. Returns false if the path is
// absent.
func (fs *FS) ApplyPatch(path string, p Patch) (*File, bool) {
	path = Normalize(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[path]
	if !ok {
		return nil, false
	}
	if p.Content != nil {
		f.Content = *p.Content
		f.refresh()
		if p.Status == nil {
			f.Status = StatusModified
		}
	}
	if p.Errors != nil {
		f.Errors = append([]FileError(nil), (*p.Errors)...)
		if p.Status == nil {
			if len(f.Errors) > 0 {
				f.Status = StatusError
			} else {
				f.Status = StatusReady
			}
		}
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.IsEntryPoint != nil {
		f.IsEntryPoint = *p.IsEntryPoint
	}
	if p.PreviewEngine != nil {
		f.PreviewEngine = *p.PreviewEngine
	}
	f.Version++
	f.UpdatedAt = time.Now()
	fs.recordLocked(ChangeUpdate, f)
	return f.Clone(), true
}

// SetErrors attaches diagnostics to a file. Status becomes error iff the
// list is non-empty, otherwise ready.
func (fs *FS) SetErrors(path string, errs []FileError) bool {
	_, ok := fs.ApplyPatch(path, Patch{Errors: &errs})
	return ok
}

// ClearErrors removes all diagnostics from a file.
func (fs *FS) ClearErrors(path string) bool {
	return fs.SetErrors(path, nil)
}

// Delete removes a file. Returns whether it existed.
func (fs *FS) Delete(path string) bool {
	path = Normalize(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[path]
	if !ok {
		return false
	}
	delete(fs.files, path)
	fs.removeOrderLocked(path)
	fs.recordLocked(ChangeDelete, f)
	return true
}

func (fs *FS) removeOrderLocked(path string) {
	for i, p := range fs.order {
		if p == path {
			fs.order = append(fs.order[:i], fs.order[i+1:]...)
			return
		}
	}
}

// Move renames a file. The type detector re-runs at the new path, the
// version lineage is preserved but bumped, and a delete-then-create change
// pair is emitted (intentional: consumers see the old path vanish before the
// new one appears). Fails with ErrNotFound if the source is absent.
func (fs *FS) Move(oldPath, newPath string) (*File, error) {
	oldPath = Normalize(oldPath)
	newPath = Normalize(newPath)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[oldPath]
	if !ok {
		return nil, ErrNotFound
	}
	delete(fs.files, oldPath)
	fs.removeOrderLocked(oldPath)
	fs.recordLocked(ChangeDelete, f)

	det := filetype.Detect(newPath)
	f.Path = newPath
	f.Name = Basename(newPath)
	f.Language = det.Language
	f.Category = det.Category
	f.Version++
	f.UpdatedAt = time.Now()
	fs.insertLocked(f)
	fs.recordLocked(ChangeCreate, f)
	return f.Clone(), nil
}

// DeleteDir removes every file whose path equals path or is nested under
// path + "/". Returns the number of files removed.
func (fs *FS) DeleteDir(path string) int {
	path = Normalize(path)
	prefix := path + "/"

	fs.mu.Lock()
	defer fs.mu.Unlock()
	var removed int
	for p, f := range fs.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(fs.files, p)
			fs.removeOrderLocked(p)
			fs.recordLocked(ChangeDelete, f)
			removed++
		}
	}
	return removed
}

// Get returns a copy of the file at path.
func (fs *FS) Get(path string) (*File, bool) {
	path = Normalize(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[path]
	if !ok {
		return nil, false
	}
	return f.Clone(), true
}

// Len returns the number of files.
func (fs *FS) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.files)
}

// TotalSize returns the summed content size of all files.
func (fs *FS) TotalSize() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var n int
	for _, f := range fs.files {
		n += f.Size
	}
	return n
}

// Files returns copies of all files in creation order.
func (fs *FS) Files() []*File {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]*File, 0, len(fs.order))
	for _, p := range fs.order {
		out = append(out, fs.files[p].Clone())
	}
	return out
}

// Search returns files whose path matches the query, followed by files whose
// content matches. Matching is case-insensitive substring; each file appears
// at most once.
func (fs *FS) Search(query string) []*File {
	q := strings.ToLower(query)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	var pathHits, contentHits []*File
	for _, p := range fs.order {
		f := fs.files[p]
		switch {
		case strings.Contains(strings.ToLower(f.Path), q):
			pathHits = append(pathHits, f.Clone())
		case strings.Contains(strings.ToLower(f.Content), q):
			contentHits = append(contentHits, f.Clone())
		}
	}
	return append(pathHits, contentHits...)
}

// Paths returns all file paths in sorted order.
func (fs *FS) Paths() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]string, 0, len(fs.files))
	for p := range fs.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clear removes every file without emitting per-file change records.
func (fs *FS) Clear() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files = make(map[string]*File)
	fs.order = nil
}
