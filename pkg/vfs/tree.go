package vfs

import (
	"github.com/canvasml/studio/pkg/pathtrie"
)

// Dir is a synthetic directory node. Directories are never stored; Tree
// rederives them from the flat path map on every call.
type Dir struct {
	Path  string  `json:"path"`
	Name  string  `json:"name"`
	Dirs  []*Dir  `json:"dirs,omitempty"`
	Files []*File `json:"files,omitempty"`
}

// Tree projects the flat path map into a directory tree. Within each
// directory, subdirectories come before files, each group alphabetically.
// The result is built fresh on every call and safe for the caller to keep.
func (fs *FS) Tree() *Dir {
	fs.mu.Lock()
	tr := pathtrie.New[*File]()
	for _, f := range fs.files {
		tr.Set(f.Path, f.Clone())
	}
	fs.mu.Unlock()

	root := &Dir{Path: "/", Name: "/"}
	buildDir(root, tr)
	return root
}

func buildDir(dir *Dir, node *pathtrie.Trie[*File]) {
	for _, name := range node.ChildNames() {
		child, _ := node.Child(name)
		childPath := dir.Path + name
		if dir.Path != "/" {
			childPath = dir.Path + "/" + name
		}
		if !child.IsLeaf() {
			sub := &Dir{Path: childPath, Name: name}
			buildDir(sub, child)
			dir.Dirs = append(dir.Dirs, sub)
		}
		if f, ok := child.Value(); ok {
			dir.Files = append(dir.Files, f)
		}
	}
}
