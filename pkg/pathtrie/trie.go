// Package pathtrie provides a generic trie keyed by slash-separated path
// segments. It backs hierarchical projections over flat path maps: inserting
// "/src/App.tsx" creates intermediate nodes for "src", and walking the trie
// visits segments in lexicographic order.
package pathtrie

import (
	"sort"
	"strings"
)

// Trie stores values of type T at slash-separated paths. The zero value is
// not usable; call New.
type Trie[T any] struct {
	children map[string]*Trie[T]
	set      bool
	value    T
}

// New creates an empty Trie.
func New[T any]() *Trie[T] {
	return &Trie[T]{}
}

// split breaks a path into its non-empty segments.
// "/src/App.tsx" -> ["src", "App.tsx"].
func split(path string) []string {
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// Set stores a value at the given path, creating intermediate nodes as
// needed. An existing value at the path is overwritten.
func (t *Trie[T]) Set(path string, v T) {
	node := t
	for _, seg := range split(path) {
		if node.children == nil {
			node.children = make(map[string]*Trie[T])
		}
		ch, ok := node.children[seg]
		if !ok {
			ch = &Trie[T]{}
			node.children[seg] = ch
		}
		node = ch
	}
	node.value = v
	node.set = true
}

// Get returns the value stored exactly at path.
func (t *Trie[T]) Get(path string) (T, bool) {
	node, ok := t.node(path)
	if !ok || !node.set {
		var zero T
		return zero, false
	}
	return node.value, true
}

// Delete removes the value at path. Intermediate nodes are left in place;
// callers that need compaction should rebuild the trie. Returns whether a
// value was present.
func (t *Trie[T]) Delete(path string) bool {
	node, ok := t.node(path)
	if !ok || !node.set {
		return false
	}
	var zero T
	node.value = zero
	node.set = false
	return true
}

func (t *Trie[T]) node(path string) (*Trie[T], bool) {
	node := t
	for _, seg := range split(path) {
		ch, ok := node.children[seg]
		if !ok {
			return nil, false
		}
		node = ch
	}
	return node, true
}

// Node returns the subtrie rooted at path, which may be an interior node
// with no value of its own.
func (t *Trie[T]) Node(path string) (*Trie[T], bool) {
	return t.node(path)
}

// Value returns the value stored at this node, if any.
func (t *Trie[T]) Value() (T, bool) {
	return t.value, t.set
}

// IsLeaf reports whether this node has no children.
func (t *Trie[T]) IsLeaf() bool {
	return len(t.children) == 0
}

// ChildNames returns the names of immediate children in lexicographic order.
func (t *Trie[T]) ChildNames() []string {
	names := make([]string, 0, len(t.children))
	for name := range t.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Child returns the immediate child with the given segment name.
func (t *Trie[T]) Child(name string) (*Trie[T], bool) {
	ch, ok := t.children[name]
	return ch, ok
}

// Walk visits every stored value depth-first, children in lexicographic
// order. The visited path is rooted with a leading slash. Returning false
// from fn stops the walk.
func (t *Trie[T]) Walk(fn func(path string, v T) bool) {
	t.walk("", fn)
}

func (t *Trie[T]) walk(prefix string, fn func(path string, v T) bool) bool {
	if t.set {
		p := prefix
		if p == "" {
			p = "/"
		}
		if !fn(p, t.value) {
			return false
		}
	}
	for _, name := range t.ChildNames() {
		if !t.children[name].walk(prefix+"/"+name, fn) {
			return false
		}
	}
	return true
}
