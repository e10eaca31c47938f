package pathtrie

import (
	"reflect"
	"testing"
)

func TestTrie_SetGet(t *testing.T) {
	tr := New[int]()
	tr.Set("/src/App.tsx", 1)
	tr.Set("/src/main.tsx", 2)
	tr.Set("/README.md", 3)

	if v, ok := tr.Get("/src/App.tsx"); !ok || v != 1 {
		t.Errorf("Get(/src/App.tsx) = %v, %v; want 1, true", v, ok)
	}
	if _, ok := tr.Get("/src"); ok {
		t.Error("interior node /src should have no value")
	}
	if _, ok := tr.Get("/missing"); ok {
		t.Error("Get(/missing) should be absent")
	}
}

func TestTrie_Overwrite(t *testing.T) {
	tr := New[string]()
	tr.Set("/a", "one")
	tr.Set("/a", "two")
	if v, _ := tr.Get("/a"); v != "two" {
		t.Errorf("Get(/a) = %q, want %q", v, "two")
	}
}

func TestTrie_Delete(t *testing.T) {
	tr := New[int]()
	tr.Set("/a/b", 1)
	if !tr.Delete("/a/b") {
		t.Error("Delete(/a/b) = false, want true")
	}
	if tr.Delete("/a/b") {
		t.Error("second Delete(/a/b) = true, want false")
	}
	if _, ok := tr.Get("/a/b"); ok {
		t.Error("value should be gone after Delete")
	}
}

func TestTrie_WalkOrder(t *testing.T) {
	tr := New[int]()
	tr.Set("/src/b.ts", 1)
	tr.Set("/src/a.ts", 2)
	tr.Set("/lib/z.ts", 3)

	var got []string
	tr.Walk(func(p string, _ int) bool {
		got = append(got, p)
		return true
	})
	want := []string{"/lib/z.ts", "/src/a.ts", "/src/b.ts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Walk order = %v, want %v", got, want)
	}
}

func TestTrie_WalkStop(t *testing.T) {
	tr := New[int]()
	tr.Set("/a", 1)
	tr.Set("/b", 2)

	var n int
	tr.Walk(func(string, int) bool {
		n++
		return false
	})
	if n != 1 {
		t.Errorf("Walk visited %d nodes after stop, want 1", n)
	}
}

func TestTrie_NodeAndChildren(t *testing.T) {
	tr := New[int]()
	tr.Set("/src/components/Button.tsx", 1)
	tr.Set("/src/components/Card.tsx", 2)
	tr.Set("/src/main.tsx", 3)

	node, ok := tr.Node("/src")
	if !ok {
		t.Fatal("Node(/src) not found")
	}
	names := node.ChildNames()
	want := []string{"components", "main.tsx"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ChildNames = %v, want %v", names, want)
	}

	comp, ok := node.Child("components")
	if !ok {
		t.Fatal("Child(components) not found")
	}
	if comp.IsLeaf() {
		t.Error("components should not be a leaf")
	}
}
