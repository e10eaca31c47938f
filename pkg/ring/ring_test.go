package ring

import (
	"reflect"
	"testing"
)

func TestRing_AddAndItems(t *testing.T) {
	r := N[int](4)
	for i := 1; i <= 3; i++ {
		r.Add(i)
	}
	if got := r.Items(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("Items = %v, want [1 2 3]", got)
	}
	if r.Len() != 3 {
		t.Errorf("Len = %d, want 3", r.Len())
	}
}

func TestRing_EvictsOldest(t *testing.T) {
	r := N[int](3)
	for i := 1; i <= 5; i++ {
		r.Add(i)
	}
	if got := r.Items(); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Errorf("Items = %v, want [3 4 5]", got)
	}
	if r.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", r.Dropped())
	}
}

func TestRing_Reset(t *testing.T) {
	r := N[string](2)
	r.Add("a")
	r.Add("b")
	r.Add("c")
	r.Reset()
	if r.Len() != 0 || r.Dropped() != 0 {
		t.Errorf("after Reset: Len=%d Dropped=%d, want 0, 0", r.Len(), r.Dropped())
	}
	r.Add("d")
	if got := r.Items(); !reflect.DeepEqual(got, []string{"d"}) {
		t.Errorf("Items after Reset = %v, want [d]", got)
	}
}

func TestRing_ZeroSizeClamped(t *testing.T) {
	r := N[int](0)
	r.Add(7)
	if got := r.Items(); !reflect.DeepEqual(got, []int{7}) {
		t.Errorf("Items = %v, want [7]", got)
	}
}
