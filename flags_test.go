package concretize

import (
	"reflect"
	"testing"
)

func TestDedupKeepLast(t *testing.T) {
	cases := []struct {
		in, want []string
	}{
		{nil, []string{}},
		{[]string{"-O2"}, []string{"-O2"}},
		{[]string{"-O2", "-g", "-O2"}, []string{"-g", "-O2"}},
		{[]string{"-a", "-b", "-a", "-b"}, []string{"-a", "-b"}},
		{[]string{"-x", "-x", "-x"}, []string{"-x"}},
	}
	for _, c := range cases {
		if got := dedupKeepLast(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("dedupKeepLast(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

// An ancestor's flags land before the node's own on the compile line;
// after dedup the node's occurrence must be the later one (spec-level
// ordering guarantee for inherited flags).
func TestReorderFlagsAncestorBeforeNode(t *testing.T) {
	s := NewAbstractSpec("child")
	// ancestor-sourced flags appended first, node's own last
	s.Flags["cflags"] = []string{"-O2", "-fPIC", "-O3", "-O2"}

	reorderFlags(s)

	got := s.Flags["cflags"]
	want := []string{"-fPIC", "-O3", "-O2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reordered cflags = %v, want %v", got, want)
	}

	// the repeated -O2's surviving occurrence is the last one
	if got[len(got)-1] != "-O2" {
		t.Errorf("node's own -O2 must order after the inherited one: %v", got)
	}
}
