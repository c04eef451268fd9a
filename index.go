package concretize

import (
	"sort"

	radix "github.com/armon/go-radix"
)

// packageIndex keeps the closed world of candidate packages in a radix
// tree keyed by name. Setup must never iterate a mapping in an
// unspecified order (cost vectors would stop being reproducible), and
// the tree gives deterministic sorted traversal for free.
type packageIndex struct {
	tree *radix.Tree
}

func newPackageIndex() *packageIndex {
	return &packageIndex{tree: radix.New()}
}

// add inserts name into the index, attaching desc for later retrieval.
func (x *packageIndex) add(name PackageName, desc *PackageDescriptor) {
	x.tree.Insert(string(name), desc)
}

// get returns the descriptor for name, if indexed.
func (x *packageIndex) get(name PackageName) (*PackageDescriptor, bool) {
	v, ok := x.tree.Get(string(name))
	if !ok {
		return nil, false
	}
	return v.(*PackageDescriptor), true
}

// names returns every indexed package name in sorted order.
func (x *packageIndex) names() []PackageName {
	out := make([]PackageName, 0, x.tree.Len())
	x.tree.Walk(func(s string, v interface{}) bool {
		out = append(out, PackageName(s))
		return false
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

