package concretize

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// ContentHash computes a digest over a canonical topological traversal of
// a concrete spec's DAG: root first, then each
// dependency edge in name order, recursively. This is the hash a
// ConcreteSpec carries as its DAG identity, and is what makes the
// round-trip invariant (re-concretizing a concrete spec yields the same
// concrete spec) checkable without a structural deep comparison.
func ContentHash(root *Spec) string {
	h := sha256.New()
	visited := make(map[*Spec]bool)
	hashNode(h, root, visited)
	return hex.EncodeToString(h.Sum(nil))
}

func hashNode(h interface{ Write([]byte) (int, error) }, s *Spec, visited map[*Spec]bool) {
	if visited[s] {
		h.Write([]byte("$ref:"))
		h.Write([]byte(s.Name))
		return
	}
	visited[s] = true

	h.Write([]byte(s.Name))
	h.Write([]byte(s.Version.String()))
	h.Write([]byte(s.Compiler.Name))
	h.Write([]byte(s.Compiler.VersionRange.String()))
	h.Write([]byte(s.Arch.String()))

	variantNames := make([]string, 0, len(s.Variants))
	for name := range s.Variants {
		variantNames = append(variantNames, name)
	}
	sort.Strings(variantNames)
	for _, name := range variantNames {
		h.Write([]byte(name))
		for _, v := range s.Variants[name].Values {
			h.Write([]byte(v))
		}
	}

	flagCats := make([]string, 0, len(s.Flags))
	for cat := range s.Flags {
		flagCats = append(flagCats, cat)
	}
	sort.Strings(flagCats)
	for _, cat := range flagCats {
		h.Write([]byte(cat))
		for _, f := range s.Flags[cat] {
			h.Write([]byte(f))
		}
	}

	edges := append([]DependencyEdge{}, s.Dependencies...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].Spec.Name < edges[j].Spec.Name })
	for _, e := range edges {
		h.Write([]byte(e.Spec.Name))
		hashNode(h, e.Spec, visited)
	}
}
