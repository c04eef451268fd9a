package concretize

// PackageName identifies a package or virtual by its repository name.
type PackageName string

// DepType is one of the four dependency type tags a dependency clause may
// carry.
type DepType string

const (
	DepBuild DepType = "build"
	DepLink  DepType = "link"
	DepRun   DepType = "run"
	DepTest  DepType = "test"
)

// DepTypeSet is a small, order-independent set of DepType values.
type DepTypeSet map[DepType]bool

// AllRuntimeDepTypes is {build, link, run}, the set always walked while
// closing the world; test is added per-caller request.
func AllRuntimeDepTypes() DepTypeSet {
	return DepTypeSet{DepBuild: true, DepLink: true, DepRun: true}
}

// Has reports whether t is a member of s.
func (s DepTypeSet) Has(t DepType) bool { return s[t] }

// WithTest returns a copy of s with DepTest added.
func (s DepTypeSet) WithTest() DepTypeSet {
	out := make(DepTypeSet, len(s)+1)
	for k := range s {
		out[k] = true
	}
	out[DepTest] = true
	return out
}

// DependencyEdge is one edge in an abstract or concrete spec DAG: the
// dependency's own (partially or fully resolved) spec, plus the
// dependency types this edge carries.
type DependencyEdge struct {
	Spec  *Spec
	Types DepTypeSet
}

// CompilerConstraint pins (or, for an abstract spec, ranges over) the
// compiler a node must use.
type CompilerConstraint struct {
	Name         string
	VersionRange VersionRange
	// Hard marks a user-forced compiler pin (node_compiler_hard): Setup
	// filters clauses mentioning it out of conflict-integrity bodies so
	// conflicts reference the final compiler assignment, not the hard
	// request itself.
	Hard bool
}

// ExternalAttrs carries the resolved external-package attributes a
// concrete spec gets when it is matched to an ExternalEntry.
type ExternalAttrs struct {
	Prefix  string
	Modules []string
	Extra   map[string]string
}

// Spec is both the abstract-spec and concrete-spec representation: an
// abstract spec leaves some fields unset/ranged, a concrete spec
// has every field resolved to a single value. The two are distinguished
// by the Concrete flag rather than by separate types, since the Spec
// builder incrementally fills one in in place and only flips Concrete on
// once every post-construction step has run. Specs reference dependencies
// by pointer into a shared arena-of-nodes DAG, not by value, so structure
// sharing (the same sub-spec reachable from multiple parents) is
// represented directly.
type Spec struct {
	Name      PackageName
	IsVirtual bool

	VersionRange VersionRange
	Version      Version

	Variants map[string]VariantAssignment

	Compiler CompilerConstraint

	Arch Architecture

	// Flags is category -> ordered flag tokens, filled in by node_flag
	// during the Spec builder and finalized by flag reordering.
	Flags map[string][]string
	// FlagCompilerDefault records node_flag_compiler_default(pkg).
	FlagCompilerDefault bool
	// FlagSources records node_flag_source(pkg, src) in emission order;
	// flag reordering does not read it.
	FlagSources []PackageName

	Dependencies []DependencyEdge

	External        bool
	ExternalAttrs   ExternalAttrs
	DevPath         string
	Patches         []string

	Namespace string
	Concrete  bool
}

// NewAbstractSpec returns an empty abstract spec for name.
func NewAbstractSpec(name PackageName) *Spec {
	return &Spec{
		Name:         name,
		VersionRange: AnyVersion(),
		Variants:     make(map[string]VariantAssignment),
		Flags:        make(map[string][]string),
	}
}

// DependencyNamed returns the edge to dep, if any.
func (s *Spec) DependencyNamed(dep PackageName) (*DependencyEdge, bool) {
	for i := range s.Dependencies {
		if s.Dependencies[i].Spec.Name == dep {
			return &s.Dependencies[i], true
		}
	}
	return nil, false
}

// Walk visits s and every spec reachable from it via Dependencies exactly
// once, in a stable order (dependencies before dependents is not
// guaranteed; callers needing a particular order should sort edges
// first); visit returning false stops the walk of that branch, not the
// whole traversal.
func (s *Spec) Walk(visit func(*Spec) bool) {
	seen := make(map[*Spec]bool)
	var rec func(*Spec)
	rec = func(n *Spec) {
		if seen[n] {
			return
		}
		seen[n] = true
		if !visit(n) {
			return
		}
		for _, e := range n.Dependencies {
			rec(e.Spec)
		}
	}
	rec(s)
}
