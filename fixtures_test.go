package concretize

import (
	"context"
	"sort"
	"testing"
)

// The solve tests run against an in-memory fixture repository: a small
// closed world of packages exercising versions, variants, virtuals,
// conflicts, externals, and test-type dependencies. Each test builds its
// Options from fixtureOptions and tweaks what it needs.

type fixtureRepo struct {
	packages   map[PackageName]*PackageDescriptor
	virtuals   map[PackageName][]PackageName
	namespaces map[PackageName]string
}

func (r *fixtureRepo) PackageDescriptor(name PackageName) (*PackageDescriptor, error) {
	if d, ok := r.packages[name]; ok {
		return d, nil
	}
	return nil, &UnknownPackage{Name: string(name)}
}

func (r *fixtureRepo) IsVirtual(name PackageName) bool {
	_, ok := r.virtuals[name]
	return ok
}

func (r *fixtureRepo) ProvidersFor(virtual PackageName) []PackageName {
	return append([]PackageName{}, r.virtuals[virtual]...)
}

func (r *fixtureRepo) Namespace(name PackageName) string {
	return r.namespaces[name]
}

// PossibleDependencies walks liberally: every dependency type including
// test, and every provider of a reached virtual. Setup is what narrows
// test-type edges back down (the closed world may over-approximate; the
// fact base may not).
func (r *fixtureRepo) PossibleDependencies(specs []*Spec, virtuals map[PackageName]bool, deptypes DepTypeSet) ([]PackageName, error) {
	seen := make(map[PackageName]bool)
	var order []PackageName

	var walk func(name PackageName)
	walk = func(name PackageName) {
		if seen[name] {
			return
		}
		seen[name] = true
		if r.IsVirtual(name) {
			virtuals[name] = true
			for _, p := range r.virtuals[name] {
				walk(p)
			}
			return
		}
		order = append(order, name)
		desc, ok := r.packages[name]
		if !ok {
			return
		}
		for _, dc := range desc.Dependencies {
			walk(dc.Dependency)
		}
	}

	for _, s := range specs {
		s.Walk(func(n *Spec) bool {
			walk(n.Name)
			return true
		})
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return order, nil
}

func fixtureRepository() *fixtureRepo {
	v := func(s string) Version { return NewVersion(s) }
	vr := func(s string) VersionRange {
		r, _ := NewVersionRange(s)
		return r
	}
	dep := func(name PackageName, types ...DepType) DependencyClause {
		ts := make(DepTypeSet, len(types))
		for _, t := range types {
			ts[t] = true
		}
		return DependencyClause{Dependency: name, Spec: NewAbstractSpec(name), Types: ts}
	}

	r := &fixtureRepo{
		packages: make(map[PackageName]*PackageDescriptor),
		virtuals: map[PackageName][]PackageName{
			"mpi": {"mpich2", "zmpi"},
		},
		namespaces: map[PackageName]string{},
	}

	r.packages["python"] = &PackageDescriptor{
		Name: "python",
		Versions: []VersionInfo{
			{Version: v("2.7.11"), Preferred: true},
			{Version: v("3.5.1")},
			{Version: v("2.7.10")},
		},
		Dependencies: []DependencyClause{dep("nose", DepTest)},
	}
	r.packages["nose"] = &PackageDescriptor{
		Name:     "nose",
		Versions: []VersionInfo{{Version: v("1.3.7")}},
	}

	r.packages["mpich2"] = &PackageDescriptor{
		Name:     "mpich2",
		Versions: []VersionInfo{{Version: v("1.1")}, {Version: v("1.0")}},
		Provides: []ProvidesClause{{Virtual: "mpi", VersionRange: vr("1.1")}},
	}
	r.packages["zmpi"] = &PackageDescriptor{
		Name:     "zmpi",
		Versions: []VersionInfo{{Version: v("1.0")}},
		Provides: []ProvidesClause{{Virtual: "mpi", VersionRange: vr("10.0")}},
	}

	r.packages["callpath"] = &PackageDescriptor{
		Name:         "callpath",
		Versions:     []VersionInfo{{Version: v("1.0")}, {Version: v("0.9")}},
		Dependencies: []DependencyClause{dep("mpi", DepBuild, DepLink)},
	}
	r.packages["mpileaks"] = &PackageDescriptor{
		Name:     "mpileaks",
		Versions: []VersionInfo{{Version: v("2.3")}, {Version: v("2.2")}},
		Dependencies: []DependencyClause{
			dep("mpi", DepBuild, DepLink),
			dep("callpath", DepBuild, DepLink),
		},
	}

	r.packages["cmake"] = &PackageDescriptor{
		Name:     "cmake",
		Versions: []VersionInfo{{Version: v("3.4.3")}, {Version: v("3.0.2")}},
	}
	r.packages["cmake-client"] = &PackageDescriptor{
		Name:         "cmake-client",
		Versions:     []VersionInfo{{Version: v("1.0")}},
		Dependencies: []DependencyClause{dep("cmake", DepBuild)},
	}

	r.packages["a"] = &PackageDescriptor{
		Name:     "a",
		Versions: []VersionInfo{{Version: v("1.0")}},
		Variants: []VariantSchema{{
			Name:        "foobar",
			SingleValue: true,
			Default:     []string{"bar"},
			Allowed:     []string{"bar", "baz"},
		}},
		Dependencies: []DependencyClause{
			dep("b", DepBuild, DepLink),
			dep("t", DepTest),
		},
	}
	r.packages["b"] = &PackageDescriptor{
		Name:         "b",
		Versions:     []VersionInfo{{Version: v("1.0")}},
		Dependencies: []DependencyClause{dep("t", DepTest)},
	}
	r.packages["t"] = &PackageDescriptor{
		Name:     "t",
		Versions: []VersionInfo{{Version: v("1.0")}},
	}

	r.packages["conflict"] = &PackageDescriptor{
		Name:     "conflict",
		Versions: []VersionInfo{{Version: v("1.0")}},
		Variants: []VariantSchema{{
			Name:        "foo",
			SingleValue: true,
			Default:     []string{"true"},
			Allowed:     []string{"true", "false"},
		}},
		Conflicts: []ConflictClause{{
			Trigger:    &Spec{Name: "conflict", Compiler: CompilerConstraint{Name: "clang"}},
			Constraint: &Spec{Name: "conflict", Variants: map[string]VariantAssignment{"foo": {Name: "foo", Values: []string{"false"}}}},
		}},
	}

	r.packages["externaltool"] = &PackageDescriptor{
		Name:     "externaltool",
		Versions: []VersionInfo{{Version: v("1.0")}, {Version: v("0.9")}},
		// a build-only dependency an external resolution must not drag in
		Dependencies: []DependencyClause{dep("pkgconf", DepBuild)},
	}
	r.packages["pkgconf"] = &PackageDescriptor{
		Name:     "pkgconf",
		Versions: []VersionInfo{{Version: v("1.8")}},
	}

	r.packages["unbuildable"] = &PackageDescriptor{
		Name:     "unbuildable",
		Versions: []VersionInfo{{Version: v("1.0")}},
	}

	r.packages["m"] = &PackageDescriptor{
		Name:     "m",
		Versions: []VersionInfo{{Version: v("1.0")}},
		Variants: []VariantSchema{{
			Name:    "opts",
			Default: []string{"x", "y"},
			Allowed: []string{"x", "y", "z"},
		}},
	}

	r.packages["olddep"] = &PackageDescriptor{
		Name:       "olddep",
		Versions:   []VersionInfo{{Version: v("1.0"), Deprecated: true}},
		Deprecated: map[string]bool{"1.0": true},
	}

	return r
}

type fixtureConfig struct {
	compilers []CompilerEntry
	packages  PackagesConfig
}

func (c *fixtureConfig) Packages() PackagesConfig   { return c.packages }
func (c *fixtureConfig) Compilers() []CompilerEntry { return c.compilers }
func (c *fixtureConfig) ConcretizerBackend() string { return "mangle" }

func fixtureConfiguration() *fixtureConfig {
	ext := NewAbstractSpec("externaltool")
	ext.Version = NewVersion("1.0")
	ext.VersionRange, _ = NewVersionRange("1.0")

	return &fixtureConfig{
		compilers: []CompilerEntry{
			{Name: "gcc", Version: "4.7.2", OS: "debian6"},
			{Name: "gcc", Version: "9.1.0", OS: "debian6"},
			{Name: "clang", Version: "12.0.0", OS: "debian6"},
		},
		packages: PackagesConfig{
			Packages: map[PackageName]PackageConfig{
				"externaltool": {
					Pkg:       "externaltool",
					Buildable: false,
					Externals: []ExternalEntry{{
						Pkg:    "externaltool",
						Spec:   ext,
						Prefix: "/usr",
					}},
				},
				// non-buildable with no external entry to satisfy it
				"unbuildable": {
					Pkg:       "unbuildable",
					Buildable: false,
				},
			},
		},
	}
}

type fixtureTargets struct{}

func (fixtureTargets) Ancestors(target string) []string {
	if target == "x86_64" {
		return []string{"x86_64"}
	}
	return []string{target, "x86_64"}
}

func (fixtureTargets) Parents(target string) []string {
	if target == "x86_64" {
		return nil
	}
	return []string{"x86_64"}
}

func (fixtureTargets) Family(target string) string { return "x86_64" }

func (fixtureTargets) OptimizationFlags(compiler, version, target string) ([]string, error) {
	return []string{"-march=" + target}, nil
}

func fixturePlatform() Platform {
	return Platform{
		Default:       "test",
		FrontOS:       "fe",
		BackOS:        "be",
		DefaultOS:     "debian6",
		DefaultTarget: "x86_64",
		Targets:       fixtureTargets{},
	}
}

func fixtureOptions() Options {
	return Options{
		Repo:     fixtureRepository(),
		Cfg:      fixtureConfiguration(),
		Platform: fixturePlatform(),
	}
}

// fixSolve parses literals, solves them against opts, and fails the test
// on a hard error. Unsatisfiable results are returned, not failed: tests
// that expect UNSAT assert on the Result.
func fixSolve(t *testing.T, opts Options, literals ...string) *Result {
	t.Helper()
	specs, err := ParseSpecLiterals(literals)
	if err != nil {
		t.Fatalf("parsing %v: %v", literals, err)
	}
	res, err := Solve(context.Background(), specs, opts)
	if err != nil {
		t.Fatalf("solving %v: %v", literals, err)
	}
	return res
}

// bestRoots returns the lowest-cost answer's roots, failing the test if
// the result was unsatisfiable.
func bestRoots(t *testing.T, res *Result) map[PackageName]*Spec {
	t.Helper()
	if !res.Satisfiable {
		t.Fatalf("expected satisfiable result, got cores %v", res.Cores)
	}
	if len(res.Answers) == 0 {
		t.Fatal("satisfiable result carries no answers")
	}
	return res.Answers[0].Roots
}

// findSpec walks every root's DAG for the named package.
func findSpec(roots map[PackageName]*Spec, name PackageName) *Spec {
	var found *Spec
	for _, root := range roots {
		root.Walk(func(n *Spec) bool {
			if n.Name == name {
				found = n
			}
			return true
		})
	}
	return found
}

// allSpecs collects every distinct node reachable from the roots.
func allSpecs(roots map[PackageName]*Spec) []*Spec {
	seen := make(map[*Spec]bool)
	var out []*Spec
	for _, root := range roots {
		root.Walk(func(n *Spec) bool {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
			return true
		})
	}
	return out
}
