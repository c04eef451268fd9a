package concretize

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestConcretizePreferredVersion(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "python")
	roots := bestRoots(t, res)

	python := roots["python"]
	if python == nil {
		t.Fatal("no root spec for python")
	}
	if got := python.Version.String(); got != "2.7.11" {
		t.Errorf("python concretized to %s, want preferred 2.7.11", got)
	}
	if !python.Concrete {
		t.Error("root spec was not sealed concrete")
	}
	if python.Namespace != DefaultNamespace {
		t.Errorf("namespace = %q, want %q", python.Namespace, DefaultNamespace)
	}
}

func TestConcretizePinnedVersion(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "python@3.5.1")
	roots := bestRoots(t, res)

	python := roots["python"]
	if python == nil {
		t.Fatal("no root spec for python")
	}
	if got := python.Version.String(); got != "3.5.1" {
		t.Errorf("python@3.5.1 concretized to %s", got)
	}
	for _, e := range python.Dependencies {
		if e.Types.Has(DepTest) {
			t.Errorf("test-type dependency %s attached without tests being requested", e.Spec.Name)
		}
	}
	if nose := findSpec(roots, "nose"); nose != nil {
		t.Error("test-only dependency nose reached the DAG without tests being requested")
	}
}

func TestConcretizeUndeclaredInputVersion(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "python@4.9.1")
	roots := bestRoots(t, res)

	python := roots["python"]
	if python == nil {
		t.Fatal("no root spec for python")
	}
	if got := python.Version.String(); got != "4.9.1" {
		t.Errorf("input-mentioned undeclared version concretized to %s, want 4.9.1", got)
	}
}

func TestConcretizeDependencyConstraint(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "mpileaks ^mpich2@1.1")
	roots := bestRoots(t, res)

	mpich2 := findSpec(roots, "mpich2")
	if mpich2 == nil {
		t.Fatal("mpich2 missing from the concrete DAG")
	}
	if got := mpich2.Version.String(); got != "1.1" {
		t.Errorf("mpich2 concretized to %s, want 1.1", got)
	}
	if findSpec(roots, "callpath") == nil {
		t.Error("callpath missing from the concrete DAG")
	}
}

func TestConcretizeVirtualVersionSelectsProvider(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "mpileaks ^mpi@10.0")
	roots := bestRoots(t, res)

	if findSpec(roots, "zmpi") == nil {
		t.Fatal("zmpi provider not selected for mpi@10.0")
	}
	if findSpec(roots, "mpich2") != nil {
		t.Error("mpich2 appears in the DAG despite not providing mpi@10.0")
	}
	if findSpec(roots, "mpi") != nil {
		t.Error("virtual name mpi appears as a concrete node")
	}

	callpath := findSpec(roots, "callpath")
	if callpath == nil {
		t.Fatal("callpath missing from the concrete DAG")
	}
	if _, ok := callpath.DependencyNamed("zmpi"); !ok {
		t.Error("callpath's mpi edge did not resolve to zmpi")
	}
}

func TestConcretizeArchitectureInheritance(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "cmake-client %gcc@4.7.2 os=fe ^ cmake")
	roots := bestRoots(t, res)

	client := roots["cmake-client"]
	if client == nil {
		t.Fatal("no root spec for cmake-client")
	}
	if client.Compiler.Name != "gcc" || client.Compiler.VersionRange.String() != "4.7.2" {
		t.Errorf("root compiler = %s@%s, want gcc@4.7.2", client.Compiler.Name, client.Compiler.VersionRange)
	}
	if client.Arch.OS != "fe" {
		t.Errorf("root os = %q, want fe", client.Arch.OS)
	}

	cmake := findSpec(roots, "cmake")
	if cmake == nil {
		t.Fatal("cmake missing from the concrete DAG")
	}
	if cmake.Arch != client.Arch {
		t.Errorf("cmake arch %s differs from root arch %s", cmake.Arch, client.Arch)
	}
}

func TestConcretizeTestDependencies(t *testing.T) {
	opts := fixtureOptions()
	opts.IncludeTestsFor = map[PackageName]bool{"a": true}

	res := fixSolve(t, opts, "a foobar=bar")
	roots := bestRoots(t, res)

	a := roots["a"]
	if a == nil {
		t.Fatal("no root spec for a")
	}
	if va, ok := a.Variants["foobar"]; !ok || len(va.Values) != 1 || va.Values[0] != "bar" {
		t.Errorf("variant foobar = %v, want [bar]", a.Variants["foobar"])
	}

	testEdges := 0
	for _, e := range a.Dependencies {
		if e.Types.Has(DepTest) {
			testEdges++
		}
	}
	if testEdges == 0 {
		t.Error("node a has no test-type dependency edge despite tests={a}")
	}

	b := findSpec(roots, "b")
	if b == nil {
		t.Fatal("b missing from the concrete DAG")
	}
	for _, e := range b.Dependencies {
		if e.Types.Has(DepTest) {
			t.Errorf("node b carries test-type edge to %s; tests were requested for a only", e.Spec.Name)
		}
	}
}

func TestConcretizeConflictUnsatisfiable(t *testing.T) {
	opts := fixtureOptions()
	opts.CoreReporting = true

	res := fixSolve(t, opts, "conflict %clang~foo")
	if res.Satisfiable {
		t.Fatal("conflict %clang~foo solved; want unsatisfiable")
	}
	if len(res.Cores) == 0 {
		t.Fatal("unsatisfiable result carries no cores")
	}

	found := false
	for _, core := range res.Cores {
		for _, rule := range core {
			if strings.Contains(rule, "node_compiler(conflict(),clang())") {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("no core names the conflict's compiler clause; cores = %v", res.Cores)
	}
}

func TestConcretizeExternal(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "externaltool")
	roots := bestRoots(t, res)

	ext := roots["externaltool"]
	if ext == nil {
		t.Fatal("no root spec for externaltool")
	}
	if !ext.External {
		t.Fatal("externaltool was not resolved external despite buildable: false")
	}
	if ext.ExternalAttrs.Prefix != "/usr" {
		t.Errorf("external prefix = %q, want /usr", ext.ExternalAttrs.Prefix)
	}
	if got := ext.Version.String(); got != "1.0" {
		t.Errorf("external version = %s, want declared 1.0", got)
	}
}

func TestConcretizeExternalSkipsBuildDeps(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "externaltool")
	roots := bestRoots(t, res)

	ext := roots["externaltool"]
	if ext == nil {
		t.Fatal("no root spec for externaltool")
	}
	if !ext.External {
		t.Fatal("externaltool was not resolved external")
	}
	if len(ext.Dependencies) != 0 {
		t.Errorf("external carries %d dependency edges; build deps must not be dragged in", len(ext.Dependencies))
	}
	if findSpec(roots, "pkgconf") != nil {
		t.Error("build-only dependency pkgconf reached the DAG through an external")
	}
}

func TestConcretizeExternalOnlyUnsatisfiable(t *testing.T) {
	opts := fixtureOptions()
	opts.CoreReporting = true

	res := fixSolve(t, opts, "unbuildable")
	if res.Satisfiable {
		t.Fatal("a non-buildable package with no external entry solved; want unsatisfiable")
	}
	if len(res.Cores) == 0 {
		t.Fatal("unsatisfiable result carries no cores")
	}

	found := false
	for _, core := range res.Cores {
		for _, rule := range core {
			if strings.Contains(rule, "external_only(unbuildable())") {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("no core names the external_only constraint; cores = %v", res.Cores)
	}
}

func TestConcretizeMultiValuedDefaults(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "m")
	roots := bestRoots(t, res)

	m := roots["m"]
	if m == nil {
		t.Fatal("no root spec for m")
	}
	got := m.Variants["opts"].Values
	want := []string{"x", "y"}
	if len(got) != len(want) {
		t.Fatalf("opts = %v, want the multi-value default %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("opts = %v, want the multi-value default %v", got, want)
		}
	}
}

func TestConcretizeMultiValuedPinned(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "m opts=x,z")
	roots := bestRoots(t, res)

	m := roots["m"]
	if m == nil {
		t.Fatal("no root spec for m")
	}
	got := m.Variants["opts"].Values
	want := []string{"x", "z"}
	if len(got) != len(want) {
		t.Fatalf("opts = %v, want pinned %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("opts = %v, want pinned %v", got, want)
		}
	}
}

func TestConcretizeVirtualRoot(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "mpi")
	roots := bestRoots(t, res)

	provider := roots["mpi"]
	if provider == nil {
		t.Fatal("virtual root mpi resolved to no provider")
	}
	if provider.Name != "mpich2" {
		t.Errorf("mpi resolved to %s, want first-listed provider mpich2", provider.Name)
	}
}

func TestConcretizeUniqueness(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "mpileaks")
	roots := bestRoots(t, res)

	byName := make(map[PackageName]*Spec)
	for _, s := range allSpecs(roots) {
		if prev, ok := byName[s.Name]; ok && prev != s {
			t.Errorf("two distinct nodes for %s in one DAG", s.Name)
		}
		byName[s.Name] = s
	}

	world := map[PackageName]bool{"mpileaks": true, "callpath": true, "mpich2": true, "zmpi": true}
	for name := range byName {
		if !world[name] {
			t.Errorf("node %s is outside the closed world for mpileaks", name)
		}
	}
}

func TestConcretizeCompilerAndTarget(t *testing.T) {
	res := fixSolve(t, fixtureOptions(), "mpileaks")
	roots := bestRoots(t, res)

	for _, s := range allSpecs(roots) {
		if s.Compiler.Name == "" || s.Compiler.VersionRange.String() == "*" {
			t.Errorf("node %s has no concrete compiler", s.Name)
		}
		if s.Arch.Target == "" || s.Arch.OS == "" || s.Arch.Platform == "" {
			t.Errorf("node %s has incomplete architecture %s", s.Name, s.Arch)
		}
	}
}

func TestConcretizeDeterminism(t *testing.T) {
	first := fixSolve(t, fixtureOptions(), "mpileaks")
	second := fixSolve(t, fixtureOptions(), "mpileaks")

	fr, sr := bestRoots(t, first), bestRoots(t, second)

	fc, sc := first.Answers[0].CostVector, second.Answers[0].CostVector
	if len(fc) != len(sc) {
		t.Fatalf("cost vectors differ in length: %v vs %v", fc, sc)
	}
	for i := range fc {
		if fc[i] != sc[i] {
			t.Fatalf("cost vectors differ: %v vs %v", fc, sc)
		}
	}

	if h1, h2 := ContentHash(fr["mpileaks"]), ContentHash(sr["mpileaks"]); h1 != h2 {
		t.Errorf("content hashes differ across identical solves: %s vs %s", h1, h2)
	}
}

func TestConcretizeRoundTrip(t *testing.T) {
	first := fixSolve(t, fixtureOptions(), "python")
	root := bestRoots(t, first)["python"]

	again, err := Solve(context.Background(), []*Spec{root}, fixtureOptions())
	if err != nil {
		t.Fatalf("re-concretizing concrete python: %v", err)
	}
	reroot := bestRoots(t, again)["python"]

	if root.Version.String() != reroot.Version.String() {
		t.Errorf("round trip changed version: %s -> %s", root.Version, reroot.Version)
	}
	if ContentHash(root) != ContentHash(reroot) {
		t.Error("round trip changed the content hash")
	}
}

func TestConcretizeExplicitFlags(t *testing.T) {
	spec, err := ParseSpecLiteral("a")
	if err != nil {
		t.Fatal(err)
	}
	spec.Flags["cflags"] = []string{"-O2", "-g", "-O2"}

	res, err := Solve(context.Background(), []*Spec{spec}, fixtureOptions())
	if err != nil {
		t.Fatal(err)
	}
	a := bestRoots(t, res)["a"]

	got := a.Flags["cflags"]
	want := []string{"-g", "-O2"}
	if len(got) != len(want) {
		t.Fatalf("cflags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cflags = %v, want %v (repeated flag must keep its last position)", got, want)
		}
	}
}

func TestConcretizeCompilerDefaultFlags(t *testing.T) {
	opts := fixtureOptions()
	cfg := fixtureConfiguration()
	for i := range cfg.compilers {
		if cfg.compilers[i].Name == "gcc" && cfg.compilers[i].Version == "9.1.0" {
			cfg.compilers[i].Flags = map[string][]string{"cflags": {"-O3"}}
		}
	}
	opts.Cfg = cfg

	res := fixSolve(t, opts, "t")
	spec := bestRoots(t, res)["t"]

	if spec.Compiler.Name != "gcc" || spec.Compiler.VersionRange.String() != "9.1.0" {
		t.Fatalf("t chose compiler %s@%s, want default-ranked gcc@9.1.0", spec.Compiler.Name, spec.Compiler.VersionRange)
	}
	if !spec.FlagCompilerDefault {
		t.Error("node did not record electing compiler flag defaults")
	}
	if got := spec.Flags["cflags"]; len(got) != 1 || got[0] != "-O3" {
		t.Errorf("cflags = %v, want compiler default [-O3]", got)
	}
}

func TestConcretizeInvalidVariantValue(t *testing.T) {
	specs, err := ParseSpecLiterals([]string{"a foobar=qux"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Solve(context.Background(), specs, fixtureOptions())
	var ivv *InvalidVariantValue
	if !errors.As(err, &ivv) {
		t.Fatalf("got %v, want InvalidVariantValue", err)
	}
	if ivv.Value != "qux" {
		t.Errorf("error names value %q, want qux", ivv.Value)
	}
}

func TestConcretizeUnknownPackage(t *testing.T) {
	specs, err := ParseSpecLiterals([]string{"no-such-package"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Solve(context.Background(), specs, fixtureOptions())
	var up *UnknownPackage
	if !errors.As(err, &up) {
		t.Fatalf("got %v, want UnknownPackage", err)
	}
}

func TestConcretizeUnavailableCompilerStrict(t *testing.T) {
	opts := fixtureOptions()
	opts.StrictCompilerExistence = true

	specs, err := ParseSpecLiterals([]string{"a %icc@19.0"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Solve(context.Background(), specs, opts)
	var uc *UnavailableCompiler
	if !errors.As(err, &uc) {
		t.Fatalf("got %v, want UnavailableCompiler", err)
	}
	if uc.Name != "icc" {
		t.Errorf("error names compiler %q, want icc", uc.Name)
	}
}

func TestConcretizeDeprecatedVersion(t *testing.T) {
	specs, err := ParseSpecLiterals([]string{"olddep"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Solve(context.Background(), specs, fixtureOptions())
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want ConfigurationError for a deprecated version", err)
	}
	if !strings.Contains(ce.Detail, "deprecated") {
		t.Errorf("error detail %q does not mention deprecation", ce.Detail)
	}
}

func TestDumpProgram(t *testing.T) {
	specs, err := ParseSpecLiterals([]string{"python"})
	if err != nil {
		t.Fatal(err)
	}

	var sink strings.Builder
	if _, err := DumpProgram(context.Background(), specs, fixtureOptions(), &sink); err != nil {
		t.Fatal(err)
	}
	text := sink.String()

	for _, want := range []string{
		"version_declared(/python,/2.7.11,0)",
		"root(/python)",
		"# === choice groups ===",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("program dump missing %q", want)
		}
	}
}

func TestSolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	specs, err := ParseSpecLiterals([]string{"python"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Solve(ctx, specs, fixtureOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
