package main

import (
	"sort"

	"github.com/gopherpack/concretize"
)

// newRepository, newConfig, and defaultPlatform stand in for the package
// repository loader and configuration loader, which the core consumes
// only through narrow interfaces. A production deployment wires
// concretize.Repository
// and concretize.Config to a real package tree and packages.yaml/
// compilers.yaml loader; this CLI ships a small built-in demo repository
// so the binary is runnable end to end without one.

func newRepository() concretize.Repository { return demoRepository() }
func newConfig() concretize.Config         { return demoConfig() }

func defaultPlatform() concretize.Platform {
	return concretize.Platform{
		Default:       "test",
		DefaultOS:     "debian6",
		FrontOS:       "debian6",
		BackOS:        "debian6",
		DefaultTarget: "x86_64",
		Targets:       demoTargetDatabase{},
	}
}

type demoTargetDatabase struct{}

func (demoTargetDatabase) Ancestors(target string) []string {
	if target == "x86_64" {
		return []string{"x86_64"}
	}
	return []string{target, "x86_64"}
}
func (demoTargetDatabase) Parents(target string) []string {
	if target == "x86_64" {
		return nil
	}
	return []string{"x86_64"}
}
func (demoTargetDatabase) Family(target string) string { return "x86_64" }
func (demoTargetDatabase) OptimizationFlags(compiler, version, target string) ([]string, error) {
	return []string{"-march=" + target}, nil
}

type demoRepo struct {
	packages map[concretize.PackageName]*concretize.PackageDescriptor
	virtuals map[concretize.PackageName][]concretize.PackageName
}

func demoRepository() *demoRepo {
	r := &demoRepo{
		packages: make(map[concretize.PackageName]*concretize.PackageDescriptor),
		virtuals: map[concretize.PackageName][]concretize.PackageName{
			"mpi": {"mpich2", "zmpi"},
		},
	}

	v := func(s string) concretize.Version { return concretize.NewVersion(s) }

	r.packages["python"] = &concretize.PackageDescriptor{
		Name: "python",
		Versions: []concretize.VersionInfo{
			{Version: v("2.7.11"), Preferred: true},
			{Version: v("3.5.1")},
		},
	}
	r.packages["mpich2"] = &concretize.PackageDescriptor{
		Name:     "mpich2",
		Versions: []concretize.VersionInfo{{Version: v("1.1")}, {Version: v("1.0")}},
	}
	r.packages["zmpi"] = &concretize.PackageDescriptor{
		Name:     "zmpi",
		Versions: []concretize.VersionInfo{{Version: v("1.0")}},
		Provides: []concretize.ProvidesClause{{Virtual: "mpi"}},
	}
	r.packages["mpich2"].Provides = []concretize.ProvidesClause{{Virtual: "mpi"}}
	r.packages["callpath"] = &concretize.PackageDescriptor{
		Name:     "callpath",
		Versions: []concretize.VersionInfo{{Version: v("1.0")}},
		Dependencies: []concretize.DependencyClause{
			{Dependency: "mpi", Spec: concretize.NewAbstractSpec("mpi"), Types: concretize.AllRuntimeDepTypes()},
		},
	}
	r.packages["mpileaks"] = &concretize.PackageDescriptor{
		Name:     "mpileaks",
		Versions: []concretize.VersionInfo{{Version: v("1.0")}},
		Dependencies: []concretize.DependencyClause{
			{Dependency: "mpi", Spec: concretize.NewAbstractSpec("mpi"), Types: concretize.AllRuntimeDepTypes()},
			{Dependency: "callpath", Spec: concretize.NewAbstractSpec("callpath"), Types: concretize.AllRuntimeDepTypes()},
		},
	}
	r.packages["cmake"] = &concretize.PackageDescriptor{
		Name:     "cmake",
		Versions: []concretize.VersionInfo{{Version: v("3.0")}},
	}
	r.packages["cmake-client"] = &concretize.PackageDescriptor{
		Name:     "cmake-client",
		Versions: []concretize.VersionInfo{{Version: v("1.0")}},
		Dependencies: []concretize.DependencyClause{
			{Dependency: "cmake", Spec: concretize.NewAbstractSpec("cmake"), Types: concretize.DepTypeSet{concretize.DepBuild: true}},
		},
	}
	return r
}

func (r *demoRepo) PackageDescriptor(name concretize.PackageName) (*concretize.PackageDescriptor, error) {
	if d, ok := r.packages[name]; ok {
		return d, nil
	}
	return nil, &concretize.UnknownPackage{Name: string(name)}
}

func (r *demoRepo) IsVirtual(name concretize.PackageName) bool {
	_, ok := r.virtuals[name]
	return ok
}

func (r *demoRepo) ProvidersFor(virtual concretize.PackageName) []concretize.PackageName {
	return append([]concretize.PackageName{}, r.virtuals[virtual]...)
}

func (r *demoRepo) PossibleDependencies(specs []*concretize.Spec, virtuals map[concretize.PackageName]bool, deptypes concretize.DepTypeSet) ([]concretize.PackageName, error) {
	seen := make(map[concretize.PackageName]bool)
	var order []concretize.PackageName

	var walk func(name concretize.PackageName)
	walk = func(name concretize.PackageName) {
		if seen[name] {
			return
		}
		seen[name] = true
		if r.IsVirtual(name) {
			virtuals[name] = true
			for _, p := range r.virtuals[name] {
				order = append(order, p)
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
		walk(s.Name)
		s.Walk(func(n *concretize.Spec) bool {
			walk(n.Name)
			return true
		})
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return order, nil
}

type demoConfig struct{}

func (demoConfig) Packages() concretize.PackagesConfig {
	return concretize.PackagesConfig{Packages: map[concretize.PackageName]concretize.PackageConfig{}}
}

func (demoConfig) Compilers() []concretize.CompilerEntry {
	return []concretize.CompilerEntry{
		{Name: "gcc", Version: "4.7.2", OS: "debian6"},
		{Name: "gcc", Version: "9.1.0", OS: "debian6"},
		{Name: "clang", Version: "12.0.0", OS: "debian6"},
	}
}

func (demoConfig) ConcretizerBackend() string { return "mangle" }
