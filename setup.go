package concretize

import (
	"sort"

	"github.com/gopherpack/concretize/asp"
)

// SolveContext is the explicit, pass-by-reference bundle of
// effectively-process-wide state a solve needs: the possible-virtuals
// set, the target database (via Platform), the compiler list, and
// packages configuration: passed explicitly, never read from mutable
// globals after Setup begins.
type SolveContext struct {
	Repo     Repository
	Cfg      Config
	Platform Platform

	// IncludeTests selects whether test-type dependencies are walked
	// while closing the world, globally or for specific packages.
	IncludeTestsGlobal bool
	IncludeTestsFor    map[PackageName]bool

	// StrictCompilerExistence makes an unconfigured requested compiler a
	// fatal UnavailableCompiler rather than merely unsatisfiable.
	StrictCompilerExistence bool

	program          *asp.Program
	index            *packageIndex
	possibleVirtuals map[PackageName]bool
	versionRanges    map[PackageName][]VersionRange
	externalIDs      map[PackageName]map[int]ExternalEntry

	// Pins collected from the input specs by collectInputPins, consulted by
	// every later phase that builds a per-package ChoiceGroup so a
	// user-supplied constraint narrows the candidate list instead of being
	// reconciled after the fact. Populated before
	// setupVersions/setupVariants/setupCompilers run; setupInputSpecs later
	// emits the corresponding setter facts for traceability and validates
	// variant values.
	pinnedVersion  map[PackageName]VersionRange
	pinnedVariants map[PackageName]map[string][]string
	pinnedCompiler map[PackageName]CompilerConstraint
	pinnedArch     map[PackageName]Architecture
	pinnedDevPath  map[PackageName]string
	pinnedPatches  map[PackageName][]string
	pinnedFlags    map[PackageName]map[string][]string

	// virtualRanges accumulates every version range requested of a virtual,
	// from input specs ("^mpi@10.0") and from dependency clauses whose
	// dependency spec names the virtual. setupVirtuals discards candidate
	// providers whose provides range cannot overlap any requested range, so
	// the chosen provider's provides clause can actually contain the
	// version asked for.
	virtualRanges map[PackageName][]VersionRange

	// extraPossibleValues accumulates values observed on an injected variant
	// assignment that are not enumerated in the package descriptor; an
	// open-ended variant is allowed to carry them.
	extraPossibleValues map[PackageName]map[string][]string

	// virtualEdges records, per possible-virtual dependency clause reached
	// while walking the world, the (dependent, virtual, type) triples
	// setupDependencies discovers; setupVirtuals consumes these once
	// providers are known to ground the depends_on/node propagation rules
	//.
	virtualEdges []virtualEdge

	roots        []PackageName
	virtualRoots []PackageName

	// normalizedPackages caches a defensive copy of Cfg.Packages() with any
	// virtual-keyed entry folded onto its providers; computed once by
	// packagesConfig() so no phase ever mutates the caller's configuration
	// (configuration is snapshotted at solve start).
	normalizedPackages *PackagesConfig
}

// packagesConfig returns the solve's normalized view of packages.yaml-shaped
// configuration: the caller's PackagesConfig with any top-level virtual
// entry's buildable/externals folded onto each of that virtual's providers
//. The result is computed once and cached; it never mutates
// the value Cfg.Packages() returned.
func (c *SolveContext) packagesConfig() PackagesConfig {
	if c.normalizedPackages != nil {
		return *c.normalizedPackages
	}

	original := c.Cfg.Packages()
	merged := PackagesConfig{
		Packages:     make(map[PackageName]PackageConfig, len(original.Packages)),
		AllProviders: original.AllProviders,
	}
	for name, cfg := range original.Packages {
		merged.Packages[name] = cfg
	}
	for key, cfg := range original.Packages {
		if !c.Repo.IsVirtual(key) {
			continue
		}
		for _, provider := range c.Repo.ProvidersFor(key) {
			target := merged.Packages[provider]
			if !cfg.Buildable {
				target.Buildable = false
			}
			target.Externals = append(append([]ExternalEntry{}, target.Externals...), cfg.Externals...)
			merged.Packages[provider] = target
		}
	}

	c.normalizedPackages = &merged
	return merged
}

// virtualEdge is one declared dependency clause whose dependency spec names
// a virtual rather than a concrete package.
type virtualEdge struct {
	Dependent PackageName
	Virtual   PackageName
	Type      DepType
}

// NewSolveContext builds an empty SolveContext wired to repo/cfg/platform.
// coreReporting controls whether the generated Program tags every
// rule/integrity-constraint with a rule(...) choice atom for unsat-core
// attribution.
func NewSolveContext(repo Repository, cfg Config, platform Platform, coreReporting bool) *SolveContext {
	return &SolveContext{
		Repo:             repo,
		Cfg:              cfg,
		Platform:         platform,
		IncludeTestsFor:  make(map[PackageName]bool),
		program:          asp.NewProgram(coreReporting),
		index:            newPackageIndex(),
		possibleVirtuals: make(map[PackageName]bool),
		versionRanges:    make(map[PackageName][]VersionRange),
		externalIDs:      make(map[PackageName]map[int]ExternalEntry),

		pinnedVersion:       make(map[PackageName]VersionRange),
		pinnedVariants:      make(map[PackageName]map[string][]string),
		pinnedCompiler:      make(map[PackageName]CompilerConstraint),
		pinnedArch:          make(map[PackageName]Architecture),
		pinnedDevPath:       make(map[PackageName]string),
		pinnedPatches:       make(map[PackageName][]string),
		pinnedFlags:         make(map[PackageName]map[string][]string),
		virtualRanges:       make(map[PackageName][]VersionRange),
		extraPossibleValues: make(map[PackageName]map[string][]string),
	}
}

func (c *SolveContext) wantsTests(pkg PackageName) bool {
	return c.IncludeTestsGlobal || c.IncludeTestsFor[pkg]
}

// runSetup walks the closed world for inputSpecs and emits the whole
// fact/rule base, in an order chosen only so that every fact a later
// phase's rules reference already exists by grounding time. Phase order
// otherwise carries no meaning.
func runSetup(c *SolveContext, inputSpecs []*Spec) error {
	if err := closeWorld(c, inputSpecs); err != nil {
		return err
	}
	// real_node carries node through to the constraint bodies that gate on
	// it (conflicts, external_only); grounded per package so it also holds
	// for nodes derived during the search, which the backend's own
	// real_node rule never sees.
	for _, name := range c.index.names() {
		c.program.Rule(realNode(name), []asp.Term{asp.Fn("node", pkgTerm(name))})
	}
	collectInputPins(c, inputSpecs)
	if err := setupVersions(c); err != nil {
		return err
	}
	setupVariants(c)
	if err := setupCompilers(c); err != nil {
		return err
	}
	setupExternals(c)
	setupDependencies(c)
	setupVirtuals(c)
	setupConflicts(c)
	if err := setupInputSpecs(c, inputSpecs); err != nil {
		return err
	}
	finalizeVersionSatisfies(c)
	return nil
}

// closeWorld computes the transitive closure of possible_dependencies for
// inputSpecs and indexes every reached package.
func closeWorld(c *SolveContext, inputSpecs []*Spec) error {
	deptypes := AllRuntimeDepTypes()
	// A per-package test request widens the walk as well; setupDependencies
	// keeps test edges only for the packages that asked for them.
	walkTests := c.IncludeTestsGlobal
	for _, want := range c.IncludeTestsFor {
		walkTests = walkTests || want
	}

	names, err := c.Repo.PossibleDependencies(inputSpecs, c.possibleVirtuals, deptypeWithGlobalTests(deptypes, walkTests))
	if err != nil {
		return err
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, n := range names {
		if c.Repo.IsVirtual(n) {
			c.possibleVirtuals[n] = true
			continue
		}
		desc, err := c.Repo.PackageDescriptor(n)
		if err != nil {
			return &UnknownPackage{Name: string(n)}
		}
		c.index.add(n, desc)
	}

	for _, s := range inputSpecs {
		if s.IsVirtual {
			c.possibleVirtuals[s.Name] = true
		}
	}

	return nil
}

func deptypeWithGlobalTests(d DepTypeSet, globalTests bool) DepTypeSet {
	if globalTests {
		return d.WithTest()
	}
	return d
}

// possibleVirtualNames returns the possible-virtuals set in sorted order.
func (c *SolveContext) possibleVirtualNames() []PackageName {
	out := make([]PackageName, 0, len(c.possibleVirtuals))
	for v := range c.possibleVirtuals {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// addVirtualEdge records a declared-dependency clause whose dependency
// names a virtual, for setupVirtuals to ground once providers are known.
func (c *SolveContext) addVirtualEdge(dependent, virtual PackageName, t DepType) {
	c.virtualEdges = append(c.virtualEdges, virtualEdge{Dependent: dependent, Virtual: virtual, Type: t})
}

// addVirtualRange records that some input or dependency clause asks for
// virtual at a version in r.
func (c *SolveContext) addVirtualRange(virtual PackageName, r VersionRange) {
	if r.String() == "*" {
		return
	}
	c.virtualRanges[virtual] = append(c.virtualRanges[virtual], r)
}

// addExtraPossibleValue records value as possible for pkg's variant beyond
// whatever the package descriptor enumerates.
func (c *SolveContext) addExtraPossibleValue(pkg PackageName, variant, value string) {
	byVariant, ok := c.extraPossibleValues[pkg]
	if !ok {
		byVariant = make(map[string][]string)
		c.extraPossibleValues[pkg] = byVariant
	}
	for _, v := range byVariant[variant] {
		if v == value {
			return
		}
	}
	byVariant[variant] = append(byVariant[variant], value)
}
