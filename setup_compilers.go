package concretize

import (
	"sort"

	"github.com/gopherpack/concretize/asp"
)

// setupCompilers emits the configured compiler list, the platform/OS/target
// universe, and registers the per-package ChoiceGroups for node_compiler(
// _version) and node_platform/os/target. Target-to-compiler
// compatibility is enforced afterwards via ground integrity constraints
// (one per package and incompatible (compiler, version, target) triple), since the
// embedded search evaluates only fully-ground rules.
func setupCompilers(c *SolveContext) error {
	entries := append([]CompilerEntry{}, c.Cfg.Compilers()...)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Version < entries[j].Version
	})

	seenName := make(map[string]bool)
	osSet := map[string]bool{}
	for _, e := range entries {
		if !seenName[e.Name] {
			seenName[e.Name] = true
			c.program.Fact(asp.Fn("compiler", wordTerm(e.Name)))
		}
		c.program.Fact(asp.Fn("compiler_version", wordTerm(e.Name), wordTerm(e.Version)))
		if e.OS != "" {
			c.program.Fact(asp.Fn("compiler_supports_os", wordTerm(e.Name), wordTerm(e.Version), wordTerm(e.OS)))
			osSet[e.OS] = true
		}
		for _, cat := range sortedFlagCategories(e.Flags) {
			for _, flag := range e.Flags[cat] {
				c.program.Fact(asp.Fn("compiler_version_flag", wordTerm(e.Name), wordTerm(e.Version), wordTerm(cat), asp.Str(flag)))
			}
		}
	}

	// default_compiler_preference ranks descending by (name, version); our
	// emission order above is ascending, so rank is assigned by walking it
	// in reverse.
	for i := range entries {
		e := entries[len(entries)-1-i]
		c.program.Fact(asp.Fn("default_compiler_preference", wordTerm(e.Name), wordTerm(e.Version), asp.Int(int64(i))))
	}

	targets, weight := targetUniverse(c)
	for _, t := range targets {
		c.program.Fact(asp.Fn("target", wordTerm(t)))
		if c.Platform.Targets != nil {
			if fam := c.Platform.Targets.Family(t); fam != "" {
				c.program.Fact(asp.Fn("target_family", wordTerm(t), wordTerm(fam)))
			}
			for _, parent := range c.Platform.Targets.Parents(t) {
				c.program.Fact(asp.Fn("target_parent", wordTerm(t), wordTerm(parent)))
			}
		}
		c.program.Fact(asp.Fn("default_target_weight", wordTerm(t), asp.Int(int64(weight[t]))))
	}

	if c.Platform.Default != "" {
		c.program.Fact(asp.Fn("node_platform_default", wordTerm(c.Platform.Default)))
	}
	if c.Platform.DefaultOS != "" {
		osSet[c.Platform.DefaultOS] = true
	}
	if c.Platform.FrontOS != "" {
		osSet[c.Platform.FrontOS] = true
	}
	if c.Platform.BackOS != "" {
		osSet[c.Platform.BackOS] = true
	}
	osNames := make([]string, 0, len(osSet))
	for o := range osSet {
		osNames = append(osNames, o)
	}
	sort.Strings(osNames)
	for _, o := range osNames {
		c.program.Fact(asp.Fn("os", wordTerm(o)))
	}
	if c.Platform.DefaultOS != "" {
		c.program.Fact(asp.Fn("node_os_default", wordTerm(c.Platform.DefaultOS)))
	}

	// compiler_supports_target tolerates "unsupported microarchitecture"
	// probe failures by omission.
	supports := make(map[[3]string]bool)
	for _, e := range entries {
		for _, t := range targets {
			if c.Platform.Targets == nil {
				continue
			}
			if _, err := c.Platform.Targets.OptimizationFlags(e.Name, e.Version, t); err != nil {
				if _, unsupported := err.(*UnsupportedMicroarchitecture); unsupported {
					continue
				}
				return wrapInternal("probing compiler_supports_target", err)
			}
			c.program.Fact(asp.Fn("compiler_supports_target", wordTerm(e.Name), wordTerm(e.Version), wordTerm(t)))
			supports[[3]string{e.Name, e.Version, t}] = true
		}
	}

	for _, name := range c.index.names() {
		if err := registerCompilerChoice(c, name, entries); err != nil {
			return err
		}
		registerArchChoice(c, name, targets, weight)
	}

	// Cross-group invariant: whatever (compiler, version, target) the
	// search lands on must satisfy compiler_supports_target. Ground one
	// integrity constraint per indexed package and per configured
	// (compiler, version, target) triple without support, whether or not
	// that package's candidate sets can reach the triple.
	for _, name := range c.index.names() {
		for _, e := range entries {
			for _, t := range targets {
				if supports[[3]string{e.Name, e.Version, t}] {
					continue
				}
				c.program.IntegrityConstraint([]asp.Term{
					asp.Fn("node_compiler_version", pkgTerm(name), wordTerm(e.Name), wordTerm(e.Version)),
					asp.Fn("node_target", pkgTerm(name), wordTerm(t)),
				}, nil)
			}
		}
	}

	return nil
}

// sortedFlagCategories returns a flag map's category keys in sorted order.
func sortedFlagCategories(flags map[string][]string) []string {
	cats := make([]string, 0, len(flags))
	for cat := range flags {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// targetUniverse returns every target Setup must know about (the host
// microarchitecture's ancestors plus any target an input spec pins) and
// each one's default_target_weight: 0..N along the host ancestry chain
// (nearest first), 100 for anything reached only through a pin.
func targetUniverse(c *SolveContext) ([]string, map[string]int) {
	weight := make(map[string]int)
	var order []string

	if c.Platform.Targets != nil && c.Platform.DefaultTarget != "" {
		for i, t := range c.Platform.Targets.Ancestors(c.Platform.DefaultTarget) {
			if _, ok := weight[t]; !ok {
				weight[t] = i
				order = append(order, t)
			}
		}
	}
	if len(order) == 0 && c.Platform.DefaultTarget != "" {
		weight[c.Platform.DefaultTarget] = 0
		order = append(order, c.Platform.DefaultTarget)
	}

	var pinned []string
	for _, arch := range c.pinnedArch {
		if arch.Target != "" {
			pinned = append(pinned, arch.Target)
		}
	}
	sort.Strings(pinned)
	for _, t := range pinned {
		if _, ok := weight[t]; !ok {
			weight[t] = 100
			order = append(order, t)
		}
	}

	return order, weight
}

// registerCompilerChoice builds the combined node_compiler/
// node_compiler_version ChoiceGroup for pkg. A hard input-spec pin
// (node_compiler_hard) narrows the candidate set to versions matching the
// pinned name/range; with StrictCompilerExistence, a pinned name absent
// from the configured list is a fatal UnavailableCompiler
// rather than a merely-unsatisfiable solve.
func registerCompilerChoice(c *SolveContext, pkg PackageName, entries []CompilerEntry) error {
	pin, pinned := c.pinnedCompiler[pkg]

	var matching []CompilerEntry
	for _, e := range entries {
		if pinned && e.Name != pin.Name {
			continue
		}
		if pinned && pin.VersionRange.String() != "*" && !pin.VersionRange.Matches(NewVersion(e.Version)) {
			continue
		}
		matching = append(matching, e)
	}

	if pinned && len(matching) == 0 && c.StrictCompilerExistence {
		return &UnavailableCompiler{Name: pin.Name, Version: pin.VersionRange.String()}
	}

	rank := make(map[string]int, len(entries))
	for i := range entries {
		e := entries[len(entries)-1-i]
		rank[e.Name+"@"+e.Version] = i
	}

	var candidates []asp.Candidate
	for _, e := range matching {
		cost := rank[e.Name+"@"+e.Version]
		atoms := []asp.Term{
			asp.Fn("node_compiler", pkgTerm(pkg), wordTerm(e.Name)),
			asp.Fn("node_compiler_version", pkgTerm(pkg), wordTerm(e.Name), wordTerm(e.Version)),
		}
		if pinned {
			cost = 0
			atoms = append(atoms, asp.Fn("node_compiler_hard", pkgTerm(pkg), wordTerm(e.Name)))
		}
		// A node whose input spec carries no explicit flags of its own
		// elects the compiler entry's flag defaults
		// (node_flag_compiler_default, merged during flag reordering).
		if len(e.Flags) > 0 && len(c.pinnedFlags[pkg]) == 0 {
			atoms = append(atoms, asp.Fn("node_flag_compiler_default", pkgTerm(pkg)))
			for _, cat := range sortedFlagCategories(e.Flags) {
				for _, flag := range e.Flags[cat] {
					atoms = append(atoms, asp.Fn("node_flag", pkgTerm(pkg), wordTerm(cat), asp.Str(flag)))
				}
			}
		}
		candidates = append(candidates, asp.Candidate{Atoms: atoms, Cost: []int{cost}})
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Cost[0] < candidates[j].Cost[0] })
	c.program.RegisterChoice(asp.ChoiceGroup{
		Name:       "compiler(" + string(pkg) + ")",
		Candidates: candidates,
	})
	return nil
}

// effectiveArchPin resolves the architecture constraint pkg solves under:
// its own input-spec pin where one exists, with unset fields inherited
// from the root pins, so a root's os=fe reaches every node of its DAG.
// Root pins are merged in root order; a whole solve shares
// one architecture, so disagreeing roots would be unsatisfiable regardless
// of which one wins the merge.
func effectiveArchPin(c *SolveContext, pkg PackageName) Architecture {
	pin := c.pinnedArch[pkg]
	for _, root := range c.roots {
		rootPin, ok := c.pinnedArch[root]
		if !ok {
			continue
		}
		if pin.Platform == "" {
			pin.Platform = rootPin.Platform
		}
		if pin.OS == "" {
			pin.OS = rootPin.OS
		}
		if pin.Target == "" {
			pin.Target = rootPin.Target
		}
	}
	return pin
}

// registerArchChoice builds the node_platform/node_os/node_target
// ChoiceGroups for pkg, honoring any architecture pinned by an input spec.
func registerArchChoice(c *SolveContext, pkg PackageName, targets []string, weight map[string]int) {
	pin := effectiveArchPin(c, pkg)

	platform := c.Platform.Default
	if pin.Platform != "" {
		platform = pin.Platform
	}
	if platform != "" {
		c.program.RegisterChoice(asp.ChoiceGroup{
			Name: "platform(" + string(pkg) + ")",
			Candidates: []asp.Candidate{{
				Atoms: []asp.Term{asp.Fn("node_platform", pkgTerm(pkg), wordTerm(platform))},
				Cost:  []int{0},
			}},
		})
	}

	os := c.Platform.DefaultOS
	if pin.OS != "" {
		os = pin.OS
	}
	if os != "" {
		c.program.RegisterChoice(asp.ChoiceGroup{
			Name: "os(" + string(pkg) + ")",
			Candidates: []asp.Candidate{{
				Atoms: []asp.Term{asp.Fn("node_os", pkgTerm(pkg), wordTerm(os))},
				Cost:  []int{0},
			}},
		})
	}

	if pin.Target != "" {
		c.program.RegisterChoice(asp.ChoiceGroup{
			Name: "target(" + string(pkg) + ")",
			Candidates: []asp.Candidate{{
				Atoms: []asp.Term{asp.Fn("node_target", pkgTerm(pkg), wordTerm(pin.Target))},
				Cost:  []int{0},
			}},
		})
		return
	}

	var candidates []asp.Candidate
	for _, t := range targets {
		candidates = append(candidates, asp.Candidate{
			Atoms: []asp.Term{asp.Fn("node_target", pkgTerm(pkg), wordTerm(t))},
			Cost:  []int{weight[t]},
		})
	}
	if len(candidates) == 0 {
		return
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Cost[0] < candidates[j].Cost[0] })
	c.program.RegisterChoice(asp.ChoiceGroup{
		Name:       "target(" + string(pkg) + ")",
		Candidates: candidates,
	})
}
