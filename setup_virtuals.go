package concretize

import (
	"sort"

	"github.com/gopherpack/concretize/asp"
)

// setupVirtuals enumerates every possible provider of every possible
// virtual, emits provides_virtual/possible_provider facts and provider
// preference facts, and registers one ChoiceGroup per virtual so the
// embedded search settles on a single provider shared by every dependent
// that needs it: for each virtual used by a concrete node, exactly one
// provider package is selected. It then grounds the
// depends_on/node propagation rules for every virtualEdge setupDependencies
// recorded, once the provider ChoiceGroup's candidate atoms are known.
func setupVirtuals(c *SolveContext) {
	allProviders := c.packagesConfig().AllProviders

	for _, virtual := range c.possibleVirtualNames() {
		providers := c.Repo.ProvidersFor(virtual)

		rank := make(map[PackageName]int, len(providers))
		if pref, ok := allProviders[virtual]; ok {
			for i, p := range pref {
				rank[p] = i
				c.program.Fact(asp.Fn("default_provider_preference", pkgTerm(virtual), pkgTerm(p), asp.Int(int64(i))))
			}
		}

		var candidates []asp.Candidate
		for idx, p := range providers {
			desc, ok := c.index.get(p)
			if !ok {
				continue
			}
			provRange, cond := providesClauseFor(desc, virtual)
			if !providerAdmissible(c, virtual, provRange) {
				continue
			}
			head := asp.Fn("provides_virtual", pkgTerm(p), pkgTerm(virtual))
			if clauses := conditionClauses(c, p, cond); len(clauses) > 0 {
				c.program.Rule(head, clauses)
			} else {
				c.program.Fact(head)
			}
			c.program.Fact(asp.Fn("possible_provider", pkgTerm(virtual), pkgTerm(p), asp.Int(int64(idx))))

			costRank, ranked := rank[p]
			if !ranked {
				costRank = len(providers) + idx
			}
			candidates = append(candidates, asp.Candidate{
				Atoms: []asp.Term{asp.Fn("provider_selected", pkgTerm(virtual), pkgTerm(p))},
				Cost:  []int{costRank},
			})
		}
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Cost[0] < candidates[j].Cost[0] })
		c.program.RegisterChoice(asp.ChoiceGroup{
			Name:       "provider(" + string(virtual) + ")",
			Candidates: candidates,
			Optional:   true,
		})
	}

	for _, name := range c.index.names() {
		pc := c.packagesConfig().ForPackage(name)
		for _, virtual := range c.possibleVirtualNames() {
			for i, p := range pc.Providers {
				c.program.Fact(asp.Fn("pkg_provider_preference", pkgTerm(name), pkgTerm(virtual), pkgTerm(p), asp.Int(int64(i))))
			}
		}
	}

	groundVirtualEdges(c)
}

// providesClauseFor returns the version range and condition of desc's
// Provides clause for virtual; an unconstrained range and nil condition if
// desc provides it unconditionally (or not at all).
func providesClauseFor(desc *PackageDescriptor, virtual PackageName) (VersionRange, *Spec) {
	for _, pc := range desc.Provides {
		if pc.Virtual == virtual {
			return pc.VersionRange, pc.Condition
		}
	}
	return AnyVersion(), nil
}

// providerAdmissible reports whether a provider whose provides clause
// covers provRange can satisfy every version range requested of virtual.
// A provider that cannot is dropped from the choice entirely rather than
// costed: the selected provider's provides range must contain the
// version asked for.
func providerAdmissible(c *SolveContext, virtual PackageName, provRange VersionRange) bool {
	for _, want := range c.virtualRanges[virtual] {
		if !provRange.Overlaps(want) {
			return false
		}
	}
	return true
}

// groundVirtualEdges emits, for every (dependent, virtual, type) triple
// setupDependencies recorded and every possible provider of that virtual, a
// ground rule carrying declared_dependency through the chosen provider to a
// depends_on edge, plus the matching node-propagation rule, the same
// mechanism setupDependencies uses for concrete dependencies, instantiated
// once per candidate provider since the embedded search's closure only
// evaluates ground (variable-free) rules (see DESIGN.md for why this is a
// ground-rule-per-combination encoding rather than true unification).
func groundVirtualEdges(c *SolveContext) {
	for _, edge := range c.virtualEdges {
		declared := asp.Fn("declared_dependency", pkgTerm(edge.Dependent), pkgTerm(edge.Virtual), depTypeTerm(edge.Type))
		for _, provider := range c.Repo.ProvidersFor(edge.Virtual) {
			dependsOn := asp.Fn("depends_on", pkgTerm(edge.Dependent), pkgTerm(provider), depTypeTerm(edge.Type))
			providerSelected := asp.Fn("provider_selected", pkgTerm(edge.Virtual), pkgTerm(provider))

			body := []asp.Term{declared, providerSelected, asp.Fn("node", pkgTerm(edge.Dependent))}
			if edge.Type == DepBuild {
				// externals do not drag their build dependencies into the
				// DAG, virtual or not
				c.program.RuleUnless(dependsOn, body, []asp.Term{asp.Fn("external", pkgTerm(edge.Dependent))})
			} else {
				c.program.Rule(dependsOn, body)
			}
			c.program.Rule(asp.Fn("node", pkgTerm(provider)), []asp.Term{dependsOn})
		}
	}
}
