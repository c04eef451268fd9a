package concretize

import (
	"sort"

	"github.com/gopherpack/concretize/asp"
)

// setupVariants emits the declared variant schema for every indexed
// package and registers the ChoiceGroup the embedded search uses to settle
// on variant_value(pkg, name, v) for each variant.
func setupVariants(c *SolveContext) {
	for _, name := range c.index.names() {
		desc, _ := c.index.get(name)
		pc := c.packagesConfig().ForPackage(name)

		for _, v := range desc.Variants {
			c.program.Fact(asp.Fn("variant", pkgTerm(name), wordTerm(v.Name)))
			if v.SingleValue {
				c.program.Fact(asp.Fn("variant_single_value", pkgTerm(name), wordTerm(v.Name)))
			}
			for _, d := range v.Default {
				c.program.Fact(asp.Fn("variant_default_value_from_package_py", pkgTerm(name), wordTerm(v.Name), wordTerm(d)))
			}
			for _, a := range v.Allowed {
				c.program.Fact(asp.Fn("variant_possible_value", pkgTerm(name), wordTerm(v.Name), wordTerm(a)))
			}
			for _, extra := range c.extraPossibleValues[name][v.Name] {
				c.program.Fact(asp.Fn("variant_possible_value", pkgTerm(name), wordTerm(v.Name), wordTerm(extra)))
			}

			packagesYamlDefault, hasOverride := pc.VariantDefaults[v.Name]
			if hasOverride {
				c.program.Fact(asp.Fn("variant_default_value_from_packages_yaml", pkgTerm(name), wordTerm(v.Name), wordTerm(packagesYamlDefault)))
			}

			registerVariantChoice(c, name, v, packagesYamlDefault, hasOverride)

			// One value per single-valued variant: a
			// dependency clause's constraint can re-derive a variant_value
			// atom the ChoiceGroup didn't pick; forbidding coexisting
			// values makes that a backtrackable violation.
			if v.SingleValue {
				domain := variantValueDomain(c, name, v, packagesYamlDefault, hasOverride)
				for i := range domain {
					for j := i + 1; j < len(domain); j++ {
						c.program.IntegrityConstraint([]asp.Term{
							asp.Fn("variant_value", pkgTerm(name), wordTerm(v.Name), wordTerm(domain[i])),
							asp.Fn("variant_value", pkgTerm(name), wordTerm(v.Name), wordTerm(domain[j])),
						}, nil)
					}
				}
			}
		}
	}
}

// variantValueDomain returns every value the solve could assign to a
// (pkg, variant) pair, sorted: the packages.yaml override, the package.py
// defaults, the enumerated allowed values, and any extra value observed on
// an injected assignment.
func variantValueDomain(c *SolveContext, pkg PackageName, v VariantSchema, packagesYamlDefault string, hasOverride bool) []string {
	values := make([]string, 0, len(v.Allowed)+len(v.Default)+1)
	seen := make(map[string]bool)
	add := func(val string) {
		if val == "" || seen[val] {
			return
		}
		seen[val] = true
		values = append(values, val)
	}
	if hasOverride {
		add(packagesYamlDefault)
	}
	for _, d := range v.Default {
		add(d)
	}
	for _, a := range v.Allowed {
		add(a)
	}
	for _, extra := range c.extraPossibleValues[pkg][v.Name] {
		add(extra)
	}
	sort.Strings(values)
	return values
}

// registerVariantChoice builds the decision groups for one (pkg, variant).
// A pinned input-spec assignment forces a single compound candidate. A
// free single-valued variant is one group choosing among its values,
// costed 0 for whichever value packages.yaml or the package.py default
// names (packages.yaml ranks higher) and 1 for anything else, preferring
// fewer non-default variant toggles. A free multi-valued variant becomes
// one binary include/exclude group per value, so the search can assign
// any subset; each toggle costs 0 in its default state (default values
// included, non-default values excluded) and 1 when flipped, which keeps
// the same toggle-cost mechanic without enumerating the power set.
func registerVariantChoice(c *SolveContext, pkg PackageName, v VariantSchema, packagesYamlDefault string, hasOverride bool) {
	if pinned, ok := c.pinnedVariants[pkg][v.Name]; ok {
		candidate := asp.Candidate{Cost: []int{0}}
		for _, val := range pinned {
			candidate.Atoms = append(candidate.Atoms, asp.Fn("variant_value", pkgTerm(pkg), wordTerm(v.Name), wordTerm(val)))
		}
		c.program.RegisterChoice(asp.ChoiceGroup{
			Name:       "variant(" + string(pkg) + "," + v.Name + ")",
			Candidates: []asp.Candidate{candidate},
		})
		return
	}

	values := variantValueDomain(c, pkg, v, packagesYamlDefault, hasOverride)
	if len(values) == 0 {
		return
	}

	isDefault := func(val string) bool {
		if hasOverride {
			return val == packagesYamlDefault
		}
		for _, d := range v.Default {
			if d == val {
				return true
			}
		}
		return false
	}

	if !v.SingleValue {
		for _, val := range values {
			include := asp.Candidate{
				Atoms: []asp.Term{asp.Fn("variant_value", pkgTerm(pkg), wordTerm(v.Name), wordTerm(val))},
				Cost:  []int{1},
			}
			exclude := asp.Candidate{Cost: []int{0}}
			if isDefault(val) {
				include.Cost = []int{0}
				exclude.Cost = []int{1}
			}
			candidates := []asp.Candidate{include, exclude}
			sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Cost[0] < candidates[j].Cost[0] })
			c.program.RegisterChoice(asp.ChoiceGroup{
				Name:       "variant(" + string(pkg) + "," + v.Name + "=" + val + ")",
				Candidates: candidates,
			})
		}
		return
	}

	var candidates []asp.Candidate
	for _, val := range values {
		cost := 1
		if isDefault(val) {
			cost = 0
		}
		candidates = append(candidates, asp.Candidate{
			Atoms: []asp.Term{asp.Fn("variant_value", pkgTerm(pkg), wordTerm(v.Name), wordTerm(val))},
			Cost:  []int{cost},
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Cost[0] < candidates[j].Cost[0] })
	c.program.RegisterChoice(asp.ChoiceGroup{
		Name:       "variant(" + string(pkg) + "," + v.Name + ")",
		Candidates: candidates,
	})
}
