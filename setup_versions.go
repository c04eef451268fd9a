package concretize

import (
	"sort"

	"github.com/gopherpack/concretize/asp"
)

// addVersionRange records that range constrains pkg somewhere in the input
// (an input spec or a dependency clause); setupDependencies and
// setupInputSpecs call this as they walk clauses, and finalizeVersionSatisfies
// emits the corresponding version_satisfies iff once every range is known
//.
func (c *SolveContext) addVersionRange(pkg PackageName, r VersionRange) {
	c.versionRanges[pkg] = append(c.versionRanges[pkg], r)
}

// setupVersions collects every declared version plus any version named in
// an input spec, ranks them by the composite preference key, and emits
// version_declared(pkg, v, rank) facts plus a ChoiceGroup so the embedded
// search can pick one.
func setupVersions(c *SolveContext) error {
	for _, name := range c.index.names() {
		desc, _ := c.index.get(name)
		pc := c.packagesConfig().ForPackage(name)

		ranked := append([]VersionInfo{}, desc.Versions...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return versionLess(ranked[i], ranked[j], pc)
		})

		pin, pinned := c.pinnedVersion[name]

		candidates := make([]asp.Candidate, 0, len(ranked))
		for rank, vi := range ranked {
			c.program.Fact(asp.Fn("version_declared", pkgTerm(name), versionTerm(vi.Version), asp.Int(int64(rank))))
			if pinned && !pin.Matches(vi.Version) {
				continue
			}
			cost := rank
			if pinned {
				cost = 0
			}
			candidates = append(candidates, asp.Candidate{
				Atoms: []asp.Term{asp.Fn("version", pkgTerm(name), versionTerm(vi.Version))},
				Cost:  []int{cost},
			})
		}
		// A version mentioned in an input spec but not declared by the
		// package is still collected, ranked after everything declared.
		if pinned && len(candidates) == 0 {
			if raw := pin.String(); raw != "*" && !isVersionRangeSyntax(raw) {
				extra := NewVersion(raw)
				c.program.Fact(asp.Fn("version_declared", pkgTerm(name), versionTerm(extra), asp.Int(int64(len(ranked)))))
				candidates = append(candidates, asp.Candidate{
					Atoms: []asp.Term{asp.Fn("version", pkgTerm(name), versionTerm(extra))},
					Cost:  []int{0},
				})
			}
		}

		if len(candidates) > 0 {
			c.program.RegisterChoice(asp.ChoiceGroup{
				Name:       "version(" + string(name) + ")",
				Candidates: candidates,
			})
		}

		// One version per node. The
		// ChoiceGroup alone guarantees this for the chosen candidate, but a
		// version_satisfies iff can re-derive a version atom the group
		// didn't pick; forbidding coexisting version atoms turns that into
		// a backtrackable violation instead of a contradictory model.
		for i := range ranked {
			for j := i + 1; j < len(ranked); j++ {
				c.program.IntegrityConstraint([]asp.Term{
					asp.Fn("version", pkgTerm(name), versionTerm(ranked[i].Version)),
					asp.Fn("version", pkgTerm(name), versionTerm(ranked[j].Version)),
				}, nil)
			}
		}
	}
	return nil
}

// versionLess implements the composite ranking key, descending
// (index 0 = best):
//  1. negative of explicit packages.yaml preference rank (lower rank wins)
//  2. preferred=True flag from the descriptor
//  3. not-develop (develop sorts lower despite Version.Compare ranking it
//     highest)
//  4. the version itself under Version's order
func versionLess(a, b VersionInfo, pc PackageConfig) bool {
	ra, aHas := pc.VersionPreference[a.Version.String()]
	rb, bHas := pc.VersionPreference[b.Version.String()]
	switch {
	case aHas && bHas && ra != rb:
		return ra < rb
	case aHas && !bHas:
		return true
	case !aHas && bHas:
		return false
	}

	if a.Preferred != b.Preferred {
		return a.Preferred
	}

	if a.Version.IsDevelop() != b.Version.IsDevelop() {
		return !a.Version.IsDevelop()
	}

	return b.Version.Less(a.Version)
}

// finalizeVersionSatisfies emits, for every (pkg, range) pair collected
// while walking dependency and input-spec clauses, an iff
// version_satisfies(pkg, range) ↔ one_of(version(pkg, v) : v ∈ allowed);
// when the range matches exactly one declared version it is restricted to
// that single alternative, and when every declared version satisfies the
// range nothing is emitted (the range imposes no constraint).
func finalizeVersionSatisfies(c *SolveContext) {
	names := make([]PackageName, 0, len(c.versionRanges))
	for n := range c.versionRanges {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	seen := make(map[string]bool)
	for _, name := range names {
		desc, ok := c.index.get(name)
		if !ok {
			continue
		}
		declared := desc.DeclaredVersions()

		for _, r := range c.versionRanges[name] {
			key := string(name) + "\x00" + r.String()
			if seen[key] {
				continue
			}
			seen[key] = true

			if r.MatchesAll(declared) {
				continue
			}

			head := asp.Fn("version_satisfies", pkgTerm(name), asp.Str(r.String()))

			if exact, ok := r.IsExact(declared); ok {
				c.program.Iff(head, asp.Fn("version", pkgTerm(name), versionTerm(exact)))
				continue
			}

			var alternatives []asp.Term
			for _, v := range declared {
				if r.Matches(v) {
					alternatives = append(alternatives, asp.Fn("version", pkgTerm(name), versionTerm(v)))
				}
			}
			if len(alternatives) > 0 {
				c.program.OneOfIff(head, alternatives)
			}
		}
	}
}

func pkgTerm(name PackageName) asp.Term { return asp.Fn(string(name)) }

func versionTerm(v Version) asp.Term { return asp.Fn(sanitizeAtom(v.String())) }

// sanitizeAtom maps an arbitrary version/value string onto a bare-atom
// functor name the backing engine's name-constant lexer accepts: letters,
// digits, and ._- pass through (dots are ubiquitous in version strings),
// anything else becomes an underscore. The mapping only needs to be
// stable, not reversible: these terms are compared structurally and
// rendered out, never parsed back in.
func sanitizeAtom(s string) string {
	ok := true
	for i := 0; i < len(s); i++ {
		if !isAtomByte(s[i]) {
			ok = false
			break
		}
	}
	if ok {
		return s
	}
	b := []byte(s)
	for i := range b {
		if !isAtomByte(b[i]) {
			b[i] = '_'
		}
	}
	return string(b)
}

func isAtomByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '.' || c == '-'
}
