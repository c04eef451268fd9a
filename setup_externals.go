package concretize

import "github.com/gopherpack/concretize/asp"

// setupExternals emits, for each indexed package, external_only when it is
// configured non-buildable, external_version_declared per configured
// external entry, and external_spec(pkg, id) defined as an iff over that
// entry's spec-literal clauses, finally tying them together with
// external(pkg) <-> one_of(external_spec(pkg, id)). A virtual entry in
// packages.yaml is normalized onto each of its providers first by
// SolveContext.packagesConfig: a virtual name appearing as a top-level
// key translates its buildable/externals onto every provider.
func setupExternals(c *SolveContext) {
	for _, name := range c.index.names() {
		pc := c.packagesConfig().ForPackage(name)
		if !pc.Buildable {
			c.program.Fact(asp.Fn("external_only", pkgTerm(name)))
			// A non-buildable package that ends up in the DAG must have
			// resolved external; with no matching external entry this is
			// unsatisfiable, never silently built.
			c.program.IntegrityConstraint(
				[]asp.Term{asp.Fn("external_only", pkgTerm(name)), realNode(name)},
				[]asp.Term{asp.Fn("external", pkgTerm(name))})
		}
		if len(pc.Externals) == 0 {
			continue
		}

		ids := make(map[int]ExternalEntry, len(pc.Externals))
		var alternatives []asp.Term
		for idx, e := range pc.Externals {
			ids[idx] = e

			v := externalVersion(e)
			// More-preferred externals are declared first in configuration
			// and get the more-negative weight.
			weight := idx - len(pc.Externals)
			c.program.Fact(asp.Fn("external_version_declared", pkgTerm(name), versionTerm(v), asp.Int(int64(weight)), asp.Int(int64(idx))))

			head := asp.Fn("external_spec", pkgTerm(name), asp.Int(int64(idx)))
			if clauses := conditionClauses(c, name, e.Spec); len(clauses) > 0 {
				c.program.IffConjunction(head, clauses)
			} else {
				c.program.Fact(head)
			}
			alternatives = append(alternatives, head)
		}
		c.externalIDs[name] = ids

		if len(alternatives) > 0 {
			c.program.OneOfIff(asp.Fn("external", pkgTerm(name)), alternatives)
		}
	}
}

// externalVersion returns the version an external entry pins, preferring
// the literal spec's concrete Version over its VersionRange text.
func externalVersion(e ExternalEntry) Version {
	if e.Spec != nil {
		if !e.Spec.Version.IsZero() {
			return e.Spec.Version
		}
		if e.Spec.VersionRange.String() != "*" {
			return NewVersion(e.Spec.VersionRange.String())
		}
	}
	return Version{}
}
