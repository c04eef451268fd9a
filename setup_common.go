package concretize

import (
	"sort"

	"github.com/gopherpack/concretize/asp"
)

// wordTerm renders an arbitrary bare-word value (a variant name, a variant
// value, a flag category, a dependency type tag) as a zero-arity functor,
// the same atom convention pkgTerm/versionTerm use: a value drawn from a
// fixed, enumerable vocabulary never needs a string-literal argument.
func wordTerm(s string) asp.Term { return asp.Fn(sanitizeAtom(s)) }

func depTypeTerm(t DepType) asp.Term { return wordTerm(string(t)) }

// realNode asserts that pkg is actually part of the solved DAG, not merely
// a candidate in the closed world.
func realNode(pkg PackageName) asp.Term { return asp.Fn("real_node", pkgTerm(pkg)) }

// conditionClauses projects an abstract condition spec's constraints onto
// pkg, producing the getter-form body clauses a dependency/provides/
// conflict rule's body is built from. A nil or
// zero-value condition yields no clauses at all (an unconditional
// dependency is emitted as a bare fact by the caller, not a rule with an
// empty body). Every version range referenced is registered on c so
// finalizeVersionSatisfies defines the version_satisfies atom the clause
// names.
func conditionClauses(c *SolveContext, pkg PackageName, cond *Spec) []asp.Term {
	if cond == nil {
		return nil
	}
	var clauses []asp.Term

	if r := effectiveRange(cond); r.String() != "*" {
		c.addVersionRange(pkg, r)
		clauses = append(clauses, asp.Fn("version_satisfies", pkgTerm(pkg), asp.Str(r.String())))
	}

	names := make([]string, 0, len(cond.Variants))
	for n := range cond.Variants {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		va := cond.Variants[n]
		for _, v := range va.Values {
			if v == "*" {
				continue
			}
			clauses = append(clauses, asp.Fn("variant_value", pkgTerm(pkg), wordTerm(n), wordTerm(v)))
		}
	}

	// A hard compiler pin on the condition spec itself is filtered out of
	// conflict-integrity bodies, so conflicts reference the final compiler
	// assignment rather than a user's hard request; non-hard compiler
	// constraints on a condition (package.py-declared, never user-hard) are
	// included normally.
	if cond.Compiler.Name != "" && !cond.Compiler.Hard {
		clauses = append(clauses, asp.Fn("node_compiler", pkgTerm(pkg), wordTerm(cond.Compiler.Name)))
	}

	if !cond.Arch.IsZero() {
		if cond.Arch.Platform != "" {
			clauses = append(clauses, asp.Fn("node_platform", pkgTerm(pkg), wordTerm(cond.Arch.Platform)))
		}
		if cond.Arch.OS != "" {
			clauses = append(clauses, asp.Fn("node_os", pkgTerm(pkg), wordTerm(cond.Arch.OS)))
		}
		if cond.Arch.Target != "" {
			clauses = append(clauses, asp.Fn("node_target", pkgTerm(pkg), wordTerm(cond.Arch.Target)))
		}
	}

	return clauses
}

// effectiveRange returns the version constraint a condition spec carries:
// its range, or its exact version read as a range when only the version is
// set (a "@1.1" literal pins both).
func effectiveRange(cond *Spec) VersionRange {
	if cond.VersionRange.String() != "*" {
		return cond.VersionRange
	}
	if !cond.Version.IsZero() {
		if r, err := NewVersionRange(cond.Version.String()); err == nil {
			return r
		}
	}
	return AnyVersion()
}

// specSelfClauses projects a dependency spec's own constraints (the
// version range / variant assignments a dependency declaration pins on
// the dependency itself, e.g. "^mpich2@1.1") onto dep, one rule per
// clause the dependency spec produces.
func specSelfClauses(c *SolveContext, dep PackageName, spec *Spec) []asp.Term {
	if spec == nil {
		return nil
	}
	return conditionClauses(c, dep, spec)
}
