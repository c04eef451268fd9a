package asp

// The backing Datalog engine has no native choice rule and no weak
// constraint / optimization directive: it can only tell us what follows
// deductively from a set of ground facts, never "pick exactly one of these
// and prefer the cheapest." search fills that gap between "what versions
// exist" and "which one do we commit to" with a depth-first,
// chronologically backtracking walk over an ordered queue of choices,
// consulting the grounded store (and a small derived closure over the
// Program's own rules) to reject inconsistent branches as early as
// possible.

// selection records one step of the search: which ChoiceGroup, and which
// of its Candidates is currently tentative.
type selection struct {
	group     int
	candidate int
}

// outcome is what search returns: either a satisfying, lowest-found-cost
// assignment, or the tags of the integrity constraints that made every
// branch fail.
type outcome struct {
	ok           bool
	cost         []int
	atoms        []Term
	violatedTags []Term
}

// search walks groups depth-first, advancing the last selection on
// failure (chronological backtracking) until either every group is
// consistently assigned or the first group is exhausted.
func search(groups []ChoiceGroup, store *derivedStore) outcome {
	if len(groups) == 0 {
		return outcome{ok: true}
	}

	stack := make([]selection, 0, len(groups))
	stack = append(stack, selection{group: 0, candidate: 0})

	var lastFailureTags []Term

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		g := groups[top.group]

		optionalSkip := g.Optional && top.candidate == len(g.Candidates)
		if top.candidate > len(g.Candidates) || (top.candidate == len(g.Candidates) && !optionalSkip) {
			// exhausted: backtrack
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				stack[len(stack)-1].candidate++
			}
			continue
		}

		if !consistent(groups, stack, store) {
			top.candidate++
			continue
		}

		if len(stack) == len(groups) {
			// every group has a tentative pick and the partial assignment
			// is locally consistent; run the full closure + integrity
			// check once more over the complete assignment.
			atoms, tags, ok := finalCheck(groups, stack, store)
			if ok {
				return outcome{ok: true, cost: totalCost(groups, stack), atoms: atoms}
			}
			lastFailureTags = tags
			top.candidate++
			continue
		}

		stack = append(stack, selection{group: len(stack), candidate: 0})
	}

	return outcome{ok: false, violatedTags: lastFailureTags}
}

// buildAssignment renders the atoms chosen so far into a functor-string
// keyed set, for O(1) lookups during consistency checks.
func buildAssignment(groups []ChoiceGroup, stack []selection) map[string]bool {
	assign := make(map[string]bool)
	for _, sel := range stack {
		g := groups[sel.group]
		if sel.candidate >= len(g.Candidates) {
			continue
		}
		for _, a := range g.Candidates[sel.candidate].Atoms {
			assign[a.FunctorApplication()] = true
		}
	}
	return assign
}

// consistent is the search's per-step pruning hook. It performs no check
// and always reports true: no integrity constraint is evaluated against a
// partial assignment, and finalCheck, run once every group has a pick, is
// the only place constraints are enforced.
func consistent(groups []ChoiceGroup, stack []selection, store *derivedStore) bool {
	return true
}

func totalCost(groups []ChoiceGroup, stack []selection) []int {
	var cost []int
	for _, sel := range stack {
		g := groups[sel.group]
		if sel.candidate >= len(g.Candidates) {
			continue
		}
		c := g.Candidates[sel.candidate].Cost
		if len(cost) < len(c) {
			grown := make([]int, len(c))
			copy(grown, cost)
			cost = grown
		}
		for i, v := range c {
			cost[i] += v
		}
	}
	return cost
}

func finalCheck(groups []ChoiceGroup, stack []selection, store *derivedStore) (atoms []Term, violatedTags []Term, ok bool) {
	assign := buildAssignment(groups, stack)
	for _, sel := range stack {
		g := groups[sel.group]
		if sel.candidate < len(g.Candidates) {
			atoms = append(atoms, g.Candidates[sel.candidate].Atoms...)
		}
	}

	closure, closureAtoms := deriveClosure(assign, store)
	violated := checkIntegrity(assign, closure, store)
	if len(violated) > 0 {
		return nil, violated, false
	}
	// The Spec builder reconstructs specs from every true atom, including
	// predicates (node, depends_on, external, provides_virtual, ...) that
	// only ever appear as rule heads derived from choice atoms, never as a
	// ChoiceGroup candidate itself; those belong in the output alongside
	// the chosen candidates.
	atoms = append(atoms, closureAtoms...)
	return atoms, nil, true
}

// atomHolds decides whether t is true under the partial choice assignment
// extended with the derived closure, falling back to the grounded store
// for predicates neither layer knows about.
func atomHolds(t Term, assign, closure map[string]bool, store *derivedStore) bool {
	key := t.FunctorApplication()
	if v, ok := assign[key]; ok {
		return v
	}
	if v, ok := closure[key]; ok {
		return v
	}
	return store.holds(t)
}

// deriveClosure computes the fixed point of Program rules whose heads
// depend, directly or transitively, on choice atoms the grounded store
// could not have evaluated (version_satisfies and similar iffs built over
// a one_of(version(pkg,v)) alternative set). Negation-free rules are run
// to a fixed point first, then the full rule set: a negated literal is
// only ever a predicate the first stratum fully determines (external and
// its feeders), so negation-as-failure is decided against a complete
// truth, never a still-growing one. The rule set Setup emits is small and
// range-restricted per solve, so naive iteration to a fixed point
// terminates quickly; iterationCap is a backstop against a programming
// error producing a non-terminating rule set, not an expected code path.
func deriveClosure(assign map[string]bool, store *derivedStore) (map[string]bool, []Term) {
	// The Program's rule clauses arrive through activeRules, staged by
	// Driver.Solve just before the search runs; search holds no direct
	// Program reference by design; it operates purely over ChoiceGroups
	// and the grounded store, keeping the Program's assertion-API surface
	// decoupled from the embedded search's resolution algorithm.
	closure := make(map[string]bool)
	var atoms []Term
	if activeRules == nil {
		return closure, atoms
	}

	atoms = iterateRules(assign, closure, atoms, store, false)
	atoms = iterateRules(assign, closure, atoms, store, true)
	return closure, atoms
}

// iterateRules runs activeRules to a fixed point, extending closure and
// atoms in place. withNegation selects whether negation-bearing rules
// participate; negation-free rules always do, so the second stratum may
// keep chaining through them.
func iterateRules(assign, closure map[string]bool, atoms []Term, store *derivedStore, withNegation bool) []Term {
	const iterationCap = 64
	for i := 0; i < iterationCap; i++ {
		changed := false
		for _, r := range activeRules {
			if len(r.Negated) > 0 && !withNegation {
				continue
			}
			key := r.Head.FunctorApplication()
			if closure[key] {
				continue
			}
			allHold := true
			for _, b := range r.Body {
				if !atomHolds(b, assign, closure, store) {
					allHold = false
					break
				}
			}
			if !allHold {
				continue
			}
			blocked := false
			for _, n := range r.Negated {
				if atomHolds(n, assign, closure, store) {
					blocked = true
					break
				}
			}
			if blocked {
				continue
			}
			closure[key] = true
			atoms = append(atoms, r.Head)
			changed = true
		}
		if !changed {
			break
		}
	}
	return atoms
}

// checkIntegrity evaluates every registered integrity constraint against a
// complete (or complete-enough) assignment and returns the choice tags of
// any that are violated.
func checkIntegrity(assign, closure map[string]bool, store *derivedStore) []Term {
	var violated []Term
	for _, ic := range activeIntegrityConstraints {
		allHold := true
		for _, b := range ic.body {
			if !atomHolds(b, assign, closure, store) {
				allHold = false
				break
			}
		}
		if !allHold {
			continue
		}
		anyNegatedHolds := false
		for _, n := range ic.negated {
			if atomHolds(n, assign, closure, store) {
				anyNegatedHolds = true
				break
			}
		}
		if !anyNegatedHolds {
			violated = append(violated, ic.tag)
		}
	}
	return violated
}

// activeRules and activeIntegrityConstraints are populated by
// Driver.Solve immediately before invoking search, scoped to the single
// in-flight solve. The Driver never solves concurrently (one logical
// solve at a time per process), so this package-level staging is
// safe; it exists purely to keep search's signature decoupled from
// Program's internal clause representation.
var (
	activeRules                []ruleFact
	activeIntegrityConstraints []integrityFact
)

type ruleFact struct {
	Head    Term
	Body    []Term
	Negated []Term
}

type integrityFact struct {
	body    []Term
	negated []Term
	tag     Term
}
