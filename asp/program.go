package asp

import (
	"fmt"
	"sort"
	"strings"
)

// Rule is a derivation: head holds whenever every body literal holds.
type Rule struct {
	Head Term
	Body []Term
}

// IntegrityConstraint forbids the conjunction of Body (all must hold) and
// Negated (none may hold) from ever being simultaneously true in a model.
type IntegrityConstraint struct {
	Body    []Term
	Negated []Term
}

// Iff asserts logical equivalence between two terms.
type Iff struct {
	A, B Term
}

// OneOfIff expands to a pair of rules plus two derived cardinality atoms,
// at_least_1(...) and more_than_1(...), that together encode "exactly one of
// Alternatives holds iff Head holds".
type OneOfIff struct {
	Head         Term
	Alternatives []Term
}

// ChoiceGroup is this implementation's stand-in for a native ASP choice
// rule plus weak-constraint optimization, neither of which the backing
// Datalog engine provides. Setup registers one ChoiceGroup per decision the
// embedded search must make (which version, which compiler, which variant
// value, which provider); each Candidate carries the atoms it would assert
// and its contribution to the lexicographic cost vector.
type ChoiceGroup struct {
	// Name identifies the decision for diagnostics, e.g. "version(mpich)".
	Name string
	// Candidates are tried in the order given; Setup is responsible for
	// sorting them cost-ascending by its version/provider/target ranking
	// rules before registering the group.
	Candidates []Candidate
	// Optional governs whether the search may leave the group unassigned
	// (used for decisions that only apply conditionally, e.g. a provider
	// choice for a virtual nothing in this solve actually requires).
	Optional bool
}

// Candidate is one concrete option within a ChoiceGroup.
type Candidate struct {
	// Atoms are the head-form facts this candidate asserts if chosen, e.g.
	// version(pkg, v) or node_compiler(pkg, c).
	Atoms []Term
	// Cost is this candidate's contribution to the lexicographic cost
	// vector, most significant component first.
	Cost []int
}

// clauseKind distinguishes the two clause shapes (rule and integrity
// constraint) so renderMangle and the unsat-core renderer can treat them
// uniformly.
type clauseKind uint8

const (
	clauseRule clauseKind = iota
	clauseIntegrityConstraint
)

// clause is an internal rule or integrity constraint, kept in both its
// structured form (head/body terms, for feeding the backend) and its
// rule-source text (textual form 1, for dumps and unsat-core rendering).
type clause struct {
	kind     clauseKind
	head     Term // zero value for integrity constraints
	body     []Term
	negated  []Term
	ruleText string // rule-source form (textual form 1)
	tag      Term   // rule("<ruleText>") choice atom; zero value if core-reporting is off
}

// Program accumulates the ground fact/rule base that Setup emits and that
// the Driver grounds and evaluates: the assertion API, built incrementally
// while Setup walks the closed world.
type Program struct {
	// CoreReporting, when true, makes every Rule/IntegrityConstraint/Iff/
	// OneOfIff registration additionally emit a rule("<rendered rule
	// text>") choice atom, add it as an assumption, and append it as an
	// extra positive body literal, so the rule's participation in an
	// unsat core is visible by its textual identity.
	CoreReporting bool

	facts   []Term
	clauses []clause
	choices []ChoiceGroup

	// tagText maps a choice-tag's functor-application rendering back to its
	// owning clause's rule-source text, for core rendering.
	tagText map[string]string
}

// NewProgram returns an empty Program. coreReporting matches the Driver's
// CoreReporting setting so every later assertion is tagged consistently.
func NewProgram(coreReporting bool) *Program {
	return &Program{
		CoreReporting: coreReporting,
		tagText:       make(map[string]string),
	}
}

// Facts returns the accumulated ground facts, for inspection by tests.
func (p *Program) Facts() []Term { return p.facts }

// Choices returns the registered choice groups, for inspection by the
// embedded search.
func (p *Program) Choices() []ChoiceGroup { return p.choices }

// Fact asserts a ground atom unconditionally.
func (p *Program) Fact(head Term) {
	p.facts = append(p.facts, head)
}

// Rule asserts head whenever every term in body holds.
func (p *Program) Rule(head Term, body []Term) {
	c := clause{
		kind:     clauseRule,
		head:     head,
		body:     body,
		ruleText: head.FunctorApplication() + " :- " + Conjunction(body) + ".",
	}
	p.assertClause(c)
}

// RuleUnless asserts head whenever every term in body holds and no term in
// negated does. The negated literals must be decidable before any rule
// deriving from this one fires (the embedded search evaluates negation-free
// rules to a fixed point first; see search.go), so a head must never feed
// back into its own negated literals.
func (p *Program) RuleUnless(head Term, body []Term, negated []Term) {
	parts := make([]string, 0, len(body)+len(negated))
	for _, b := range body {
		parts = append(parts, b.FunctorApplication())
	}
	for _, n := range negated {
		parts = append(parts, "not "+n.FunctorApplication())
	}
	c := clause{
		kind:     clauseRule,
		head:     head,
		body:     body,
		negated:  negated,
		ruleText: head.FunctorApplication() + " :- " + strings.Join(parts, ", ") + ".",
	}
	p.assertClause(c)
}

// IntegrityConstraint forbids body (and, if given, the conjunction of
// negated literals) from holding simultaneously.
func (p *Program) IntegrityConstraint(body []Term, negated []Term) {
	parts := make([]string, 0, len(body)+len(negated))
	for _, b := range body {
		parts = append(parts, b.FunctorApplication())
	}
	for _, n := range negated {
		parts = append(parts, "not "+n.FunctorApplication())
	}
	c := clause{
		kind:     clauseIntegrityConstraint,
		body:     body,
		negated:  negated,
		ruleText: ":- " + strings.Join(parts, ", ") + ".",
	}
	p.assertClause(c)
}

// Iff asserts that a and b are logically equivalent: two mutually
// conditional rules sharing the same body (each the head, the other the
// sole body literal).
func (p *Program) Iff(a, b Term) {
	p.Rule(a, []Term{b})
	p.Rule(b, []Term{a})
}

// IffConjunction asserts head is equivalent to the conjunction of body: head
// holds whenever every term in body holds, and each term in body holds
// whenever head holds. Used where a single definition (e.g. external_spec,
// provides_virtual) is stated as an iff over several getter-form clauses
// rather than over a single term.
func (p *Program) IffConjunction(head Term, body []Term) {
	p.Rule(head, body)
	for _, b := range body {
		p.Rule(b, []Term{head})
	}
}

// OneOfIff asserts "exactly one of alternatives holds iff head holds" via
// a pair of rules plus the derived at_least_1/more_than_1 cardinality
// atoms. The cardinality atoms are keyed by the head's
// rendered form rather than carrying the alternative terms: the backing
// engine's constants are flat, so a nested functor argument has no
// representation there.
func (p *Program) OneOfIff(head Term, alternatives []Term) {
	key := Str(head.FunctorApplication())
	atLeast := Fn("at_least_1", key)
	moreThan := Fn("more_than_1", key)

	for _, alt := range alternatives {
		p.Rule(atLeast, []Term{alt})
	}
	for i := range alternatives {
		for j := i + 1; j < len(alternatives); j++ {
			p.Rule(moreThan, []Term{alternatives[i], alternatives[j]})
		}
	}

	p.Rule(head, []Term{atLeast})
	p.IntegrityConstraint([]Term{head, moreThan}, nil)
	p.IntegrityConstraint([]Term{head}, []Term{atLeast})
}

// RegisterChoice records a ChoiceGroup for the embedded search. Unlike
// Fact/Rule/Iff, choice groups are not rendered into the Mangle program at
// all: Mangle has no native choice-rule or weak-constraint optimization, so
// ChoiceGroup enumeration and the resulting cost-vector search are
// implemented directly by Driver.Solve (see search.go).
func (p *Program) RegisterChoice(g ChoiceGroup) {
	p.choices = append(p.choices, g)
}

func (p *Program) assertClause(c clause) {
	if p.CoreReporting {
		c.tag = Fn("rule", Str(c.ruleText))
		p.tagText[c.tag.FunctorApplication()] = c.ruleText
	}
	p.clauses = append(p.clauses, c)
}

// ruleFacts extracts the Rule-kind clauses for the embedded search's
// derived-closure computation (see search.go).
func (p *Program) ruleFacts() []ruleFact {
	out := make([]ruleFact, 0, len(p.clauses))
	for _, c := range p.clauses {
		if c.kind != clauseRule {
			continue
		}
		body := c.body
		if p.CoreReporting {
			body = append(append([]Term{}, body...), c.tag)
		}
		out = append(out, ruleFact{Head: c.head, Body: body, Negated: c.negated})
	}
	return out
}

// integrityFacts extracts the IntegrityConstraint-kind clauses for the
// embedded search.
func (p *Program) integrityFacts() []integrityFact {
	out := make([]integrityFact, 0, len(p.clauses))
	for _, c := range p.clauses {
		if c.kind != clauseIntegrityConstraint {
			continue
		}
		body := c.body
		if p.CoreReporting {
			body = append(append([]Term{}, body...), c.tag)
		}
		out = append(out, integrityFact{body: body, negated: c.negated, tag: c.tag})
	}
	return out
}

// coreRuleStrings renders a set of surviving choice-tag atoms back to the
// rule-source strings they tag, for Result.Cores.
func (p *Program) coreRuleStrings(tags []Term) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if text, ok := p.tagText[t.FunctorApplication()]; ok {
			out = append(out, text)
		}
	}
	sort.Strings(out)
	return out
}

// renderMangle serializes the accumulated facts and clauses into Datalog
// source text the backing engine can parse, prefixed by the fixed
// hand-written rule text in base (the Driver's embedded assets).
func (p *Program) renderMangle(base string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n# === generated facts ===\n\n")

	sortedFacts := append([]Term{}, p.facts...)
	SortTerms(sortedFacts)
	for _, f := range sortedFacts {
		fmt.Fprintf(&b, "%s.\n", renderMangleAtom(f))
	}

	b.WriteString("\n# === generated rules ===\n\n")
	for _, c := range p.clauses {
		body := c.body
		if p.CoreReporting {
			body = append(append([]Term{}, body...), c.tag)
		}
		switch c.kind {
		case clauseRule:
			if len(c.negated) > 0 {
				// The backing engine would evaluate the negation against
				// its own store, which never sees choice atoms; a
				// negation-bearing rule is the embedded search's alone.
				fmt.Fprintf(&b, "# rule %s\n", c.ruleText)
				break
			}
			fmt.Fprintf(&b, "%s :- %s.\n", renderMangleAtom(c.head), renderMangleConjunction(body))
		case clauseIntegrityConstraint:
			// The backing engine has no headless constraint clause and no
			// classical negation; integrity constraints are enforced by the
			// embedded search (search.go) and surface in this text as
			// comments so a --show asp dump still shows every clause.
			fmt.Fprintf(&b, "# constraint %s\n", c.ruleText)
		}
		if p.CoreReporting {
			fmt.Fprintf(&b, "%s.\n", renderMangleAtom(c.tag))
		}
	}

	// Choice groups are the embedded search's input, not the backing
	// engine's; a dump still shows them in one-of form (textual form 4)
	// so --show asp covers the whole generated program.
	b.WriteString("\n# === choice groups ===\n\n")
	for _, g := range p.choices {
		parts := make([]string, len(g.Candidates))
		for i, cand := range g.Candidates {
			parts[i] = Conjunction(cand.Atoms)
		}
		fmt.Fprintf(&b, "# %s: 1 { %s } 1\n", g.Name, strings.Join(parts, "; "))
	}
	return b.String()
}

// renderMangleAtom renders a ground functor term the way the backing
// engine's parser expects a fact/atom to look: lowercase predicate name,
// arguments in the engine's literal syntax (strings quoted, atoms as /name
// constants, integers bare).
func renderMangleAtom(t Term) string {
	name, args, ok := t.IsFunctor()
	if !ok {
		return t.mangleLiteral()
	}
	if len(args) == 0 {
		return name + "()"
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.mangleLiteral()
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

func renderMangleConjunction(terms []Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = renderMangleAtom(t)
	}
	return strings.Join(parts, ", ")
}
