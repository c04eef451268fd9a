// Package asp owns the solver session: the typed term alphabet shared with
// the grounding-and-search backend, the assertion API used while emitting
// the fact/rule base, and the embedded search that turns a grounded program
// into cost-ordered stable models.
package asp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Term is the solver's input/output alphabet: a string literal, a signed
// integer, a boolean, or a functor application over further terms. Terms are
// value types: equal by structural equality, hashable via String, and
// totally ordered lexicographically by their rule-source rendering.
type Term struct {
	kind termKind
	str  string
	num  int64
	b    bool
	name string
	args []Term
}

type termKind uint8

const (
	kindString termKind = iota
	kindInt
	kindBool
	kindFunctor
)

// Str builds a string-literal term.
func Str(s string) Term { return Term{kind: kindString, str: s} }

// Int builds a signed-integer term.
func Int(i int64) Term { return Term{kind: kindInt, num: i} }

// Bool builds a boolean term.
func Bool(b bool) Term { return Term{kind: kindBool, b: b} }

// Fn builds a functor application term. Arity zero is permitted.
func Fn(name string, args ...Term) Term {
	return Term{kind: kindFunctor, name: name, args: args}
}

// IsFunctor reports whether t is a functor application, and if so its name
// and arguments.
func (t Term) IsFunctor() (name string, args []Term, ok bool) {
	if t.kind != kindFunctor {
		return "", nil, false
	}
	return t.name, t.args, true
}

// Name returns the functor name, or "" for non-functor terms.
func (t Term) Name() string {
	if t.kind != kindFunctor {
		return ""
	}
	return t.name
}

// Args returns the functor arguments, or nil for non-functor terms.
func (t Term) Args() []Term { return t.args }

// AsString returns the string payload and whether t is a string literal.
func (t Term) AsString() (string, bool) { return t.str, t.kind == kindString }

// AsInt returns the integer payload and whether t is an integer literal.
func (t Term) AsInt() (int64, bool) { return t.num, t.kind == kindInt }

// RuleSource renders the term in rule-source form (textual form 1): the
// form used when writing logic-program text for dumps and for registering
// rules in unsat cores. Strings are quoted; booleans render as quoted
// tokens; integers render bare.
func (t Term) RuleSource() string {
	switch t.kind {
	case kindString:
		return strconv.Quote(t.str)
	case kindInt:
		return strconv.FormatInt(t.num, 10)
	case kindBool:
		if t.b {
			return `"true"`
		}
		return `"false"`
	case kindFunctor:
		return t.FunctorApplication()
	default:
		return ""
	}
}

// FunctorApplication renders the term in functor-application form (textual
// form 2): name(t1,…,tN); arity zero stringifies as name().
func (t Term) FunctorApplication() string {
	if t.kind != kindFunctor {
		return t.RuleSource()
	}
	parts := make([]string, len(t.args))
	for i, a := range t.args {
		parts[i] = a.RuleSource()
	}
	return t.name + "(" + strings.Join(parts, ",") + ")"
}

// Conjunction renders a slice of terms in conjunction form (textual form 3):
// "a, b, c".
func Conjunction(terms []Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.FunctorApplication()
	}
	return strings.Join(parts, ", ")
}

// OneOf renders a choice-of-exactly-one over alternatives (textual form 4):
// "1 { a; b; c } 1".
func OneOf(alternatives []Term) string {
	parts := make([]string, len(alternatives))
	for i, t := range alternatives {
		parts[i] = t.FunctorApplication()
	}
	return "1 { " + strings.Join(parts, "; ") + " } 1"
}

// String implements fmt.Stringer via the functor-application form, which is
// also what two terms compare equal/ordered by.
func (t Term) String() string { return t.FunctorApplication() }

// Less gives the total lexicographic order over terms, by their rendered
// functor-application form. Used wherever Setup must iterate a collection of
// terms in a stable, documented order.
func Less(a, b Term) bool { return a.FunctorApplication() < b.FunctorApplication() }

// SortTerms sorts a slice of terms in place using Less.
func SortTerms(ts []Term) {
	sort.Slice(ts, func(i, j int) bool { return Less(ts[i], ts[j]) })
}

// Equal reports structural equality between two terms.
func Equal(a, b Term) bool { return a.FunctorApplication() == b.FunctorApplication() }

// mangleLiteral renders t the way the backing Datalog engine's parser
// expects a ground term literal to look: strings double-quoted, atoms
// (bare lowercase identifiers) written with a leading slash per that
// engine's Name-constant convention, integers bare.
func (t Term) mangleLiteral() string {
	switch t.kind {
	case kindString:
		return strconv.Quote(t.str)
	case kindInt:
		return strconv.FormatInt(t.num, 10)
	case kindBool:
		if t.b {
			return "/true"
		}
		return "/false"
	case kindFunctor:
		// Bare functor of arity zero used as an enum-like atom, e.g. a
		// variant value or package name, is rendered as a Name constant;
		// nested functors are not valid Datalog constants and must never
		// reach this path (Setup only ever builds ground atoms whose
		// arguments are Str/Int/Bool leaves or zero-arity functors).
		if len(t.args) == 0 {
			return "/" + t.name
		}
		panic(fmt.Sprintf("asp: nested functor %q used as an argument term", t.name))
	default:
		return ""
	}
}
