package asp

import "testing"

func TestTermTextualForms(t *testing.T) {
	// rule-source form: strings quoted, booleans quoted tokens, ints bare
	if got := Str("hello").RuleSource(); got != `"hello"` {
		t.Errorf("string rule source = %s", got)
	}
	if got := Bool(true).RuleSource(); got != `"true"` {
		t.Errorf("bool rule source = %s", got)
	}
	if got := Bool(false).RuleSource(); got != `"false"` {
		t.Errorf("bool rule source = %s", got)
	}
	if got := Int(-3).RuleSource(); got != "-3" {
		t.Errorf("int rule source = %s", got)
	}

	// functor application; arity zero renders with parentheses
	f := Fn("version", Fn("python"), Str("2.7.11"))
	if got := f.FunctorApplication(); got != `version(python(),"2.7.11")` {
		t.Errorf("functor application = %s", got)
	}
	if got := Fn("node").FunctorApplication(); got != "node()" {
		t.Errorf("arity-zero functor = %s", got)
	}

	// conjunction
	conj := Conjunction([]Term{Fn("a"), Fn("b"), Fn("c")})
	if conj != "a(), b(), c()" {
		t.Errorf("conjunction = %s", conj)
	}

	// one-of
	oneOf := OneOf([]Term{Fn("a"), Fn("b"), Fn("c")})
	if oneOf != "1 { a(); b(); c() } 1" {
		t.Errorf("one-of = %s", oneOf)
	}
}

func TestTermEqualityAndOrder(t *testing.T) {
	a := Fn("version", Fn("python"), Str("2.7.11"))
	b := Fn("version", Fn("python"), Str("2.7.11"))
	c := Fn("version", Fn("python"), Str("3.5.1"))

	if !Equal(a, b) {
		t.Error("structurally equal terms compare unequal")
	}
	if Equal(a, c) {
		t.Error("distinct terms compare equal")
	}
	if !Less(a, c) {
		t.Error("2.7.11 must order before 3.5.1 lexicographically")
	}

	ts := []Term{c, a}
	SortTerms(ts)
	if !Equal(ts[0], a) {
		t.Error("SortTerms did not order by the functor-application form")
	}
}

func TestTermAccessors(t *testing.T) {
	f := Fn("depends_on", Fn("a"), Fn("b"), Int(2))

	name, args, ok := f.IsFunctor()
	if !ok || name != "depends_on" || len(args) != 3 {
		t.Fatalf("IsFunctor = %s/%d/%v", name, len(args), ok)
	}
	if n, ok := args[2].AsInt(); !ok || n != 2 {
		t.Errorf("AsInt = %d/%v", n, ok)
	}
	if _, ok := Str("x").IsFunctor(); ok {
		t.Error("a string literal is not a functor")
	}
	if s, ok := Str("x").AsString(); !ok || s != "x" {
		t.Errorf("AsString = %q/%v", s, ok)
	}
}

func TestMangleConstantRoundTrip(t *testing.T) {
	// zero-arity functors become /name constants, strings stay strings,
	// ints stay numbers: the three leaf kinds Setup feeds the backend.
	if got := Fn("python").mangleLiteral(); got != "/python" {
		t.Errorf("name constant = %s", got)
	}
	if got := Str("a b").mangleLiteral(); got != `"a b"` {
		t.Errorf("string literal = %s", got)
	}
	if got := Int(42).mangleLiteral(); got != "42" {
		t.Errorf("number literal = %s", got)
	}

	c := mangleConstant(Fn("x86_64"))
	if c.Symbol != "/x86_64" {
		t.Errorf("mangleConstant functor = %+v", c)
	}
}
