package asp

import (
	"strings"
	"testing"
)

func TestProgramOneOfIff(t *testing.T) {
	p := NewProgram(false)
	head := Fn("external", Fn("pkg"))
	alts := []Term{
		Fn("external_spec", Fn("pkg"), Int(0)),
		Fn("external_spec", Fn("pkg"), Int(1)),
	}
	p.OneOfIff(head, alts)

	rules := p.ruleFacts()
	ics := p.integrityFacts()

	// one at_least_1 rule per alternative, one more_than_1 rule per pair,
	// one head rule
	var atLeast, moreThan, headRules int
	for _, r := range rules {
		switch r.Head.Name() {
		case "at_least_1":
			atLeast++
		case "more_than_1":
			moreThan++
		case "external":
			headRules++
		}
	}
	if atLeast != 2 || moreThan != 1 || headRules != 1 {
		t.Errorf("rule counts at_least/more_than/head = %d/%d/%d, want 2/1/1", atLeast, moreThan, headRules)
	}
	if len(ics) != 2 {
		t.Errorf("%d integrity constraints, want 2 (at-most-one and head-requires-one)", len(ics))
	}
}

func TestProgramCoreTagging(t *testing.T) {
	p := NewProgram(true)
	head := Fn("depends_on", Fn("a"), Fn("b"), Fn("build"))
	body := []Term{Fn("declared_dependency", Fn("a"), Fn("b"), Fn("build")), Fn("node", Fn("a"))}
	p.Rule(head, body)
	p.IntegrityConstraint([]Term{Fn("node", Fn("a")), Fn("node", Fn("b"))}, []Term{Fn("external", Fn("a"))})

	rules := p.ruleFacts()
	if len(rules) != 1 {
		t.Fatalf("%d rules, want 1", len(rules))
	}
	tag := rules[0].Body[len(rules[0].Body)-1]
	if tag.Name() != "rule" {
		t.Fatalf("rule body does not end in a rule(...) choice atom: %v", rules[0].Body)
	}

	ics := p.integrityFacts()
	if len(ics) != 1 {
		t.Fatalf("%d integrity constraints, want 1", len(ics))
	}
	icTag := ics[0].tag
	if icTag.Name() != "rule" {
		t.Fatal("integrity constraint carries no choice tag")
	}

	core := p.coreRuleStrings([]Term{icTag})
	if len(core) != 1 || !strings.Contains(core[0], "not external(a())") {
		t.Errorf("core strings = %v, want the constraint's rule text", core)
	}
}

func TestProgramRuleUnless(t *testing.T) {
	p := NewProgram(false)
	head := Fn("depends_on", Fn("ext"), Fn("dep"), Fn("build"))
	body := []Term{Fn("declared_dependency", Fn("ext"), Fn("dep"), Fn("build")), Fn("node", Fn("ext"))}
	p.RuleUnless(head, body, []Term{Fn("external", Fn("ext"))})

	rules := p.ruleFacts()
	if len(rules) != 1 {
		t.Fatalf("%d rules, want 1", len(rules))
	}
	if len(rules[0].Negated) != 1 || rules[0].Negated[0].Name() != "external" {
		t.Errorf("negated literals = %v, want [external(ext())]", rules[0].Negated)
	}

	text := p.renderMangle("")
	if !strings.Contains(text, "# rule depends_on(ext(),dep(),build()) :- ") {
		t.Errorf("negation-bearing rule must render as a comment, got:\n%s", text)
	}
	if !strings.Contains(text, "not external(ext())") {
		t.Errorf("rendered rule text omits the negated literal:\n%s", text)
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "depends_on") {
			t.Errorf("negation-bearing rule leaked into backend text as a clause: %q", line)
		}
	}
}

func TestProgramCoreTaggingOff(t *testing.T) {
	p := NewProgram(false)
	p.Rule(Fn("x"), []Term{Fn("y")})

	rules := p.ruleFacts()
	if len(rules) != 1 || len(rules[0].Body) != 1 {
		t.Errorf("untagged rule body = %v, want the original single literal", rules[0].Body)
	}
}

func TestRenderMangle(t *testing.T) {
	p := NewProgram(true)
	p.Fact(Fn("version_declared", Fn("python"), Fn("2.7.11"), Int(0)))
	p.Rule(Fn("node", Fn("b")), []Term{Fn("depends_on", Fn("a"), Fn("b"), Fn("build"))})
	p.IntegrityConstraint([]Term{Fn("node", Fn("a"))}, nil)
	p.RegisterChoice(ChoiceGroup{
		Name: "version(python)",
		Candidates: []Candidate{
			{Atoms: []Term{Fn("version", Fn("python"), Fn("2.7.11"))}, Cost: []int{0}},
			{Atoms: []Term{Fn("version", Fn("python"), Fn("3.5.1"))}, Cost: []int{1}},
		},
	})

	text := p.renderMangle("# base\n")

	for _, want := range []string{
		"# base",
		"version_declared(/python,/2.7.11,0).",
		"node(/b) :- depends_on(/a,/b,/build)",
		"# constraint :- node(a()).",
		"# === choice groups ===",
		`version(python(),2.7.11())`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered program missing %q", want)
		}
	}

	// headless constraints must never reach the backend as clauses
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), ":-") {
			t.Errorf("headless clause leaked into backend text: %q", line)
		}
	}
}

func TestIffConjunction(t *testing.T) {
	p := NewProgram(false)
	head := Fn("external_spec", Fn("pkg"), Int(0))
	body := []Term{Fn("version_satisfies", Fn("pkg"), Str("1.0"))}
	p.IffConjunction(head, body)

	rules := p.ruleFacts()
	if len(rules) != 2 {
		t.Fatalf("%d rules, want forward and backward", len(rules))
	}
	if !Equal(rules[0].Head, head) || !Equal(rules[1].Head, body[0]) {
		t.Errorf("iff rules = %v", rules)
	}
}
