package asp

import (
	"context"
	_ "embed"
	"strings"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"github.com/pkg/errors"
)

// concretizeBase and displayBase are the hand-written logic-program
// assets: versioned, build-time text loaded from a well-known location
// beside the compiled code. What is here is the minimal scaffolding that
// lets the generated facts/rules type-check against the backing engine.
//
//go:embed concretize.mg
var concretizeBase string

//go:embed display.mg
var displayBase string

// Config holds the tuned solver-session parameters: a model count
// (0 = all), extended translation, equality-propagation level,
// a "generic" search configuration, two-thread parallel mode, and an
// unsatisfiable-core one-at-a-time optimization strategy. The backing
// engine used here (a stratified-negation Datalog evaluator) has no
// session-level knobs corresponding to most of these; Config is retained
// as part of the Driver's public contract so a future backend swap can
// honor it, and DefaultConfig carries the values the system was tuned
// with.
type Config struct {
	ModelCount             int
	ExtendedTranslation    bool
	EquivalencePropagation string
	SearchConfiguration    string
	ParallelThreads        int
	OptimizationStrategy   string
	CoreReporting          bool
	// TextOnly, when set, makes Solve serialize the generated program to
	// TextSink and return without grounding or searching.
	TextOnly bool
	TextSink *strings.Builder
}

// DefaultConfig returns the values the system was tuned with.
func DefaultConfig() Config {
	return Config{
		ModelCount:             0,
		ExtendedTranslation:    true,
		EquivalencePropagation: "5",
		SearchConfiguration:    "generic",
		ParallelThreads:        2,
		OptimizationStrategy:   "usc,one",
		CoreReporting:          true,
	}
}

// Driver owns one solver session: it grounds a Program against the
// hand-written base rules through the backing Datalog engine, then runs
// the embedded cost-vector search over the Program's ChoiceGroups,
// consulting the grounded store to reject inconsistent candidates.
type Driver struct {
	cfg Config
}

// NewDriver constructs a Driver. An implementation MUST default to the
// tuned values in DefaultConfig(); cfg lets a caller override them, but
// deviating from the tuned defaults is the caller's choice to make, not
// this constructor's.
func NewDriver(cfg Config) *Driver {
	return &Driver{cfg: cfg}
}

// Result is returned by Solve: satisfiability, the cost-ordered list of
// answers (built lazily; only the lowest-cost answer's model is kept),
// and, on failure, the cores rendered back to rule strings.
type Result struct {
	Satisfiable bool
	// Answers holds (cost vector, model index, grounded atoms) triples in
	// increasing cost order; the Spec builder consumes Answers[0].
	Answers []Answer
	// Cores holds, per failure, the set of rule strings (plus any
	// surviving non-rule atoms) that together entailed infeasibility.
	Cores    [][]string
	Warnings []string
	// Timings holds the wall-clock duration of each named solve phase
	// ("parse", "analyze", "evaluate", "search"), in the order they ran.
	// Surfaced by the CLI's --timers flag.
	Timings []PhaseTiming
}

// PhaseTiming is one named, timed segment of a Solve call.
type PhaseTiming struct {
	Phase    string
	Duration time.Duration
}

// Answer is one stable model together with its cost vector.
type Answer struct {
	CostVector []int
	ModelIndex int
	Atoms      []Term
}

// Solve grounds program against the Driver's base rules, then searches for
// the lowest-cost consistent assignment across program's ChoiceGroups.
// Initialization failures (parse/analysis errors in the base program, a
// missing asset) are fatal and returned as *Internal errors; see errors.go
// in the parent package for the taxonomy this maps onto. ctx is checked
// once before grounding begins; Setup and the Spec builder have no
// suspension points, so grounding and the embedded search are the only
// place a caller-supplied stop flag has anywhere to take effect.
func (d *Driver) Solve(ctx context.Context, program *Program) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var timings []PhaseTiming
	timed := func(phase string, fn func() error) error {
		start := time.Now()
		err := fn()
		timings = append(timings, PhaseTiming{Phase: phase, Duration: time.Since(start)})
		return err
	}

	text := program.renderMangle(concretizeBase + "\n" + displayBase)

	if d.cfg.TextOnly {
		if d.cfg.TextSink != nil {
			d.cfg.TextSink.WriteString(text)
		}
		return &Result{}, nil
	}

	var parsed ast.Program
	if err := timed("parse", func() (err error) {
		parsed, err = parse.Unit(strings.NewReader(text))
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "asp: parsing generated program")
	}

	var info *analysis.ProgramInfo
	if err := timed("analyze", func() (err error) {
		info, err = analysis.AnalyzeOneUnit(parsed, nil)
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "asp: analyzing generated program")
	}

	store := factstore.NewSimpleInMemoryStore()
	if err := timed("evaluate", func() error {
		_, err := engine.EvalProgramWithStats(info, store, engine.WithCreatedFactLimit(5_000_000))
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "asp: evaluating generated program")
	}

	derived := &derivedStore{store: store, info: info}

	activeRules = program.ruleFacts()
	activeIntegrityConstraints = program.integrityFacts()
	defer func() {
		activeRules = nil
		activeIntegrityConstraints = nil
	}()

	var solveOutcome outcome
	timed("search", func() error {
		solveOutcome = search(program.Choices(), derived)
		return nil
	})

	if !solveOutcome.ok {
		return &Result{
			Satisfiable: false,
			Cores:       [][]string{program.coreRuleStrings(solveOutcome.violatedTags)},
			Timings:     timings,
		}, nil
	}

	// Facts Setup asserted directly (root, variant_value(dev_path, ...),
	// compiler_version, target, ...) hold unconditionally and never appear
	// as a ChoiceGroup candidate or a rule head, so they are not part of
	// solveOutcome.atoms; the Spec builder needs them alongside it.
	atoms := append([]Term{}, solveOutcome.atoms...)
	atoms = append(atoms, program.Facts()...)

	return &Result{
		Satisfiable: true,
		Answers: []Answer{{
			CostVector: solveOutcome.cost,
			ModelIndex: 0,
			Atoms:      atoms,
		}},
		Timings: timings,
	}, nil
}

// derivedStore wraps the backing engine's fact store with the narrow
// read surface the embedded search needs: "does this ground atom hold in
// the grounded model".
type derivedStore struct {
	store factstore.FactStore
	info  *analysis.ProgramInfo
}

// holds reports whether t is a derived fact in the grounded store. Facts
// generated directly by Setup (no base-program predicate touches them)
// live in the store too, since EvalProgramWithStats ingests the generated
// facts section along with the base rules.
func (d *derivedStore) holds(t Term) bool {
	name, args, ok := t.IsFunctor()
	if !ok {
		return false
	}
	sym := ast.PredicateSym{Symbol: name, Arity: len(args)}
	target := make([]ast.Constant, len(args))
	for i, a := range args {
		target[i] = mangleConstant(a)
	}

	found := false
	d.store.GetFacts(ast.NewQuery(sym), func(a ast.Atom) error {
		if found || len(a.Args) != len(target) {
			return nil
		}
		for i, arg := range a.Args {
			c, isConst := arg.(ast.Constant)
			if !isConst || !constantEqual(c, target[i]) {
				return nil
			}
		}
		found = true
		return nil
	})
	return found
}

func constantEqual(a, b ast.Constant) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ast.NumberType:
		return a.NumValue == b.NumValue
	case ast.Float64Type:
		return a.Float64Value == b.Float64Value
	default:
		return a.Symbol == b.Symbol
	}
}

// mangleConstant converts one of our Term leaves into the backing engine's
// constant representation: strings become StringType constants, integers
// NumberType, and zero-arity functors (our stand-in for Datalog's bare
// Name constants, e.g. a package or variant-value atom) become NameType
// constants spelled "/name" per that engine's convention.
func mangleConstant(t Term) ast.Constant {
	if s, ok := t.AsString(); ok {
		c, err := ast.String(s)
		if err != nil {
			return ast.Constant{Type: ast.StringType, Symbol: s}
		}
		return c
	}
	if i, ok := t.AsInt(); ok {
		return ast.Number(i)
	}
	name, args, ok := t.IsFunctor()
	if ok && len(args) == 0 {
		c, err := ast.Name("/" + name)
		if err != nil {
			return ast.Constant{Type: ast.NameType, Symbol: "/" + name}
		}
		return c
	}
	return ast.Constant{Type: ast.StringType, Symbol: t.FunctorApplication()}
}
