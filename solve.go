package concretize

import (
	"context"
	"strings"

	"github.com/gopherpack/concretize/asp"
)

// Options bundles everything a single concretization run needs beyond the
// input specs themselves: the repository and configuration collaborators,
// the target platform, and the behavioral toggles (test-dependency
// inclusion, strict compiler existence, unsat-core reporting, and an
// optional override of the solver session's tuned defaults).
type Options struct {
	Repo     Repository
	Cfg      Config
	Platform Platform

	// IncludeTestsGlobal walks test-type dependencies for every package;
	// IncludeTestsFor does so for specific packages only.
	IncludeTestsGlobal bool
	IncludeTestsFor    map[PackageName]bool

	// StrictCompilerExistence makes a pinned compiler absent from the
	// configured list a fatal UnavailableCompiler rather than merely
	// unsatisfiable.
	StrictCompilerExistence bool

	// CoreReporting tags every generated rule/integrity-constraint with a
	// choice atom for unsat-core attribution. It is off unless set, and
	// this value replaces the Driver config's CoreReporting whether or not
	// DriverConfig is given.
	CoreReporting bool

	// DriverConfig overrides the solver session's tuned parameters
	//. Leave
	// nil to use asp.DefaultConfig(); overriding the tuned defaults is the
	// caller's choice to make, not this package's.
	DriverConfig *asp.Config
}

// Solve concretizes inputSpecs against opts: it runs Setup to
// ground a Program from the closed world reachable from inputSpecs, hands
// the Program to the embedded solver Driver, and reconstructs concrete spec
// DAGs for every cost-ordered model the Driver returns, one root per input
// spec (a virtual input spec's root resolves to whichever provider the
// solve actually selected). ctx carries a cooperative stop signal checked
// before grounding; Setup itself has no suspension points.
func Solve(ctx context.Context, inputSpecs []*Spec, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := NewSolveContext(opts.Repo, opts.Cfg, opts.Platform, opts.CoreReporting)
	c.IncludeTestsGlobal = opts.IncludeTestsGlobal
	for k, v := range opts.IncludeTestsFor {
		c.IncludeTestsFor[k] = v
	}
	c.StrictCompilerExistence = opts.StrictCompilerExistence

	if err := runSetup(c, inputSpecs); err != nil {
		return nil, err
	}

	driverCfg := asp.DefaultConfig()
	if opts.DriverConfig != nil {
		driverCfg = *opts.DriverConfig
	}
	driverCfg.CoreReporting = opts.CoreReporting
	driver := asp.NewDriver(driverCfg)

	raw, err := driver.Solve(ctx, c.program)
	if err != nil {
		return nil, wrapInternal("solving generated program", err)
	}

	if !raw.Satisfiable {
		return &Result{Satisfiable: false, Cores: raw.Cores, Warnings: raw.Warnings, Timings: raw.Timings}, nil
	}
	if len(raw.Answers) == 0 {
		return nil, &Internal{Detail: "solve reported satisfiable with zero answers"}
	}

	result := &Result{Satisfiable: true, Warnings: append([]string{}, raw.Warnings...), Timings: raw.Timings}
	for _, a := range raw.Answers {
		specs, warnings, err := buildSpecs(a.Atoms, opts.Repo, c.externalIDs)
		if err != nil {
			return nil, err
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Answers = append(result.Answers, Answer{
			CostVector: a.CostVector,
			Roots:      rootsOf(c, specs, a.Atoms),
		})
	}

	return result, nil
}

// DumpProgram runs Setup for inputSpecs/opts and serializes the resulting
// generated program to sink without grounding or searching it (the
// text-only mode surfaced on the CLI via --show asp). It returns the
// SolveContext used, in case a caller wants to inspect it further.
func DumpProgram(ctx context.Context, inputSpecs []*Spec, opts Options, sink *strings.Builder) (*SolveContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := NewSolveContext(opts.Repo, opts.Cfg, opts.Platform, opts.CoreReporting)
	c.IncludeTestsGlobal = opts.IncludeTestsGlobal
	for k, v := range opts.IncludeTestsFor {
		c.IncludeTestsFor[k] = v
	}
	c.StrictCompilerExistence = opts.StrictCompilerExistence

	if err := runSetup(c, inputSpecs); err != nil {
		return nil, err
	}

	driverCfg := asp.DefaultConfig()
	if opts.DriverConfig != nil {
		driverCfg = *opts.DriverConfig
	}
	driverCfg.CoreReporting = opts.CoreReporting
	driverCfg.TextOnly = true
	driverCfg.TextSink = sink
	driver := asp.NewDriver(driverCfg)

	if _, err := driver.Solve(ctx, c.program); err != nil {
		return nil, wrapInternal("dumping generated program", err)
	}
	return c, nil
}

// rootsOf maps each requested root name to its reconstructed spec: directly
// for a concrete root, and through whichever provider the solve actually
// selected (read back from the model's provider_selected atoms) for a
// virtual root.
func rootsOf(c *SolveContext, specs map[PackageName]*Spec, atoms []asp.Term) map[PackageName]*Spec {
	roots := make(map[PackageName]*Spec, len(c.roots)+len(c.virtualRoots))

	for _, name := range c.roots {
		if s, ok := specs[name]; ok {
			roots[name] = s
		}
	}

	if len(c.virtualRoots) == 0 {
		return roots
	}

	chosenProvider := make(map[PackageName]PackageName)
	for _, t := range atoms {
		name, args, ok := t.IsFunctor()
		if !ok || name != "provider_selected" || len(args) != 2 {
			continue
		}
		chosenProvider[PackageName(pkgArg(args[0]).str())] = PackageName(pkgArg(args[1]).str())
	}

	for _, virtual := range c.virtualRoots {
		provider, ok := chosenProvider[virtual]
		if !ok {
			continue
		}
		if s, ok := specs[provider]; ok {
			roots[virtual] = s
		}
	}

	return roots
}
