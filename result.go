package concretize

import "github.com/gopherpack/concretize/asp"

// Answer is one cost-ordered stable model, reconstructed into concrete
// spec DAGs, one root per input spec.
type Answer struct {
	CostVector []int
	Roots      map[PackageName]*Spec
}

// Result is returned by Solve: satisfiability, the cost-ordered
// answers, and, on failure, the cores rendered back to rule strings plus
// any non-fatal warnings.
type Result struct {
	Satisfiable bool
	Answers     []Answer
	Cores       [][]string
	Warnings    []string
	// Timings holds the Driver's per-phase wall-clock breakdown, surfaced
	// by the CLI's --timers flag.
	Timings []asp.PhaseTiming
}
