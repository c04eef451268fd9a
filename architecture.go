package concretize

// Architecture is the platform/OS/target triple assigned to a concrete
// node. A target may be a single microarchitecture name (concrete) or,
// on an abstract spec, a range understood by the TargetDatabase family
// relation.
type Architecture struct {
	Platform string
	OS       string
	Target   string
}

func (a Architecture) String() string {
	return a.Platform + "-" + a.OS + "-" + a.Target
}

// IsZero reports whether every field of a is unset.
func (a Architecture) IsZero() bool { return a.Platform == "" && a.OS == "" && a.Target == "" }

// TargetDatabase resolves microarchitecture relationships: the
// ancestors of a target (for building the compatibility family probed
// when computing compiler_supports_target), its immediate parents, its
// family name, and the optimization flags a given compiler/version pair
// uses to target it.
type TargetDatabase interface {
	// Ancestors returns target, its parents, and their parents
	// transitively, nearest first.
	Ancestors(target string) []string
	// Parents returns target's immediate parent targets.
	Parents(target string) []string
	// Family returns the microarchitecture family target belongs to.
	Family(target string) string
	// OptimizationFlags returns the flags a compiler/version uses to
	// target this microarchitecture. An UnsupportedMicroarchitecture
	// error is expected and tolerated by Setup (treated as "this
	// compiler cannot target this microarchitecture", not a fatal
	// error).
	OptimizationFlags(compiler, version, target string) ([]string, error)
}

// UnsupportedMicroarchitecture is returned by TargetDatabase.
// OptimizationFlags when a compiler/version cannot target a
// microarchitecture; Setup tolerates this by omission rather than
// treating it as a configuration failure.
type UnsupportedMicroarchitecture struct {
	Compiler, Version, Target string
}

func (e *UnsupportedMicroarchitecture) Error() string {
	return "unsupported microarchitecture " + e.Target + " for " + e.Compiler + "@" + e.Version
}

// CompilerEntry describes one configured compiler: its name,
// version, host operating system, flag map by category, and the targets
// it is known to support (derived via TargetDatabase while Setup emits
// compiler_supports_target facts).
type CompilerEntry struct {
	Name    string
	Version string
	OS      string
	Flags   map[string][]string // category -> ordered flag tokens
}

// Platform bundles the architecture defaults and target database a
// concretization run is configured against.
type Platform struct {
	Default   string
	FrontOS   string
	BackOS    string
	DefaultOS string
	// DefaultTarget is the host microarchitecture: Setup probes the
	// compatibility family from its Ancestors and it anchors
	// the default_target_weight ranking (weight 0).
	DefaultTarget string
	Targets       TargetDatabase
}
