package concretize

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// traceError is implemented by every error type in this package's taxonomy
// in addition to error itself: traceString renders a longer, solver-trace
// style rendering, while Error renders the short user-facing message.
type traceError interface {
	traceString() string
}

// ConfigurationError covers an invalid or missing compiler, an invalid
// variant default, or a malformed external entry: anything Setup finds
// wrong with configuration before the solver ever runs.
type ConfigurationError struct {
	Pkg    string
	Detail string
}

func (e *ConfigurationError) Error() string {
	if e.Pkg == "" {
		return fmt.Sprintf("configuration error: %s", e.Detail)
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Pkg, e.Detail)
}

func (e *ConfigurationError) traceString() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "ConfigurationError\n  pkg: %s\n  detail: %s", e.Pkg, e.Detail)
	return buf.String()
}

// UnknownPackage is raised when a referenced package does not exist in the
// repository.
type UnknownPackage struct {
	Name string
}

func (e *UnknownPackage) Error() string { return fmt.Sprintf("unknown package %q", e.Name) }

func (e *UnknownPackage) traceString() string {
	return fmt.Sprintf("UnknownPackage\n  name: %s", e.Name)
}

// UnavailableCompiler is raised when strict compiler-existence checking is
// enabled and the requested compiler is not in the configured list.
type UnavailableCompiler struct {
	Name    string
	Version string
}

func (e *UnavailableCompiler) Error() string {
	return fmt.Sprintf("compiler %s@%s is not available", e.Name, e.Version)
}

func (e *UnavailableCompiler) traceString() string {
	return fmt.Sprintf("UnavailableCompiler\n  name: %s\n  version: %s", e.Name, e.Version)
}

// InvalidVariantValue is raised when an injected input spec's variant
// value fails validation against the package descriptor.
type InvalidVariantValue struct {
	Pkg, Variant, Value string
}

func (e *InvalidVariantValue) Error() string {
	return fmt.Sprintf("invalid value %q for variant %q of package %s", e.Value, e.Variant, e.Pkg)
}

func (e *InvalidVariantValue) traceString() string {
	return fmt.Sprintf("InvalidVariantValue\n  pkg: %s\n  variant: %s\n  value: %s", e.Pkg, e.Variant, e.Value)
}

// Unsatisfiable is a rendering aid for an UNSAT solve: Solve itself
// reports UNSAT through Result.Satisfiable=false plus Result.Cores
// (returned, not thrown, so callers can inspect the cores), and callers
// that need an error value to hand upward wrap the cores in one of these.
type Unsatisfiable struct {
	Cores [][]string
}

func (e *Unsatisfiable) Error() string {
	return fmt.Sprintf("Unsatisfiable spec. (%d core(s))", len(e.Cores))
}

func (e *Unsatisfiable) traceString() string {
	var buf bytes.Buffer
	buf.WriteString("Unsatisfiable\n")
	for i, core := range e.Cores {
		fmt.Fprintf(&buf, "  core %d:\n", i)
		for _, rule := range core {
			fmt.Fprintf(&buf, "    %s\n", rule)
		}
	}
	return buf.String()
}

// Internal covers grounding or backend inconsistency: a missing asset, a
// backend crash, or a satisfiable solve that somehow returned zero models
// (a logic bug; fail fast).
type Internal struct {
	Detail string
	Cause  error
}

func (e *Internal) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Detail)
}

func (e *Internal) traceString() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Internal\n  detail: %s", e.Detail)
	if e.Cause != nil {
		fmt.Fprintf(&buf, "\n  cause: %s", errors.Cause(e.Cause))
	}
	return buf.String()
}

func (e *Internal) Unwrap() error { return e.Cause }

// wrapInternal is the single boundary where solver-interop failures (the
// Driver's parse/analysis/evaluation errors) are attributed to an Internal
// error, matching the "wrap the solver interop at one boundary" design
// note.
func wrapInternal(detail string, cause error) error {
	return &Internal{Detail: detail, Cause: errors.WithStack(cause)}
}
