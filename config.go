package concretize

// Config is the configuration loader, consumed only through this narrow
// interface: it is an external collaborator (packages.yaml /
// compilers.yaml loading is out of scope), not part of the core.
type Config interface {
	// Packages returns the packages.yaml-shaped configuration: externals,
	// provider preferences, variant default overrides, and buildable
	// flags, per package.
	Packages() PackagesConfig
	// Compilers returns the configured compiler list.
	Compilers() []CompilerEntry
	// ConcretizerBackend selects the concretizer backend, the
	// config:concretizer query. This implementation has exactly one
	// backend (the embedded Mangle-backed Driver), so the value is
	// informational only; Setup and the Driver never branch on it.
	ConcretizerBackend() string
}
