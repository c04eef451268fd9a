package concretize

// ExternalEntry is one externally-installed package declared in
// configuration: a package name, a spec literal pinning its
// attributes, a prefix path, optional loadable modules, extra attributes,
// plus the per-package buildable flag.
type ExternalEntry struct {
	Pkg     PackageName
	Spec    *Spec
	Prefix  string
	Modules []string
	Extra   map[string]string
}

// PackageConfig is the packages.yaml-shaped configuration for a single
// package: its externals, its provider preference order if it is (or
// provides) a virtual, its variant default overrides, its buildable flag,
// and any explicit version preference order.
type PackageConfig struct {
	Pkg             PackageName
	Buildable       bool
	Externals       []ExternalEntry
	Providers       []PackageName // preference-ordered, most preferred first
	VariantDefaults map[string]string
	// VersionPreference maps version text to an explicit preference rank;
	// lower ranks win.
	VersionPreference map[string]int
}

// PackagesConfig is the full packages.yaml-shaped configuration: a
// per-package map plus the "all" defaults block
// (packages:all:providers).
type PackagesConfig struct {
	Packages map[PackageName]PackageConfig
	// AllProviders is the default_provider_preference input: virtual name
	// -> preference-ordered provider list.
	AllProviders map[PackageName][]PackageName
}

// ForPackage returns the configuration for name, or the zero value
// (buildable, no externals or overrides) if none is declared.
func (c PackagesConfig) ForPackage(name PackageName) PackageConfig {
	if cfg, ok := c.Packages[name]; ok {
		return cfg
	}
	return PackageConfig{Pkg: name, Buildable: true}
}
