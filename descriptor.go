package concretize

// VersionInfo is the per-version metadata a PackageDescriptor carries
// alongside the bare version string.
type VersionInfo struct {
	Version    Version
	Preferred  bool
	Deprecated bool
}

// DependencyClause is one declared dependency of a package: the
// dependency spec (name plus whatever constraints the package.py-style
// declaration carries), the dependency types it applies under, and the
// activation condition (itself expressed as an abstract spec) that must
// be satisfied by the dependent for the clause to apply.
type DependencyClause struct {
	Dependency PackageName
	Spec       *Spec
	Types      DepTypeSet
	// Condition is nil for an unconditional dependency.
	Condition *Spec
}

// ProvidesClause declares that a package can satisfy a virtual under a
// version range and condition.
type ProvidesClause struct {
	Virtual      PackageName
	VersionRange VersionRange
	Condition    *Spec
}

// ConflictClause is a forbidden combination: trigger describes the
// sub-spec that must be present, constraint the additional sub-spec that
// must also hold, for the conflict to fire.
type ConflictClause struct {
	Trigger    *Spec
	Constraint *Spec
}

// PackageDescriptor is everything the repository knows about one package
//: its declared versions, variant schema, dependency/provides/
// conflict clauses.
type PackageDescriptor struct {
	Name PackageName

	Versions []VersionInfo
	Variants []VariantSchema

	Dependencies []DependencyClause
	Provides     []ProvidesClause
	Conflicts    []ConflictClause

	// Deprecated maps version text to its deprecation flag, consulted by
	// the Spec builder's post-construction deprecation check.
	Deprecated map[string]bool
}

// VariantNamed returns the schema for name, if declared.
func (d *PackageDescriptor) VariantNamed(name string) (VariantSchema, bool) {
	for _, v := range d.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return VariantSchema{}, false
}

// DeclaredVersions returns the plain Version list, in descriptor order.
func (d *PackageDescriptor) DeclaredVersions() []Version {
	out := make([]Version, len(d.Versions))
	for i, vi := range d.Versions {
		out[i] = vi.Version
	}
	return out
}
