package concretize

// Repository is the package-repository loader, consumed only through this
// narrow interface: it is an external collaborator, not part
// of the core.
type Repository interface {
	// PackageDescriptor returns the descriptor for name. Returns an
	// *UnknownPackage error (wrapped via errors.go's taxonomy) if name is
	// not in the repository.
	PackageDescriptor(name PackageName) (*PackageDescriptor, error)
	// IsVirtual reports whether name is a virtual rather than a concrete
	// package.
	IsVirtual(name PackageName) bool
	// ProvidersFor returns every package that declares a provides clause
	// for virtual, in repository order (Setup enumerates providers in
	// this order).
	ProvidersFor(virtual PackageName) []PackageName
	// PossibleDependencies returns the transitive closure of packages
	// reachable from specs via clauses of the given deptypes, adding any
	// virtual name encountered along the way into virtuals. Build
	// dependencies of externals are not followed; the
	// caller (Setup) is responsible for having already added DepTest to
	// deptypes when tests are requested.
	PossibleDependencies(specs []*Spec, virtuals map[PackageName]bool, deptypes DepTypeSet) ([]PackageName, error)
}
