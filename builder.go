package concretize

import (
	"fmt"
	"sort"

	"github.com/gopherpack/concretize/asp"
)

// buildSpecs reconstructs concrete spec DAGs from the lowest-cost model's
// atoms. Atoms are processed in a fixed priority order to
// guarantee construction invariants: node first (it creates the spec),
// then node_compiler/node_compiler_version, then every other known
// functor. Unknown functors are logged (via the returned warnings slice,
// since this package carries no logger of its own) but do not abort the
// build.
func buildSpecs(atoms []asp.Term, repo Repository, extByID map[PackageName]map[int]ExternalEntry) (map[PackageName]*Spec, []string, error) {
	b := &builder{
		specs:    make(map[PackageName]*Spec),
		repo:     repo,
		extByID:  extByID,
		warnings: nil,
	}

	var nodeAtoms, compilerAtoms, restAtoms []asp.Term
	for _, a := range atoms {
		name, _, ok := a.IsFunctor()
		if !ok {
			continue
		}
		switch name {
		case "node":
			nodeAtoms = append(nodeAtoms, a)
		case "node_compiler", "node_compiler_version":
			compilerAtoms = append(compilerAtoms, a)
		default:
			restAtoms = append(restAtoms, a)
		}
	}

	for _, a := range nodeAtoms {
		if err := b.dispatch(a); err != nil {
			return nil, b.warnings, err
		}
	}
	for _, a := range compilerAtoms {
		if err := b.dispatch(a); err != nil {
			return nil, b.warnings, err
		}
	}
	for _, a := range restAtoms {
		if err := b.dispatch(a); err != nil {
			return nil, b.warnings, err
		}
	}

	if err := b.postConstruction(); err != nil {
		return nil, b.warnings, err
	}

	return b.specs, b.warnings, nil
}

type builder struct {
	specs    map[PackageName]*Spec
	repo     Repository
	extByID  map[PackageName]map[int]ExternalEntry
	warnings []string
}

// namespacer is implemented by repositories that know which namespace
// (repository of origin) a package came from; a repository that doesn't
// gets the stock namespace.
type namespacer interface {
	Namespace(name PackageName) string
}

// DefaultNamespace is assigned to every concrete spec whose repository
// does not report a namespace of its own.
const DefaultNamespace = "builtin"

func (b *builder) namespaceOf(name PackageName) string {
	if ns, ok := b.repo.(namespacer); ok {
		if s := ns.Namespace(name); s != "" {
			return s
		}
	}
	return DefaultNamespace
}

func (b *builder) node(name PackageName) *Spec {
	s, ok := b.specs[name]
	if !ok {
		s = NewAbstractSpec(name)
		b.specs[name] = s
	}
	return s
}

func (b *builder) dispatch(a asp.Term) error {
	name, args, _ := a.IsFunctor()
	switch name {
	case "node":
		b.node(pkgArg(args[0]))

	case "node_platform":
		b.node(pkgArg(args[0])).Arch.Platform = pkgArg(args[1]).str()
	case "node_os":
		b.node(pkgArg(args[0])).Arch.OS = pkgArg(args[1]).str()
	case "node_target":
		b.node(pkgArg(args[0])).Arch.Target = pkgArg(args[1]).str()

	case "version":
		pkg := pkgArg(args[0])
		b.node(pkg).Version = NewVersion(pkgArg(args[1]).str())

	case "node_compiler":
		b.node(pkgArg(args[0])).Compiler.Name = pkgArg(args[1]).str()
	case "node_compiler_version":
		s := b.node(pkgArg(args[0]))
		s.Compiler.Name = pkgArg(args[1]).str()
		r, err := NewVersionRange(pkgArg(args[2]).str())
		if err != nil {
			return err
		}
		s.Compiler.VersionRange = r

	case "variant_value":
		pkg := pkgArg(args[0])
		variant := pkgArg(args[1]).str()
		value := pkgArg(args[2]).str()
		s := b.node(pkg)
		switch variant {
		case VariantDevPath:
			s.DevPath = value
		case VariantPatches:
			s.Patches = append(s.Patches, value)
		default:
			assignment := s.Variants[variant]
			assignment.Name = variant
			if isSingleValuedAssignment(b.repo, pkg, variant) {
				assignment.Values = []string{value}
			} else if !assignment.HasValue(value) {
				assignment.Values = append(assignment.Values, value)
			}
			s.Variants[variant] = assignment
		}

	case "node_flag":
		pkg := pkgArg(args[0])
		cat := pkgArg(args[1]).str()
		flag := pkgArg(args[2]).str()
		s := b.node(pkg)
		s.Flags[cat] = append(s.Flags[cat], flag)

	case "node_flag_compiler_default":
		b.node(pkgArg(args[0])).FlagCompilerDefault = true

	case "node_flag_source":
		pkg := pkgArg(args[0])
		src := pkgArg(args[1]).str()
		s := b.node(pkg)
		s.FlagSources = append(s.FlagSources, PackageName(src))

	case "external_spec":
		pkg := pkgArg(args[0])
		idx := int(mustInt(args[1]))
		s := b.node(pkg)
		s.External = true
		if byID, ok := b.extByID[pkg]; ok {
			if entry, ok := byID[idx]; ok {
				s.ExternalAttrs = ExternalAttrs{Prefix: entry.Prefix, Modules: entry.Modules, Extra: entry.Extra}
			}
		}

	case "depends_on":
		dependent := pkgArg(args[0])
		dep := pkgArg(args[1])
		depType := DepType(pkgArg(args[2]).str())
		from := b.node(dependent)
		to := b.node(dep)
		if edge, ok := from.DependencyNamed(dep); ok {
			edge.Types[depType] = true
		} else {
			from.Dependencies = append(from.Dependencies, DependencyEdge{
				Spec:  to,
				Types: DepTypeSet{depType: true},
			})
		}

	default:
		if !setupOnlyFunctors[name] {
			b.warnings = append(b.warnings, fmt.Sprintf("unknown functor %q ignored", name))
		}
	}
	return nil
}

// setupOnlyFunctors are the model atoms Setup and the solver emit for
// their own bookkeeping; the builder has nothing to do with them, and only
// a functor outside the system's whole alphabet gets a warning.
var setupOnlyFunctors = map[string]bool{
	"root": true, "virtual_root": true,
	"version_declared": true, "version_satisfies": true, "version_set": true,
	"variant": true, "variant_single_value": true, "variant_possible_value": true,
	"variant_default_value_from_package_py":    true,
	"variant_default_value_from_packages_yaml": true,
	"variant_set": true,
	"compiler":    true, "compiler_version": true, "compiler_supports_os": true,
	"compiler_supports_target": true, "compiler_version_flag": true,
	"default_compiler_preference": true, "node_compiler_hard": true,
	"node_platform_default": true, "node_platform_set": true,
	"os": true, "node_os_default": true, "node_os_set": true,
	"target": true, "target_family": true, "target_parent": true,
	"default_target_weight": true, "node_target_set": true,
	"declared_dependency": true, "provides_virtual": true,
	"possible_provider": true, "single_provider_for": true,
	"default_provider_preference": true, "pkg_provider_preference": true,
	"provider_selected": true,
	"external":          true, "external_only": true, "external_version_declared": true,
	"at_least_1": true, "more_than_1": true, "rule": true,
	"real_node": true, "concrete_dependency": true, "deprecated": true,
}

// postConstruction runs the fixed post-build sequence after every atom
// has been dispatched: reorder compiler flags, assign
// namespace, inject patch variants, ensure external prefix synthesis,
// re-apply dev-path overrides, mark every spec concrete, and verify no
// deprecated versions were chosen.
func (b *builder) postConstruction() error {
	names := make([]PackageName, 0, len(b.specs))
	for n := range b.specs {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, n := range names {
		s := b.specs[n]
		reorderFlags(s)
	}

	for _, n := range names {
		b.specs[n].Namespace = b.namespaceOf(n)
	}

	for _, n := range names {
		s := b.specs[n]
		if len(s.Patches) > 0 {
			assignment := s.Variants[VariantPatches]
			assignment.Name = VariantPatches
			assignment.Values = append([]string{}, s.Patches...)
			s.Variants[VariantPatches] = assignment
		}
	}

	for _, n := range names {
		s := b.specs[n]
		if s.External && s.ExternalAttrs.Prefix == "" && len(s.ExternalAttrs.Modules) > 0 {
			s.ExternalAttrs.Prefix = synthesizePrefixFromModules(s.ExternalAttrs.Modules)
		}
	}

	for _, n := range names {
		s := b.specs[n]
		if s.DevPath != "" {
			assignment := s.Variants[VariantDevPath]
			assignment.Name = VariantDevPath
			assignment.Values = []string{s.DevPath}
			s.Variants[VariantDevPath] = assignment
		}
	}

	for _, n := range names {
		b.specs[n].Concrete = true
	}

	for _, n := range names {
		s := b.specs[n]
		desc, err := b.repo.PackageDescriptor(s.Name)
		if err != nil {
			continue // unknown-package is already fatal earlier in Setup
		}
		if desc.Deprecated[s.Version.String()] {
			return &ConfigurationError{Pkg: string(s.Name), Detail: "deprecated version " + s.Version.String() + " was chosen"}
		}
	}

	return nil
}

// synthesizePrefixFromModules pins down what a modules-only external
// entry leaves underspecified: this implementation takes the
// directory of the first loadable module path as the synthesized prefix,
// since that is the only attribute a module entry is guaranteed to carry.
func synthesizePrefixFromModules(modules []string) string {
	if len(modules) == 0 {
		return ""
	}
	first := modules[0]
	for i := len(first) - 1; i >= 0; i-- {
		if first[i] == '/' {
			return first[:i]
		}
	}
	return first
}

func isSingleValuedAssignment(repo Repository, pkg PackageName, variant string) bool {
	desc, err := repo.PackageDescriptor(pkg)
	if err != nil {
		return false
	}
	schema, ok := desc.VariantNamed(variant)
	if !ok {
		return false
	}
	return schema.SingleValue
}

// pkgWord wraps a functor-zero-arity argument term's name, the way Setup
// encodes bare symbols (package names, variant values, categories) as
// zero-arity functors rather than string literals, matching the backing
// engine's Name-constant convention (see asp.Term.mangleLiteral).
type pkgWord struct{ name string }

func (w pkgWord) str() string { return w.name }

func pkgArg(t asp.Term) pkgWord {
	if name, args, ok := t.IsFunctor(); ok && len(args) == 0 {
		return pkgWord{name: name}
	}
	if s, ok := t.AsString(); ok {
		return pkgWord{name: s}
	}
	return pkgWord{}
}

func mustInt(t asp.Term) int64 {
	i, _ := t.AsInt()
	return i
}
