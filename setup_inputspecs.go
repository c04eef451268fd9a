package concretize

import (
	"sort"

	"github.com/gopherpack/concretize/asp"
)

// collectInputPins walks every input spec's tree and records the
// constraints it pins on each node it touches, before setupVersions,
// setupVariants, and setupCompilers build their ChoiceGroups, so a
// user-supplied constraint narrows the candidate list to the single
// forced candidate instead of being reconciled after the fact. It also
// records which top-level names are roots versus
// virtual roots, for setupInputSpecs to emit root/virtual_root facts
// from.
func collectInputPins(c *SolveContext, inputSpecs []*Spec) {
	for _, s := range inputSpecs {
		if s.IsVirtual || c.Repo.IsVirtual(s.Name) {
			c.virtualRoots = append(c.virtualRoots, s.Name)
		} else {
			c.roots = append(c.roots, s.Name)
		}
	}

	for _, root := range inputSpecs {
		root.Walk(func(node *Spec) bool {
			// A spec literal carries no virtual marker of its own; the
			// repository is what knows "mpi" names a capability, not a
			// package.
			if node.IsVirtual || c.Repo.IsVirtual(node.Name) {
				collectVirtualPins(c, node)
				return true
			}
			collectNodePins(c, node)
			return true
		})
	}
}

// collectVirtualPins records the version constraint an input spec places on
// a virtual node ("^mpi@10.0"): providers whose provides range cannot meet
// it are discarded by setupVirtuals.
func collectVirtualPins(c *SolveContext, node *Spec) {
	if !node.Version.IsZero() {
		if r, err := NewVersionRange(node.Version.String()); err == nil {
			c.addVirtualRange(node.Name, r)
		}
		return
	}
	if node.VersionRange.String() != "*" {
		c.addVirtualRange(node.Name, node.VersionRange)
	}
}

func collectNodePins(c *SolveContext, node *Spec) {
	name := node.Name

	if !node.Version.IsZero() {
		if r, err := NewVersionRange(node.Version.String()); err == nil {
			c.pinnedVersion[name] = r
		}
	} else if node.VersionRange.String() != "*" {
		c.pinnedVersion[name] = node.VersionRange
	}

	if len(node.Variants) > 0 {
		names := make([]string, 0, len(node.Variants))
		for n := range node.Variants {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, vname := range names {
			if vname == VariantDevPath || vname == VariantPatches {
				continue
			}
			va := node.Variants[vname]
			var values []string
			for _, v := range va.Values {
				if v != "*" {
					values = append(values, v)
				}
			}
			if len(values) == 0 {
				continue
			}
			byVariant, ok := c.pinnedVariants[name]
			if !ok {
				byVariant = make(map[string][]string)
				c.pinnedVariants[name] = byVariant
			}
			byVariant[vname] = values

			if desc, ok := c.index.get(name); ok {
				if schema, ok := desc.VariantNamed(vname); ok && schema.isOpen() {
					for _, v := range values {
						c.addExtraPossibleValue(name, vname, v)
					}
				}
			}
		}
	}

	if node.Compiler.Name != "" && node.Compiler.Hard {
		c.pinnedCompiler[name] = node.Compiler
	}

	if !node.Arch.IsZero() {
		c.pinnedArch[name] = node.Arch
	}

	if node.DevPath != "" {
		c.pinnedDevPath[name] = node.DevPath
	}

	if len(node.Flags) > 0 {
		byCat, ok := c.pinnedFlags[name]
		if !ok {
			byCat = make(map[string][]string)
			c.pinnedFlags[name] = byCat
		}
		for cat, flags := range node.Flags {
			byCat[cat] = append(byCat[cat], flags...)
		}
	}

	if len(node.Patches) > 0 {
		c.pinnedPatches[name] = append(append([]string{}, c.pinnedPatches[name]...), node.Patches...)
	}
}

// setupInputSpecs emits the facts that anchor the input specs in the
// generated program and validates what collectInputPins gathered against
// each package's descriptor: root(name)/virtual_root(name)
// for every top-level spec, a node(name) fact for every concrete root (so
// it exists in the DAG even with no dependent requiring it) and a
// node(provider) propagation rule for every virtual root's possible
// providers, the variant_set/node_platform_set/node_os_set/
// node_target_set/version_set traceability facts, the unconditional
// dev_path/patches variant_value injections, and validation of every
// pinned non-special variant value against its package's VariantSchema;
// an invalid value is a fatal InvalidVariantValue, not merely
// unsatisfiable.
func setupInputSpecs(c *SolveContext, inputSpecs []*Spec) error {
	for _, name := range c.roots {
		c.program.Fact(asp.Fn("root", pkgTerm(name)))
		c.program.Fact(asp.Fn("node", pkgTerm(name)))
	}
	for _, virtual := range c.virtualRoots {
		c.program.Fact(asp.Fn("virtual_root", pkgTerm(virtual)))
		for _, provider := range c.Repo.ProvidersFor(virtual) {
			c.program.Rule(asp.Fn("node", pkgTerm(provider)), []asp.Term{
				asp.Fn("provider_selected", pkgTerm(virtual), pkgTerm(provider)),
			})
		}
	}

	pkgNames := make([]PackageName, 0, len(c.pinnedVariants))
	for n := range c.pinnedVariants {
		pkgNames = append(pkgNames, n)
	}
	sort.Slice(pkgNames, func(i, j int) bool { return pkgNames[i] < pkgNames[j] })

	for _, name := range pkgNames {
		desc, ok := c.index.get(name)
		if !ok {
			continue
		}
		variantNames := make([]string, 0, len(c.pinnedVariants[name]))
		for v := range c.pinnedVariants[name] {
			variantNames = append(variantNames, v)
		}
		sort.Strings(variantNames)

		for _, vname := range variantNames {
			schema, ok := desc.VariantNamed(vname)
			if !ok {
				return &InvalidVariantValue{Pkg: string(name), Variant: vname, Value: c.pinnedVariants[name][vname][0]}
			}
			for _, value := range c.pinnedVariants[name][vname] {
				if !schema.validates(value) {
					return &InvalidVariantValue{Pkg: string(name), Variant: vname, Value: value}
				}
				c.program.Fact(asp.Fn("variant_set", pkgTerm(name), wordTerm(vname), wordTerm(value)))
			}
		}
	}

	devPathNames := make([]PackageName, 0, len(c.pinnedDevPath))
	for n := range c.pinnedDevPath {
		devPathNames = append(devPathNames, n)
	}
	sort.Slice(devPathNames, func(i, j int) bool { return devPathNames[i] < devPathNames[j] })
	for _, name := range devPathNames {
		c.program.Fact(asp.Fn("variant_value", pkgTerm(name), wordTerm(VariantDevPath), asp.Str(c.pinnedDevPath[name])))
	}

	patchNames := make([]PackageName, 0, len(c.pinnedPatches))
	for n := range c.pinnedPatches {
		patchNames = append(patchNames, n)
	}
	sort.Slice(patchNames, func(i, j int) bool { return patchNames[i] < patchNames[j] })
	for _, name := range patchNames {
		for _, patch := range c.pinnedPatches[name] {
			c.program.Fact(asp.Fn("variant_value", pkgTerm(name), wordTerm(VariantPatches), asp.Str(patch)))
		}
	}

	flagNames := make([]PackageName, 0, len(c.pinnedFlags))
	for n := range c.pinnedFlags {
		flagNames = append(flagNames, n)
	}
	sort.Slice(flagNames, func(i, j int) bool { return flagNames[i] < flagNames[j] })
	for _, name := range flagNames {
		c.program.Fact(asp.Fn("node_flag_source", pkgTerm(name), pkgTerm(name)))
		for _, cat := range sortedFlagCategories(c.pinnedFlags[name]) {
			for _, flag := range c.pinnedFlags[name][cat] {
				c.program.Fact(asp.Fn("node_flag", pkgTerm(name), wordTerm(cat), asp.Str(flag)))
			}
		}
	}

	archNames := make([]PackageName, 0, len(c.pinnedArch))
	for n := range c.pinnedArch {
		archNames = append(archNames, n)
	}
	sort.Slice(archNames, func(i, j int) bool { return archNames[i] < archNames[j] })
	for _, name := range archNames {
		pin := c.pinnedArch[name]
		if pin.Platform != "" {
			c.program.Fact(asp.Fn("node_platform_set", pkgTerm(name), wordTerm(pin.Platform)))
		}
		if pin.OS != "" {
			c.program.Fact(asp.Fn("node_os_set", pkgTerm(name), wordTerm(pin.OS)))
		}
		if pin.Target != "" {
			c.program.Fact(asp.Fn("node_target_set", pkgTerm(name), wordTerm(pin.Target)))
		}
	}

	versionNames := make([]PackageName, 0, len(c.pinnedVersion))
	for n := range c.pinnedVersion {
		versionNames = append(versionNames, n)
	}
	sort.Slice(versionNames, func(i, j int) bool { return versionNames[i] < versionNames[j] })
	for _, name := range versionNames {
		pin := c.pinnedVersion[name]
		c.program.Fact(asp.Fn("version_set", pkgTerm(name), asp.Str(pin.String())))
		c.addVersionRange(name, pin)
	}

	return nil
}
