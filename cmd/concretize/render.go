package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gopherpack/concretize"
)

// coverNodes flattens root's DAG into the list of its reachable nodes,
// each listed once, sorted by name. The cover selector is accepted but not
// consulted: "nodes", "edges" and "paths" all produce this same list.
func coverNodes(root *concretize.Spec, cover string) []*concretize.Spec {
	var out []*concretize.Spec
	root.Walk(func(n *concretize.Spec) bool {
		out = append(out, n)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func displayName(s *concretize.Spec, namespaces bool) string {
	if namespaces && s.Namespace != "" {
		return s.Namespace + "." + string(s.Name)
	}
	return string(s.Name)
}

// renderTree renders nodes the way `spack spec`'s default text format does
//: name@version%compiler
// plus variants, one line per node, indented to show the DAG shape isn't
// attempted here since this CLI covers "nodes" flatly; see coverNodes.
func renderTree(nodes []*concretize.Spec, namespaces, types bool) string {
	var b strings.Builder
	for _, n := range nodes {
		fmt.Fprintf(&b, "%s@%s", displayName(n, namespaces), n.Version.String())
		if n.Compiler.Name != "" {
			fmt.Fprintf(&b, "%%%s", n.Compiler.Name)
		}
		for _, vname := range sortedVariantNames(n) {
			va := n.Variants[vname]
			fmt.Fprintf(&b, " %s=%s", vname, strings.Join(va.Values, ","))
		}
		if types {
			for _, e := range n.Dependencies {
				fmt.Fprintf(&b, "\n    -> %s [%s]", e.Spec.Name, depTypesString(e.Types))
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedVariantNames(s *concretize.Spec) []string {
	names := make([]string, 0, len(s.Variants))
	for n := range s.Variants {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func depTypesString(types concretize.DepTypeSet) string {
	var out []string
	for _, t := range []concretize.DepType{concretize.DepBuild, concretize.DepLink, concretize.DepRun, concretize.DepTest} {
		if types.Has(t) {
			out = append(out, string(t))
		}
	}
	return strings.Join(out, ",")
}

// renderYAML renders nodes as a minimal YAML document. A full spec-record
// serialization format is owned by the downstream spec layer; this is the
// CLI's own debug rendering, not that format.
func renderYAML(nodes []*concretize.Spec, namespaces, types bool) string {
	var b strings.Builder
	b.WriteString("spec:\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "  - name: %s\n", displayName(n, namespaces))
		fmt.Fprintf(&b, "    version: %s\n", n.Version.String())
		if n.Compiler.Name != "" {
			fmt.Fprintf(&b, "    compiler: %s\n", n.Compiler.Name)
		}
		fmt.Fprintf(&b, "    arch: %s\n", n.Arch.String())
		if len(n.Variants) > 0 {
			b.WriteString("    variants:\n")
			for _, vname := range sortedVariantNames(n) {
				fmt.Fprintf(&b, "      %s: %s\n", vname, strings.Join(n.Variants[vname].Values, ","))
			}
		}
		if types && len(n.Dependencies) > 0 {
			b.WriteString("    dependencies:\n")
			for _, e := range n.Dependencies {
				fmt.Fprintf(&b, "      %s: [%s]\n", e.Spec.Name, depTypesString(e.Types))
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderJSON renders nodes as a minimal hand-built JSON document:
// explicit field-by-field construction beats a generic marshaler when
// the output shape is this small and fixed.
func renderJSON(nodes []*concretize.Spec, namespaces, types bool) string {
	var b strings.Builder
	b.WriteString(`{"nodes":[`)
	for i, n := range nodes {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"name":%q,"version":%q,"arch":%q`, displayName(n, namespaces), n.Version.String(), n.Arch.String())
		if n.Compiler.Name != "" {
			fmt.Fprintf(&b, `,"compiler":%q`, n.Compiler.Name)
		}
		if types && len(n.Dependencies) > 0 {
			b.WriteString(`,"dependencies":[`)
			for j, e := range n.Dependencies {
				if j > 0 {
					b.WriteString(",")
				}
				fmt.Fprintf(&b, `{"name":%q,"types":%q}`, e.Spec.Name, depTypesString(e.Types))
			}
			b.WriteString("]")
		}
		b.WriteString("}")
	}
	b.WriteString("]}")
	return b.String()
}
