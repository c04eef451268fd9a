package concretize

import (
	"fmt"
	"strings"
)

// ParseSpecLiteral parses a single CLI spec literal into an abstract Spec
// tree. The grammar:
//
//	name[@version][%compiler[@compilerVersion]][+variant|~variant|variant=value ...][arch=platform-os-target][^dependency ...]
//
// A leading '^' introduces a dependency sub-spec, itself written in the
// same grammar (e.g. "mpileaks ^mpich2@1.1"); every dependency spec
// attaches directly to the root, so the result is one level deep. Spaces
// separate a root spec from its '^'-prefixed dependency specs, and the
// root's own clauses may also follow it as separate space-separated
// tokens ("cmake-client %gcc@4.7.2 os=fe").
func ParseSpecLiteral(literal string) (*Spec, error) {
	fields := strings.Fields(literal)
	if len(fields) == 0 {
		return nil, fmt.Errorf("concretize: empty spec literal")
	}

	root, err := parseSpecClauses(fields[0])
	if err != nil {
		return nil, err
	}

	// A bare "^" is the same dependency introducer with optional space
	// ("mpileaks ^ mpich2" and "mpileaks ^mpich2" are one grammar); glue
	// it to the following token before clause dispatch.
	var tokens []string
	for i := 1; i < len(fields); i++ {
		if fields[i] == "^" {
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("concretize: empty dependency spec after '^'")
			}
			i++
			tokens = append(tokens, "^"+fields[i])
			continue
		}
		tokens = append(tokens, fields[i])
	}

	for _, f := range tokens {
		switch {
		case strings.HasPrefix(f, "^"):
			rest, err := splitDependencyToken(f)
			if err != nil {
				return nil, err
			}
			depSpec, err := parseSpecClauses(rest)
			if err != nil {
				return nil, err
			}
			// "^foo ^bar@1" both hang off the same parent; this CLI
			// surface supports only flat root+deps, not arbitrarily
			// nested trees, so every dependency token attaches to the
			// root.
			root.Dependencies = append(root.Dependencies, DependencyEdge{
				Spec:  depSpec,
				Types: AllRuntimeDepTypes(),
			})

		case isClauseIntroducer(f[0]):
			// A space-separated clause run ("%gcc@4.7.2", "+debug")
			// constrains the root spec itself.
			_, clauses, err := splitClauses(f)
			if err != nil {
				return nil, err
			}
			for _, cl := range clauses {
				if err := applyClause(root, cl); err != nil {
					return nil, err
				}
			}

		case strings.ContainsRune(f, '='):
			// A bare "key=value" token constrains the root: the three
			// architecture keys (plus the combined "arch") set the
			// architecture field they name, anything else is a variant
			// assignment.
			idx := strings.IndexByte(f, '=')
			key, val := f[:idx], f[idx+1:]
			if err := applyKeyedClause(root, key, val); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("concretize: unexpected token %q in spec literal", f)
		}
	}

	return root, nil
}

// applyKeyedClause folds a standalone "key=value" token into s: the
// platform/os/target/arch keys set architecture, every other key assigns
// a variant.
func applyKeyedClause(s *Spec, key, value string) error {
	switch key {
	case "platform":
		s.Arch.Platform = value
	case "os":
		s.Arch.OS = value
	case "target":
		s.Arch.Target = value
	case "arch":
		return applyClause(s, parsedClause{kind: 'a', value: value})
	default:
		return setVariantValue(s, key, value)
	}
	return nil
}

// ParseSpecLiterals parses every element of literals via ParseSpecLiteral,
// stopping at the first error.
func ParseSpecLiterals(literals []string) ([]*Spec, error) {
	out := make([]*Spec, 0, len(literals))
	for _, l := range literals {
		s, err := ParseSpecLiteral(l)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// splitDependencyToken strips a leading '^' from a dependency token and
// returns the remaining clause text.
func splitDependencyToken(token string) (rest string, err error) {
	if !strings.HasPrefix(token, "^") {
		return "", fmt.Errorf("concretize: expected '^' before dependency spec %q", token)
	}
	rest = token[1:]
	if rest == "" {
		return "", fmt.Errorf("concretize: empty dependency spec after '^'")
	}
	return rest, nil
}

// parseSpecClauses parses one un-spaced clause run, a package (or
// virtual) name followed by any number of @version, %compiler, +variant,
// ~variant, variant=value, and arch=platform-os-target clauses, into an
// abstract Spec.
func parseSpecClauses(token string) (*Spec, error) {
	name, clauses, err := splitClauses(token)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("concretize: spec literal %q has no package name", token)
	}

	s := NewAbstractSpec(PackageName(name))

	for _, cl := range clauses {
		if err := applyClause(s, cl); err != nil {
			return nil, fmt.Errorf("concretize: spec literal %q: %w", token, err)
		}
	}
	return s, nil
}

// parsedClause tags one parsed clause so applyClause can dispatch without
// re-inspecting the original text.
type parsedClause struct {
	kind  byte // '@' version, '%' compiler, '+' variant-on, '~' variant-off, '=' variant=value, 'a' arch
	value string
}

// splitClauses walks token left to right, splitting the leading bare name
// from the clause run and tokenizing each clause by its introducing
// character. This is a small hand-rolled scanner rather than a regexp,
// over pulling in a parsing library for a grammar this short.
func splitClauses(token string) (name string, clauses []parsedClause, err error) {
	i := 0
	for i < len(token) && !isClauseIntroducer(token[i]) {
		i++
	}
	name = token[:i]

	for i < len(token) {
		introducer := token[i]
		j := i + 1
		for j < len(token) && !isClauseIntroducer(token[j]) {
			j++
		}
		// A compiler clause owns its version: the '@' in "%gcc@4.7.2"
		// belongs to gcc, not to the package.
		if introducer == '%' && j < len(token) && token[j] == '@' {
			j++
			for j < len(token) && !isClauseIntroducer(token[j]) {
				j++
			}
		}
		body := token[i+1 : j]

		switch introducer {
		case '@':
			clauses = append(clauses, parsedClause{kind: '@', value: body})
		case '%':
			clauses = append(clauses, parsedClause{kind: '%', value: body})
		case '+':
			clauses = append(clauses, parsedClause{kind: '+', value: body})
		case '~':
			clauses = append(clauses, parsedClause{kind: '~', value: body})
		default:
			return "", nil, fmt.Errorf("concretize: unexpected character %q in spec literal %q", string(introducer), token)
		}
		i = j
	}

	// variant=value and arch=platform-os-target both use '=' but are not
	// introducer characters (an identifier may itself contain '='-free
	// text before an '='); handle them as a second pass over bare-name
	// segments the introducer scan above treated as part of a +/~ body or
	// the leading name.
	return splitEquals(name, clauses)
}

func isClauseIntroducer(b byte) bool {
	return b == '@' || b == '%' || b == '+' || b == '~'
}

// splitEquals re-scans name and every '+'-bodied clause for an embedded
// "key=value" form (variant=value, or arch=platform-os-target), since '='
// is not one of the single-character introducers the first pass
// recognizes. A bare name containing '=' is rejected as malformed; a
// '+'-bodied clause containing '=' is reclassified.
func splitEquals(name string, clauses []parsedClause) (string, []parsedClause, error) {
	if idx := strings.IndexByte(name, '='); idx >= 0 {
		return "", nil, fmt.Errorf("concretize: unexpected '=' in package name %q", name)
	}

	out := make([]parsedClause, 0, len(clauses))
	for _, cl := range clauses {
		if cl.kind == '+' {
			if idx := strings.IndexByte(cl.value, '='); idx >= 0 {
				key, val := cl.value[:idx], cl.value[idx+1:]
				if key == "arch" {
					out = append(out, parsedClause{kind: 'a', value: val})
				} else {
					out = append(out, parsedClause{kind: '=', value: key + "=" + val})
				}
				continue
			}
		}
		out = append(out, cl)
	}
	return name, out, nil
}

// applyClause folds one parsed clause into s.
func applyClause(s *Spec, cl parsedClause) error {
	switch cl.kind {
	case '@':
		r, err := NewVersionRange(cl.value)
		if err != nil {
			return err
		}
		s.VersionRange = r
		if !isVersionRangeSyntax(cl.value) {
			s.Version = NewVersion(cl.value)
		}
		return nil

	case '%':
		name, version := cl.value, ""
		if idx := strings.IndexByte(cl.value, '@'); idx >= 0 {
			name, version = cl.value[:idx], cl.value[idx+1:]
		}
		r, err := NewVersionRange(version)
		if err != nil {
			return err
		}
		s.Compiler = CompilerConstraint{Name: name, VersionRange: r, Hard: true}
		return nil

	case '+', '~':
		return setVariantToggle(s, cl.value, cl.kind == '+')

	case '=':
		idx := strings.IndexByte(cl.value, '=')
		if idx < 0 {
			return fmt.Errorf("malformed variant assignment %q", cl.value)
		}
		key, val := cl.value[:idx], cl.value[idx+1:]
		return setVariantValue(s, key, val)

	case 'a':
		parts := strings.SplitN(cl.value, "-", 3)
		switch len(parts) {
		case 3:
			if parts[0] != "" {
				s.Arch.Platform = parts[0]
			}
			if parts[1] != "" {
				s.Arch.OS = parts[1]
			}
			if parts[2] != "" {
				s.Arch.Target = parts[2]
			}
		case 2:
			s.Arch.OS = parts[0]
			s.Arch.Target = parts[1]
		default:
			s.Arch.Target = cl.value
		}
		return nil
	}
	return fmt.Errorf("unrecognized clause kind %q", string(cl.kind))
}

// isVersionRangeSyntax reports whether raw uses range syntax (">=1.2",
// "1.*") rather than pinning a single exact version ("1.2.3"); used by
// the '@' clause to decide whether to also set an exact Version alongside
// the range. A colon range such as "1.2:1.4" is not recognized and is
// read as an exact version.
func isVersionRangeSyntax(raw string) bool {
	for _, ch := range raw {
		switch ch {
		case '>', '<', '~', '^', ',', '*':
			return true
		}
	}
	return false
}

func setVariantToggle(s *Spec, name string, on bool) error {
	value := "false"
	if on {
		value = "true"
	}
	s.Variants[name] = VariantAssignment{Name: name, Values: []string{value}}
	return nil
}

func setVariantValue(s *Spec, name, value string) error {
	values := strings.Split(value, ",")
	s.Variants[name] = VariantAssignment{Name: name, Values: values}
	return nil
}
