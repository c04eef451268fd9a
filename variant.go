package concretize

// Special variant names the Spec builder and Setup case-special, named as
// constants rather than bare strings scattered through the codebase.
const (
	VariantDevPath = "dev_path"
	VariantPatches = "patches"
)

// VariantSchema describes one variant a package declares: its name,
// whether it is single-valued, its default value(s), and its domain of
// allowed values (nil Allowed means an open-ended domain validated by
// Accept instead of enumerated).
type VariantSchema struct {
	Name         string
	SingleValue  bool
	Default      []string
	Allowed      []string
	// Accept validates a value against an open-ended domain (Allowed ==
	// nil). A nil Accept with nil Allowed means any value is accepted.
	Accept func(value string) bool
}

// isOpen reports whether the variant's value domain is open-ended.
func (s VariantSchema) isOpen() bool { return s.Allowed == nil }

// validates reports whether value is acceptable for this variant: present
// in Allowed when the domain is closed, or accepted by Accept (or
// unconditionally true) when open.
func (s VariantSchema) validates(value string) bool {
	if !s.isOpen() {
		for _, a := range s.Allowed {
			if a == value {
				return true
			}
		}
		return false
	}
	if s.Accept != nil {
		return s.Accept(value)
	}
	return true
}

// VariantAssignment is a concrete value (or, for multi-valued variants, an
// ordered set of values) assigned to one of a spec's variants.
type VariantAssignment struct {
	Name   string
	Values []string // len == 1 for single-valued variants
}

// HasValue reports whether v is among the assignment's values.
func (a VariantAssignment) HasValue(v string) bool {
	for _, existing := range a.Values {
		if existing == v {
			return true
		}
	}
	return false
}
