package concretize

import (
	"github.com/Masterminds/semver"
)

// VersionRange is a constraint on admissible Versions, backed by
// Masterminds/semver's range intersection for the numeric case. It
// is a concrete type rather than an interface since this domain never
// needs a "none"/"any" constraint zoo; an empty VersionRange already
// behaves as "matches anything".
type VersionRange struct {
	raw string
	c   *semver.Constraints
}

// AnyVersion is the unconstrained range: it matches every Version.
func AnyVersion() VersionRange { return VersionRange{} }

// NewVersionRange parses a semver range expression (">=1.2,<2.0" style).
// A raw string that semver cannot parse as a range is kept verbatim and
// only matches a Version with identical raw text, the same fallback
// Version.Compare uses for non-numeric versions, so a non-numeric version
// range constrains non-numeric versions by exact match.
func NewVersionRange(raw string) (VersionRange, error) {
	if raw == "" {
		return AnyVersion(), nil
	}
	c, err := semver.NewConstraint(raw)
	if err != nil {
		return VersionRange{raw: raw}, nil
	}
	return VersionRange{raw: raw, c: c}, nil
}

// String renders the range's original text, or "*" when unconstrained.
func (r VersionRange) String() string {
	if r.raw == "" {
		return "*"
	}
	return r.raw
}

// Matches reports whether v satisfies the range.
func (r VersionRange) Matches(v Version) bool {
	if r.raw == "" {
		return true
	}
	if r.c != nil && v.kind == versionSemver {
		return r.c.Check(v.sv)
	}
	// non-semver range or non-semver version: exact textual match is the
	// only well-defined semantics available.
	return r.raw == v.raw
}

// IsExact reports whether r matches exactly one declared version among
// candidates, returning that version when true. Setup uses this to
// restrict a version_satisfies iff to a single alternative instead of a
// one-of over every matching declared version.
func (r VersionRange) IsExact(candidates []Version) (Version, bool) {
	var matched []Version
	for _, c := range candidates {
		if r.Matches(c) {
			matched = append(matched, c)
		}
	}
	if len(matched) == 1 {
		return matched[0], true
	}
	return Version{}, false
}

// Overlaps reports whether r and o can admit a common version. General
// range intersection is undecidable over the mixed semver/lexical version
// space this domain carries, so this is the useful approximation: either
// range's raw text, read as a single version, satisfying the other counts
// as overlap, and an unconstrained range overlaps everything. Setup uses
// this to discard virtual providers whose provides range cannot meet a
// requested virtual version.
func (r VersionRange) Overlaps(o VersionRange) bool {
	if r.raw == "" || o.raw == "" {
		return true
	}
	return r.Matches(NewVersion(o.raw)) || o.Matches(NewVersion(r.raw))
}

// MatchesAll reports whether every candidate satisfies r. Setup uses this
// to skip emitting a version_satisfies iff entirely when a range imposes
// no actual constraint over the declared versions.
func (r VersionRange) MatchesAll(candidates []Version) bool {
	for _, c := range candidates {
		if !r.Matches(c) {
			return false
		}
	}
	return true
}
