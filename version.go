package concretize

import (
	"github.com/Masterminds/semver"
)

// versionKind classifies a Version for ordering purposes:
// develop > anything numeric > non-numeric, lexicographic within a kind.
type versionKind uint8

const (
	versionDevelop versionKind = iota
	versionSemver
	versionLexical
)

// Version is a single package version. It wraps a semver.Version for the
// common numeric case but also represents the two special forms this
// domain needs that semver has no notion of: the "develop" sentinel
// version (always newest, but deliberately excluded from the default
// pick; see Setup's version ranking) and arbitrary non-numeric
// version strings that fall back to lexicographic order.
type Version struct {
	raw  string
	kind versionKind
	sv   *semver.Version
}

// Develop is the always-newest, never-default-picked development version.
const Develop = "develop"

// NewVersion parses a version string into its ordering-relevant kind. It
// never errors: any string that semver cannot parse becomes a lexical
// version rather than failing, since package version strings in this
// domain are frequently non-semver (date stamps, single integers, vendor
// tags).
func NewVersion(raw string) Version {
	if raw == Develop {
		return Version{raw: raw, kind: versionDevelop}
	}
	if sv, err := semver.NewVersion(raw); err == nil {
		return Version{raw: raw, kind: versionSemver, sv: sv}
	}
	return Version{raw: raw, kind: versionLexical}
}

// String returns the original version text.
func (v Version) String() string { return v.raw }

// IsZero reports whether v is the zero Version (no version parsed).
func (v Version) IsZero() bool { return v.raw == "" && v.kind == versionDevelop }

// IsDevelop reports whether v is the develop sentinel.
func (v Version) IsDevelop() bool { return v.kind == versionDevelop }

// Compare orders versions: develop sorts highest, then numeric (semver)
// versions by semver order, then non-numeric
// versions lexicographically; a develop/semver/lexical comparison falls
// back to kind order.
func (v Version) Compare(o Version) int {
	if v.kind != o.kind {
		return int(o.kind) - int(v.kind) // lower kind value ranks higher
	}
	switch v.kind {
	case versionDevelop:
		return 0
	case versionSemver:
		return v.sv.Compare(o.sv)
	default:
		switch {
		case v.raw < o.raw:
			return -1
		case v.raw > o.raw:
			return 1
		default:
			return 0
		}
	}
}

// Less reports whether v sorts before o in the domain's version order
// (lower precedence, i.e. "older" or "less preferred" under raw order).
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports exact version equality (same raw text).
func (v Version) Equal(o Version) bool { return v.raw == o.raw }
