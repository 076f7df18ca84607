package migration

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a semantic version of the form major.minor.patch[-pre][+build].
// Precedence follows semver 2.0: build metadata is ignored when comparing.
//
// The zero Version is invalid and sorts before every valid version.
type Version struct {
	raw string
}

// ParseVersion parses s, with or without a leading "v".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if !semver.IsValid("v" + s) {
		return Version{}, fmt.Errorf("%w: %q is not a semantic version", ErrInvalidVersion, s)
	}

	// semver accepts the shorthands "v1" and "v1.2"; a migration version must be complete
	core, _, _ := strings.Cut(s, "+")
	core, _, _ = strings.Cut(core, "-")
	if strings.Count(core, ".") != 2 {
		return Version{}, fmt.Errorf("%w: %q must have major, minor and patch", ErrInvalidVersion, s)
	}
	return Version{raw: s}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
// Intended for literals in code and tests.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version without a leading "v".
func (v Version) String() string { return v.raw }

// Key identifies v in the migration history: the version without build
// metadata, so versions of equal precedence share one record.
func (v Version) Key() string {
	if v.raw == "" {
		return ""
	}
	return strings.TrimPrefix(semver.Canonical(v.semver()), "v")
}

// IsZero reports whether v was never set.
func (v Version) IsZero() bool { return v.raw == "" }

// Compare returns -1, 0 or +1 by semver precedence.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.semver(), other.semver())
}

// Less reports whether v precedes other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

// Equal reports whether v and other have the same precedence.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// Prerelease returns the pre-release suffix including the "-", or "".
func (v Version) Prerelease() string { return semver.Prerelease(v.semver()) }

func (v Version) semver() string {
	if v.raw == "" {
		return ""
	}
	return "v" + v.raw
}

// MarshalText encodes the version as its string form.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.raw), nil
}

// UnmarshalText parses a version; it backs both JSON and YAML decoding.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
