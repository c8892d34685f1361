// Package version parses and compares boot UI and application version strings.
package version

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion is returned when a version string cannot be parsed.
var ErrInvalidVersion = errors.New("version: invalid version string")

// Build is the application's own version. It is overridden at link time with
//
//	-ldflags "-X github.com/phrazzld/bootui/internal/version.Build=9.3.0"
var Build = "9.3.0"

// noRevision marks a release build.
const noRevision = -1

// snapshotSuffix matches the revision (and optional commit) that snapshot
// builds append to the release number, e.g. "-r123" or ".r123.gdeadbeef".
var snapshotSuffix = regexp.MustCompile(`^(.+?)[-.]r(\d+)(?:[-.]g[0-9a-fA-F]+)?$`)

// Version is a parsed boot UI or application version.
type Version struct {
	raw      string
	parsed   *semver.Version
	revision int
}

// Parse parses versions of the form "9.3.0", "v9.3.0" or "9.3.0-r123".
// A revision orders snapshot builds numerically; a snapshot is newer than
// the release it builds on.
func Parse(raw string) (*Version, error) {
	base, revision := raw, noRevision
	if m := snapshotSuffix.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, raw, err)
		}
		base, revision = m[1], n
	}

	v, err := semver.NewVersion(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, raw, err)
	}
	return &Version{raw: raw, parsed: v, revision: revision}, nil
}

// MustParse is like Parse but panics on invalid input. It is meant for
// versions baked into the binary, where a parse failure is a build defect.
func MustParse(raw string) *Version {
	v, err := Parse(raw)
	if err != nil {
		panic(fmt.Sprintf("app has invalid version number: %s", raw))
	}
	return v
}

// Current returns the parsed build version, panicking if Build is malformed.
func Current() *Version {
	return MustParse(Build)
}

// Compare returns -1, 0 or 1 if v is older than, equal to or newer than other.
func (v *Version) Compare(other *Version) int {
	if c := v.parsed.Compare(other.parsed); c != 0 {
		return c
	}
	return cmp.Compare(v.revision, other.revision)
}

// Less reports whether v is older than other.
func (v *Version) Less(other *Version) bool {
	return v.Compare(other) < 0
}

// String returns the canonical form of the version, or "" for nil.
func (v *Version) String() string {
	if v == nil {
		return ""
	}
	if v.revision == noRevision {
		return v.parsed.String()
	}
	return fmt.Sprintf("%s-r%d", v.parsed.String(), v.revision)
}

// Original returns the string the version was parsed from.
func (v *Version) Original() string {
	return v.raw
}

// MarshalText implements encoding.TextMarshaler.
func (v *Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}
