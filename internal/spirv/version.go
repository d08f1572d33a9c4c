package spirv

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is the SPIR-V version from the module header.
type Version struct {
	Major uint8
	Minor uint8
}

// Common versions.
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_4 = Version{1, 4}
	Version1_5 = Version{1, 5}
	Version1_6 = Version{1, 6}
)

// VersionFromWord decodes the header version word 0x00MMmm00.
func VersionFromWord(w uint32) Version {
	return Version{Major: uint8(w >> 16), Minor: uint8(w >> 8)}
}

// Word encodes v as a header version word.
func (v Version) Word() uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)<<8
}

// AtLeast reports whether v is major.minor or newer.
func (v Version) AtLeast(major, minor uint8) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// RequiresInterfaceListing reports whether entry points must list every
// global they reference, not only Input and Output variables. This holds
// from SPIR-V 1.4 on.
func (v Version) RequiresInterfaceListing() bool {
	return v.AtLeast(1, 4)
}

// Semver returns v as a semantic version with a zero patch level.
func (v Version) Semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), 0, "", "")
}

// Satisfies checks v against a constraint such as ">= 1.3, < 1.7".
func (v Version) Satisfies(c *semver.Constraints) bool {
	if c == nil {
		return true
	}
	return c.Check(v.Semver())
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ParseVersion parses "1.4" style strings.
func ParseVersion(s string) (Version, error) {
	sv, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid SPIR-V version %q: %w", s, err)
	}
	if sv.Major() > 255 || sv.Minor() > 255 || sv.Patch() != 0 {
		return Version{}, fmt.Errorf("invalid SPIR-V version %q: out of range", s)
	}
	return Version{Major: uint8(sv.Major()), Minor: uint8(sv.Minor())}, nil
}
