package saveload

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-svs/svs/pkg/svserr"
)

// Version is a semver-like (major, minor, patch) triple, grounded directly
// on the original implementation's Version (original_source/include/svs/lib/version.h):
// v0.0.x means experimental with no compatibility guarantees, v0.x.y means
// an actively changing API, and comparison is plain lexicographic ordering
// on (major, minor, patch).
type Version struct {
	Major, Minor, Patch int
}

// CurrentSaveVersion is the global serialization version this module
// writes, matching the original's CURRENT_SAVE_VERSION = Version(0,0,2).
var CurrentSaveVersion = Version{0, 0, 2}

// String formats a Version as "vMAJOR.MINOR.PATCH".
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v sorts strictly before o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// Equal reports component-wise equality.
func (v Version) Equal(o Version) bool { return v == o }

// ParseVersion parses "vMAJOR.MINOR.PATCH", matching the original's strict
// parser: the string must begin with 'v' and every segment must be a valid
// non-negative integer.
func ParseVersion(s string) (Version, error) {
	if !strings.HasPrefix(s, "v") {
		return Version{}, svserr.Serialization("version string %q must start with 'v'", s)
	}
	parts := strings.Split(s[1:], ".")
	if len(parts) != 3 {
		return Version{}, svserr.Serialization("version string %q must have 3 dot-separated segments", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, svserr.Serialization("version string %q has malformed segment %q", s, p)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}
