// Package version normalizes free-form Moodle version tokens into comparable values.
//
// Ordering follows the rule the vulnerability corpus was encoded with: every dotted
// component is zero-padded to two digits and the concatenation is compared as an
// integer. Components of 100 or more overflow their slot and can therefore sort
// incorrectly against versions with a different major component. This bound is kept
// on purpose because the stored intervals already assume it.
package version

import (
	"fmt"
	"strconv"
	"strings"

	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
)

const (
	// ComponentWidth is the fixed number of digits each component is padded to.
	ComponentWidth = 2
	// MinComponents is the number of components every version is padded to before comparison.
	MinComponents = 3

	// Wildcard is the placeholder used by advisories for "any value" in a component.
	Wildcard = "x"
	// WildcardLow replaces a wildcard on the lower bound of an interval.
	WildcardLow = "0"
	// WildcardHigh replaces a wildcard on the upper bound of an interval.
	WildcardHigh = "99"

	// Zero is the lowest representable version.
	Zero = "0.0.0"
	// LatestKnown is the newest release line the corpus is aware of. It bounds the
	// "all versions" intervals and must be bumped when the corpus schema moves on.
	LatestKnown = "5.1.99"
)

// Version is an ordered tuple of non-negative integer components.
type Version struct {
	parts []int
}

// Normalize parses raw into a Version. A leading "v" and any build suffix introduced
// by '-', '+' or whitespace are ignored. Wildcards must be substituted by the caller.
func Normalize(raw string) (Version, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")
	if i := strings.IndexAny(s, "-+ \t"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return Version{}, fmt.Errorf("%w: %q is empty", sharedErrors.ErrMalformedVersion, raw)
	}

	fields := strings.Split(s, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("%w: %q has non-numeric component %q", sharedErrors.ErrMalformedVersion, raw, f)
		}
		parts = append(parts, n)
	}
	return Version{parts: parts}, nil
}

// MustNormalize is like Normalize but panics on malformed input. Intended for constants.
func MustNormalize(raw string) Version {
	v, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// SubstituteWildcard replaces every wildcard component of raw with digit.
func SubstituteWildcard(raw, digit string) string {
	return strings.ReplaceAll(raw, Wildcard, digit)
}

// Parts returns a copy of the version components.
func (v Version) Parts() []int {
	return append([]int(nil), v.parts...)
}

// IsZero reports whether v holds no components.
func (v Version) IsZero() bool {
	return len(v.parts) == 0
}

// String returns the canonical dotted form. Normalize(v.String()) yields v again.
func (v Version) String() string {
	fields := make([]string, len(v.parts))
	for i, p := range v.parts {
		fields[i] = strconv.Itoa(p)
	}
	return strings.Join(fields, ".")
}

// key renders v as the padded concatenation used for ordering.
func (v Version) key(width int) string {
	var b strings.Builder
	for i := 0; i < width; i++ {
		p := 0
		if i < len(v.parts) {
			p = v.parts[i]
		}
		fmt.Fprintf(&b, "%0*d", ComponentWidth, p)
	}
	return b.String()
}

// Compare returns -1, 0 or +1 when a sorts before, equal to or after b.
func Compare(a, b Version) int {
	width := max(len(a.parts), len(b.parts), MinComponents)
	ka := strings.TrimLeft(a.key(width), "0")
	kb := strings.TrimLeft(b.key(width), "0")

	// integer comparison of the concatenations without overflow
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	return 0
}

// Equal reports whether a and b have the same position in the ordering.
func Equal(a, b Version) bool {
	return Compare(a, b) == 0
}
