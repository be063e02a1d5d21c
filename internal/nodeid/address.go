package nodeid

import (
	"cmp"
	"slices"
	"strings"
)

// String returns the canonical form read back by Parse. A nil address is
// the empty string.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	parts := make([]string, len(a.Path))
	for i, s := range a.Path {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Equal reports whether both addresses have the same path. Two nil
// addresses are equal.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return slices.Equal(a.Path, other.Path)
}

// Compare orders addresses segment by segment: names lexicographically,
// then indices numerically. A prefix sorts first.
func Compare(a, b Address) int {
	for i := range min(len(a.Path), len(b.Path)) {
		sa, sb := a.Path[i], b.Path[i]
		if c := cmp.Compare(sa.Name, sb.Name); c != 0 {
			return c
		}
		if c := cmp.Compare(sa.Index, sb.Index); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.Path), len(b.Path))
}

// Child returns the address of a named endpoint below a.
func (a Address) Child(name string) Address {
	path := make([]Segment, len(a.Path), len(a.Path)+1)
	copy(path, a.Path)
	return Address{Path: append(path, Named(name))}
}

// Base returns the name of the first segment, the node template of a plan
// node address.
func (a Address) Base() string {
	if len(a.Path) == 0 {
		return ""
	}
	return a.Path[0].Name
}
