package nodeid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is wrapped by every Parse error.
var ErrInvalid = errors.New("invalid address")

// Parse reads the canonical form written by Address.String. Segment names
// may hold any character except dots, brackets and whitespace.
func Parse(s string) (*Address, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalid)
	}
	parts := strings.Split(s, ".")
	addr := &Address{Path: make([]Segment, 0, len(parts))}
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %s", ErrInvalid, s, err)
		}
		addr.Path = append(addr.Path, seg)
	}
	return addr, nil
}

func parseSegment(s string) (Segment, error) {
	name, rest, indexed := strings.Cut(s, "[")
	if name == "" {
		return Segment{}, errors.New("empty segment name")
	}
	if strings.ContainsAny(name, "]") || strings.ContainsFunc(name, isSpace) {
		return Segment{}, fmt.Errorf("segment name %q contains a bracket or whitespace", name)
	}
	if !indexed {
		return Named(name), nil
	}

	digits, closed := strings.CutSuffix(rest, "]")
	if !closed || digits == "" || strings.ContainsFunc(digits, notDigit) {
		return Segment{}, fmt.Errorf("segment %q: index must be digits in brackets", s)
	}
	index, err := strconv.Atoi(digits)
	if err != nil {
		return Segment{}, fmt.Errorf("segment %q: %w", s, err)
	}
	return Indexed(name, index), nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func notDigit(r rune) bool {
	return r < '0' || r > '9'
}
