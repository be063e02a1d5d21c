package nodeid

import "strconv"

// NoIndex marks a segment without an instance index.
const NoIndex = -1

// Segment is one step of an address: a name and, for node instances, the
// instance index.
type Segment struct {
	Name  string
	Index int
}

// Named returns a segment without an index, e.g. a capability name.
func Named(name string) Segment {
	return Segment{Name: name, Index: NoIndex}
}

// Indexed returns a segment for instance index of name.
func Indexed(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// HasIndex reports whether the segment carries an instance index.
func (s Segment) HasIndex() bool {
	return s.Index != NoIndex
}

func (s Segment) String() string {
	if !s.HasIndex() {
		return s.Name
	}
	return s.Name + "[" + strconv.Itoa(s.Index) + "]"
}

// Address identifies a plan node, `web[0]`, or an endpoint inside one,
// `web[0].host`.
type Address struct {
	Path []Segment
}

// Node returns the address of one instance of a node template.
func Node(template string, index int) Address {
	return Address{Path: []Segment{Indexed(template, index)}}
}
