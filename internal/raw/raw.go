// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package raw holds the format-agnostic tree produced by a reader: ordered
// maps, sequences and scalars, each tagged with the position it was read
// from. The tree doubles as the position map; merging two trees merges their
// positions with the same child-wins rule.
package raw

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/specialistvlad/toscago/internal/issue"
)

// Kind is the structural shape of a Node.
type Kind uint8

const (
	Null Kind = iota
	Scalar
	Map
	List
)

// String returns the name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Scalar:
		return "scalar"
	case Map:
		return "map"
	case List:
		return "list"
	}
	return "unknown"
}

// Node is one value in the raw tree.
//
// Scalars keep both the decoded Value (string, int64, float64 or bool) and the
// source Text, because some consumers (versions, for one) need the spelling
// rather than the decoded number.
type Node struct {
	Kind  Kind
	Value any
	Text  string
	Pos   issue.Position

	keys   []string
	fields map[string]*Node
	items  []*Node
}

// NewMap returns an empty map node.
func NewMap(pos issue.Position) *Node {
	return &Node{Kind: Map, Pos: pos, fields: make(map[string]*Node)}
}

// NewList returns an empty list node.
func NewList(pos issue.Position) *Node {
	return &Node{Kind: List, Pos: pos}
}

// NewScalar returns a scalar node. A nil value yields a Null node.
func NewScalar(value any, pos issue.Position) *Node {
	if value == nil {
		return &Node{Kind: Null, Pos: pos, Text: "null"}
	}
	return &Node{Kind: Scalar, Value: value, Text: scalarText(value), Pos: pos}
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

// IsMap reports whether n is a non-nil map node.
func (n *Node) IsMap() bool { return n != nil && n.Kind == Map }

// IsList reports whether n is a non-nil list node.
func (n *Node) IsList() bool { return n != nil && n.Kind == List }

// IsScalar reports whether n is a non-nil scalar node.
func (n *Node) IsScalar() bool { return n != nil && n.Kind == Scalar }

// IsNull reports whether n is absent or an explicit null.
func (n *Node) IsNull() bool { return n == nil || n.Kind == Null }

// Position returns a pointer to the node position, or nil for a nil node.
func (n *Node) Position() *issue.Position {
	if n == nil {
		return nil
	}
	pos := n.Pos
	return &pos
}

// Keys returns the map keys in source order.
func (n *Node) Keys() []string {
	if !n.IsMap() {
		return nil
	}
	return n.keys
}

// Get returns the child of a map node, or nil.
func (n *Node) Get(key string) *Node {
	if !n.IsMap() {
		return nil
	}
	return n.fields[key]
}

// Has reports whether a map node has the key.
func (n *Node) Has(key string) bool {
	if !n.IsMap() {
		return false
	}
	_, ok := n.fields[key]
	return ok
}

// Set adds or replaces a map entry. New keys are appended to the order.
func (n *Node) Set(key string, child *Node) {
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = child
}

// Items returns the elements of a list node.
func (n *Node) Items() []*Node {
	if !n.IsList() {
		return nil
	}
	return n.items
}

// Append adds an element to a list node.
func (n *Node) Append(child *Node) {
	n.items = append(n.items, child)
}

// Len returns the number of entries of a map or list node.
func (n *Node) Len() int {
	switch {
	case n.IsMap():
		return len(n.keys)
	case n.IsList():
		return len(n.items)
	}
	return 0
}

// String returns the scalar text, or the shape name for composite nodes.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Kind == Scalar || n.Kind == Null {
		return n.Text
	}
	return n.Kind.String()
}

// Merge folds src into dst level by level. Keys already present in dst keep
// their value and position, recursing when both sides are maps; keys only
// present in src are appended in src order as copies, so src is never
// changed by later merges into dst. Lists and scalars are never combined:
// dst wins.
func Merge(dst, src *Node) {
	if !dst.IsMap() || !src.IsMap() {
		return
	}
	for _, key := range src.keys {
		child := src.fields[key]
		if existing, ok := dst.fields[key]; ok {
			Merge(existing, child)
			continue
		}
		dst.Set(key, child.Clone())
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Value: n.Value, Text: n.Text, Pos: n.Pos}
	if n.fields != nil {
		out.keys = slices.Clone(n.keys)
		out.fields = make(map[string]*Node, len(n.fields))
		for k, v := range n.fields {
			out.fields[k] = v.Clone()
		}
	}
	if n.items != nil {
		out.items = make([]*Node, len(n.items))
		for i, item := range n.items {
			out.items[i] = item.Clone()
		}
	}
	return out
}

// Plain converts the tree into plain Go values: map[string]any, []any and
// scalars. Map ordering is lost.
func (n *Node) Plain() any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case Map:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.fields[k].Plain()
		}
		return out
	case List:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = item.Plain()
		}
		return out
	case Scalar:
		return n.Value
	}
	return nil
}

// FromPlain builds a tree from plain Go values, the inverse of Plain. Map
// keys are sorted since Go maps carry no order. Every node receives pos.
func FromPlain(v any, pos issue.Position) *Node {
	switch t := v.(type) {
	case nil:
		return NewScalar(nil, pos)
	case *Node:
		return t
	case map[string]any:
		n := NewMap(pos)
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n.Set(k, FromPlain(t[k], pos))
		}
		return n
	case []any:
		n := NewList(pos)
		for _, item := range t {
			n.Append(FromPlain(item, pos))
		}
		return n
	case int:
		return NewScalar(int64(t), pos)
	case int32:
		return NewScalar(int64(t), pos)
	case float32:
		return NewScalar(float64(t), pos)
	}
	return NewScalar(v, pos)
}
