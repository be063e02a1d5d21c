// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package reader turns YAML bytes into a raw.Node tree with source positions.
//
// It uses the yaml.v3 node API rather than plain unmarshalling because the
// node API is the only one that keeps line and column information, and the
// positions are what make diagnostics from every later stage useful.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/raw"
	"gopkg.in/yaml.v3"
)

// Error is returned when a document is not well-formed YAML.
type Error struct {
	Location string
	Line     int
	Column   int
	Snippet  string
	Err      error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("read %q:%d:%d: %v", e.Location, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("read %q: %v", e.Location, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Position returns the error location as an issue position.
func (e *Error) Position() *issue.Position {
	return &issue.Position{Location: e.Location, Line: e.Line, Column: e.Column}
}

// ErrExpansion is wrapped by the error for a document whose aliases expand
// it beyond the node budget.
var ErrExpansion = errors.New("document expands to too many nodes")

// A document may always expand to minNodeBudget nodes, and to
// nodesPerSourceNode times its own node count when that is larger.
const (
	minNodeBudget      = 400_000
	nodesPerSourceNode = 10
)

var lineRe = regexp2.MustCompile(`line (\d+)`, regexp2.None)

// Read parses data as a single YAML document. An empty document reads as an
// empty map, so an empty import contributes nothing instead of failing.
func Read(location string, data []byte) (*raw.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newError(location, data, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return raw.NewMap(issue.Position{Location: location, Line: 1, Column: 1}), nil
	}
	n, err := FromYAML(&doc, location)
	if err != nil {
		return nil, newError(location, data, err)
	}
	return n, nil
}

// FromYAML converts an already decoded yaml.v3 node. Aliases are expanded
// into copies, bounded by a node budget derived from the size of node.
func FromYAML(node *yaml.Node, location string) (*raw.Node, error) {
	c := converter{
		location: location,
		visiting: make(map[*yaml.Node]bool),
		budget:   max(minNodeBudget, nodesPerSourceNode*countNodes(node)),
	}
	return c.convert(node, nil)
}

// countNodes counts the nodes of the tree as written, without following
// aliases.
func countNodes(n *yaml.Node) int {
	count := 1
	for _, child := range n.Content {
		count += countNodes(child)
	}
	return count
}

type converter struct {
	location string
	visiting map[*yaml.Node]bool
	budget   int
	nodes    int
}

func (c *converter) pos(n *yaml.Node) issue.Position {
	return issue.Position{Location: c.location, Line: n.Line, Column: n.Column}
}

// convert builds the raw node for n. at overrides the node position; map
// values are positioned at their key.
func (c *converter) convert(n *yaml.Node, at *issue.Position) (*raw.Node, error) {
	pos := c.pos(n)
	if at != nil {
		pos = *at
	}

	c.nodes++
	if c.nodes > c.budget {
		return nil, &Error{Location: c.location, Line: n.Line, Column: n.Column,
			Err: fmt.Errorf("%w: more than %d after alias expansion", ErrExpansion, c.budget)}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return raw.NewMap(pos), nil
		}
		return c.convert(n.Content[0], nil)

	case yaml.AliasNode:
		if c.visiting[n.Alias] {
			return nil, &Error{Location: c.location, Line: n.Line, Column: n.Column, Err: fmt.Errorf("recursive alias %q", n.Value)}
		}
		c.visiting[n.Alias] = true
		defer delete(c.visiting, n.Alias)
		return c.convert(n.Alias, &pos)

	case yaml.SequenceNode:
		out := raw.NewList(pos)
		for _, item := range n.Content {
			child, err := c.convert(item, nil)
			if err != nil {
				return nil, err
			}
			out.Append(child)
		}
		return out, nil

	case yaml.MappingNode:
		return c.mapping(n, pos)

	case yaml.ScalarNode:
		v, err := scalar(n)
		if err != nil {
			return nil, &Error{Location: c.location, Line: n.Line, Column: n.Column, Err: err}
		}
		s := raw.NewScalar(v, pos)
		s.Text = n.Value
		return s, nil
	}
	return nil, &Error{Location: c.location, Line: n.Line, Column: n.Column, Err: fmt.Errorf("unsupported yaml node kind %d", n.Kind)}
}

func (c *converter) mapping(n *yaml.Node, pos issue.Position) (*raw.Node, error) {
	out := raw.NewMap(pos)
	var merges []*raw.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		keyPos := c.pos(key)

		if key.Kind == yaml.ScalarNode && key.ShortTag() == "!!merge" {
			merged, err := c.convert(value, &keyPos)
			if err != nil {
				return nil, err
			}
			switch {
			case merged.IsMap():
				merges = append(merges, merged)
			case merged.IsList():
				merges = append(merges, merged.Items()...)
			}
			continue
		}
		if key.Kind != yaml.ScalarNode {
			return nil, &Error{Location: c.location, Line: key.Line, Column: key.Column, Err: fmt.Errorf("map keys must be scalars")}
		}
		if out.Has(key.Value) {
			return nil, &Error{Location: c.location, Line: key.Line, Column: key.Column, Err: fmt.Errorf("duplicate key %q", key.Value)}
		}

		at := &keyPos
		if value.Kind == yaml.ScalarNode {
			at = nil
		}
		child, err := c.convert(value, at)
		if err != nil {
			return nil, err
		}
		out.Set(key.Value, child)
	}
	// Explicit keys take precedence over merged ones.
	for _, m := range merges {
		raw.Merge(out, m)
	}
	return out, nil
}

func scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return i, nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	}
	// Strings, timestamps and binary data stay textual; typed coercion later
	// decides what they mean.
	return n.Value, nil
}

func newError(location string, data []byte, err error) *Error {
	var re *Error
	if errors.As(err, &re) {
		if re.Snippet == "" {
			re.Snippet = snippet(data, re.Line)
		}
		return re
	}
	e := &Error{Location: location, Err: err}
	if m, _ := lineRe.FindStringMatch(err.Error()); m != nil && len(m.Groups()) > 1 {
		if line, convErr := strconv.Atoi(m.Groups()[1].String()); convErr == nil {
			e.Line = line
			e.Column = 1
		}
	}
	e.Snippet = snippet(data, e.Line)
	return e
}

func snippet(data []byte, line int) string {
	if line <= 0 {
		return ""
	}
	lines := bytes.Split(data, []byte("\n"))
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(string(lines[line-1]), "\r")
}
