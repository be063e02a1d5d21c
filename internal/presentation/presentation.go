// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package presentation provides typed, schema-driven views over raw document
// subtrees.
//
// A Presentation pairs a raw node with a Schema. Fields are read on demand
// through Read, which expands short forms, casts primitives, builds nested
// presentations and caches the result in the Cycle. Problems found while
// reading are reported to the cycle as PresentationError issues and a
// best-effort value is returned; reading never fails.
package presentation

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/raw"
)

// Presentation is a typed view over a raw subtree.
type Presentation struct {
	Name   string
	Raw    *raw.Node
	Schema *Schema

	container *Presentation
}

// New wraps a raw node. container is nil for a document root.
func New(name string, node *raw.Node, schema *Schema, container *Presentation) *Presentation {
	return &Presentation{Name: name, Raw: node, Schema: schema, container: container}
}

// Container returns the presentation this one was read from.
func (p *Presentation) Container() *Presentation {
	if p == nil {
		return nil
	}
	return p.container
}

// Root follows container references up to the document root.
func (p *Presentation) Root() *Presentation {
	for p != nil && p.container != nil {
		p = p.container
	}
	return p
}

// Pos returns the position of the presentation's raw node.
func (p *Presentation) Pos() *issue.Position {
	if p == nil {
		return nil
	}
	return p.Raw.Position()
}

// FieldPos returns the position of a field's raw value, falling back to the
// presentation itself.
func (p *Presentation) FieldPos(name string) *issue.Position {
	if node := p.FieldRaw(name); node != nil {
		return node.Position()
	}
	return p.Pos()
}

// Describe names the presentation for diagnostics, e.g. `node template "web"`.
func (p *Presentation) Describe() string {
	if p.Name == "" {
		return p.Schema.Name
	}
	return fmt.Sprintf("%s %q", p.Schema.Name, p.Name)
}

// Has reports whether the field carries a non-null raw value.
func (p *Presentation) Has(name string) bool {
	return p != nil && !p.FieldRaw(name).IsNull()
}

// FieldRaw returns the raw value of a field, honouring the short form: when
// the raw node is not a map, it is the value of the short-form field and
// every other field is absent.
func (p *Presentation) FieldRaw(name string) *raw.Node {
	if p == nil || p.Raw == nil {
		return nil
	}
	if p.Raw.IsMap() {
		return p.Raw.Get(name)
	}
	if name == p.Schema.ShortForm && !p.Raw.IsNull() {
		return p.Raw
	}
	return nil
}

// Read returns the value of a field, computing it once per cycle.
//
// The dynamic type of the result depends on the field:
//
//	Primitive           string, int64, float64, bool, *semver.Version or *raw.Node
//	PrimitiveList       []any
//	PrimitiveDict       *Dict[any]
//	Object              *Presentation
//	ObjectList          []*Presentation
//	ObjectSequencedList []*Presentation
//	ObjectDict          *Dict[*Presentation]
func (p *Presentation) Read(c *Cycle, name string) any {
	f := p.Schema.Field(name)
	if f == nil {
		panic(fmt.Sprintf("presentation: %s has no field %q", p.Schema.Name, name))
	}
	if v, ok := c.lookup(p, name); ok {
		return v
	}
	return c.store(p, name, p.read(c, f))
}

func (p *Presentation) read(c *Cycle, f *Field) any {
	node := p.FieldRaw(f.Name)

	switch f.Kind {
	case Primitive:
		if node.IsNull() {
			return f.Default
		}
		return p.cast(c, f, node)

	case PrimitiveList:
		if node.IsNull() {
			return []any(nil)
		}
		if !node.IsList() {
			p.mismatch(c, f, node, "a list")
			return []any(nil)
		}
		out := make([]any, 0, node.Len())
		for _, item := range node.Items() {
			out = append(out, p.cast(c, f, item))
		}
		return out

	case PrimitiveDict:
		out := NewDict[any]()
		if node.IsNull() {
			return out
		}
		if !node.IsMap() {
			p.mismatch(c, f, node, "a map")
			return out
		}
		for _, k := range node.Keys() {
			out.Set(k, p.cast(c, f, node.Get(k)))
		}
		return out

	case Object:
		if node.IsNull() {
			return (*Presentation)(nil)
		}
		return p.child(c, f, f.Schema(), f.Name, node)

	case ObjectList:
		return p.readList(c, f, node)

	case ObjectSequencedList:
		return p.readSequencedList(c, f, node)

	case ObjectDict:
		out := NewDict[*Presentation]()
		if node.IsNull() {
			return out
		}
		if !node.IsMap() {
			p.mismatch(c, f, node, "a map")
			return out
		}
		schema := f.Schema()
		for _, k := range node.Keys() {
			if child := p.child(c, f, schema, k, node.Get(k)); child != nil {
				out.Set(k, child)
			}
		}
		return out
	}
	panic(fmt.Sprintf("presentation: unknown field kind %d", f.Kind))
}

func (p *Presentation) readList(c *Cycle, f *Field, node *raw.Node) []*Presentation {
	if node.IsNull() {
		return nil
	}
	if !node.IsList() {
		p.mismatch(c, f, node, "a list")
		return nil
	}
	schema := f.Schema()
	out := make([]*Presentation, 0, node.Len())
	for _, item := range node.Items() {
		name, body := "", item
		if schema.NamedEntries && item.IsMap() && item.Len() == 1 {
			if key := item.Keys()[0]; schema.Field(key) == nil {
				name, body = key, item.Get(key)
			}
		}
		if child := p.child(c, f, schema, name, body); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func (p *Presentation) readSequencedList(c *Cycle, f *Field, node *raw.Node) []*Presentation {
	if node.IsNull() {
		return nil
	}
	if !node.IsList() {
		p.mismatch(c, f, node, "a list of single-key maps")
		return nil
	}
	schema := f.Schema()
	out := make([]*Presentation, 0, node.Len())
	for _, item := range node.Items() {
		if !item.IsMap() || item.Len() != 1 {
			p.mismatch(c, f, item, "a single-key map")
			continue
		}
		key := item.Keys()[0]
		if child := p.child(c, f, schema, key, item.Get(key)); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// child builds a nested presentation. A null body reads as an empty map, so
// `my.Type:` with nothing under it is a valid, empty definition.
func (p *Presentation) child(c *Cycle, f *Field, schema *Schema, name string, node *raw.Node) *Presentation {
	if node.IsNull() && !schema.AsIs {
		var pos issue.Position
		if node != nil {
			pos = node.Pos
		}
		node = raw.NewMap(pos)
	}
	if !schema.AsIs && !node.IsMap() && (schema.ShortForm == "" || !node.IsScalar()) {
		what := "a map"
		if schema.ShortForm != "" {
			what = "a map or a scalar"
		}
		c.Reportf(issue.Error, issue.PresentationError, node.Position(),
			"%s: %s %q must be %s, found %s", p.Describe(), schema.Name, name, what, node.Kind)
		return nil
	}
	return New(name, node, schema, p)
}

func (p *Presentation) cast(c *Cycle, f *Field, node *raw.Node) any {
	switch f.Type {
	case Any:
		return node

	case String:
		if !node.IsScalar() {
			p.mismatch(c, f, node, "a string")
			return ""
		}
		if len(f.Allowed) > 0 && !slices.Contains(f.Allowed, node.Text) {
			c.Reportf(issue.Error, issue.PresentationError, node.Position(),
				"%s: field %q is %q, expected one of %v", p.Describe(), f.Name, node.Text, f.Allowed)
		}
		return node.Text

	case Int:
		if v, ok := node.Value.(int64); ok {
			return v
		}
		if node.IsScalar() {
			// Quoted integers are common in hand-written templates.
			if v, err := strconv.ParseInt(node.Text, 10, 64); err == nil {
				return v
			}
		}
		p.mismatch(c, f, node, "an integer")
		return int64(0)

	case Float:
		switch v := node.Value.(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		}
		p.mismatch(c, f, node, "a number")
		return float64(0)

	case Bool:
		if v, ok := node.Value.(bool); ok {
			return v
		}
		p.mismatch(c, f, node, "a boolean")
		return false

	case Version:
		if !node.IsScalar() {
			p.mismatch(c, f, node, "a version")
			return (*semver.Version)(nil)
		}
		v, err := semver.NewVersion(node.Text)
		if err != nil {
			c.Report(issue.Issue{
				Severity: issue.Error,
				Kind:     issue.PresentationError,
				Message:  fmt.Sprintf("%s: field %q is not a valid version %q", p.Describe(), f.Name, node.Text),
				Cause:    err,
				Position: node.Position(),
			})
			return (*semver.Version)(nil)
		}
		return v
	}
	panic(fmt.Sprintf("presentation: unknown primitive type %d", f.Type))
}

func (p *Presentation) mismatch(c *Cycle, f *Field, node *raw.Node, want string) {
	found := node.Kind.String()
	if node.IsScalar() {
		found = fmt.Sprintf("%T %q", node.Value, node.Text)
	}
	c.Reportf(issue.Error, issue.PresentationError, node.Position(),
		"%s: field %q must be %s, found %s", p.Describe(), f.Name, want, found)
}

// Extensions returns the raw values of keys the schema does not declare.
func (p *Presentation) Extensions() *Dict[*raw.Node] {
	out := NewDict[*raw.Node]()
	if p == nil || !p.Raw.IsMap() {
		return out
	}
	for _, k := range p.Raw.Keys() {
		if p.Schema.Field(k) == nil {
			out.Set(k, p.Raw.Get(k))
		}
	}
	return out
}
