// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the field schema: the per-kind dispatch table that maps a
// field name to a descriptor saying how to read it.
//
// Schemas are plain data built once at package init time by the grammar
// packages. Reading a field never reflects over Go structs; it looks the name
// up in the table and follows the descriptor.
package presentation

import "fmt"

// FieldKind says how a field's raw value is shaped.
type FieldKind int

const (
	// Primitive is a single scalar cast to the field's PrimitiveType.
	Primitive FieldKind = iota
	// PrimitiveList is a list of scalars.
	PrimitiveList
	// PrimitiveDict is a map of scalars, in source order.
	PrimitiveDict
	// Object is a nested presentation.
	Object
	// ObjectList is a list of nested presentations.
	ObjectList
	// ObjectDict is a map of named nested presentations, in source order.
	ObjectDict
	// ObjectSequencedList is a list of single-key maps; each entry becomes a
	// presentation named after its key. Names may repeat.
	ObjectSequencedList
)

// PrimitiveType is the scalar type a primitive field is cast to.
type PrimitiveType int

const (
	// Any keeps the raw node as is.
	Any PrimitiveType = iota
	String
	Int
	Float
	Bool
	// Version is parsed as a loose semantic version.
	Version
)

func (t PrimitiveType) String() string {
	switch t {
	case Any:
		return "any"
	case String:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "float"
	case Bool:
		return "boolean"
	case Version:
		return "version"
	}
	return fmt.Sprintf("PrimitiveType(%d)", int(t))
}

// Check is a field validator run by Validate after a present value has been
// read. It reports its own issues through the cycle.
type Check func(c *Cycle, p *Presentation, f *Field, value any)

// Field describes one named field of a schema.
type Field struct {
	Name     string
	Kind     FieldKind
	Type     PrimitiveType
	Required bool
	Default  any
	// Allowed restricts a String primitive to an enumeration.
	Allowed []string
	Checks  []Check

	schema func() *Schema
}

// Schema returns the schema of nested presentations, or nil for primitives.
func (f *Field) Schema() *Schema {
	if f.schema == nil {
		return nil
	}
	return f.schema()
}

// Require marks the field as required.
func (f *Field) Require() *Field {
	f.Required = true
	return f
}

// WithDefault sets the value returned when the field is absent.
func (f *Field) WithDefault(v any) *Field {
	f.Default = v
	return f
}

// OneOf restricts a String field to the given values.
func (f *Field) OneOf(values ...string) *Field {
	f.Allowed = values
	return f
}

// WithCheck appends a validator.
func (f *Field) WithCheck(check Check) *Field {
	f.Checks = append(f.Checks, check)
	return f
}

// PrimitiveField declares a scalar field.
func PrimitiveField(name string, t PrimitiveType) *Field {
	return &Field{Name: name, Kind: Primitive, Type: t}
}

// ListField declares a list of scalars.
func ListField(name string, t PrimitiveType) *Field {
	return &Field{Name: name, Kind: PrimitiveList, Type: t}
}

// DictField declares a map of scalars.
func DictField(name string, t PrimitiveType) *Field {
	return &Field{Name: name, Kind: PrimitiveDict, Type: t}
}

// ObjectField declares a nested presentation. The schema is resolved lazily
// so that schemas can refer to each other.
func ObjectField(name string, schema func() *Schema) *Field {
	return &Field{Name: name, Kind: Object, schema: schema}
}

// ObjectListField declares a list of nested presentations.
func ObjectListField(name string, schema func() *Schema) *Field {
	return &Field{Name: name, Kind: ObjectList, schema: schema}
}

// ObjectDictField declares a map of named nested presentations.
func ObjectDictField(name string, schema func() *Schema) *Field {
	return &Field{Name: name, Kind: ObjectDict, schema: schema}
}

// SequencedListField declares a list of single-key maps.
func SequencedListField(name string, schema func() *Schema) *Field {
	return &Field{Name: name, Kind: ObjectSequencedList, schema: schema}
}

// Schema is the dispatch table of one presentation kind.
type Schema struct {
	// Name is the kind name used in diagnostics, e.g. "node template".
	Name string
	// ShortForm names the field a bare scalar stands in for.
	ShortForm string
	// AllowUnknown exposes unknown keys through Extensions instead of
	// reporting them.
	AllowUnknown bool
	// AsIs presentations wrap their raw value whatever its shape and have no
	// fields.
	AsIs bool
	// NamedEntries lets list entries be written as {name: {fields...}}: a
	// single-key map whose key is not a field is unwrapped and the key
	// becomes the presentation name.
	NamedEntries bool
	// Checks run once per presentation during Validate.
	Checks []func(c *Cycle, p *Presentation)

	fields map[string]*Field
	order  []string
}

// NewSchema builds a schema. Registering a field name twice is a programming
// error and panics.
func NewSchema(name string, fields ...*Field) *Schema {
	s := &Schema{Name: name, fields: make(map[string]*Field, len(fields))}
	for _, f := range fields {
		s.Add(f)
	}
	return s
}

// Add registers a field.
func (s *Schema) Add(f *Field) *Schema {
	if _, exists := s.fields[f.Name]; exists {
		panic(fmt.Sprintf("presentation: schema %q already has field %q", s.Name, f.Name))
	}
	s.fields[f.Name] = f
	s.order = append(s.order, f.Name)
	return s
}

// Field returns the descriptor for name, or nil.
func (s *Schema) Field(name string) *Field {
	return s.fields[name]
}

// Fields returns the descriptors in declaration order.
func (s *Schema) Fields() []*Field {
	out := make([]*Field, len(s.order))
	for i, name := range s.order {
		out[i] = s.fields[name]
	}
	return out
}

// WithShortForm sets the short-form field.
func (s *Schema) WithShortForm(field string) *Schema {
	if _, ok := s.fields[field]; !ok {
		panic(fmt.Sprintf("presentation: schema %q has no short-form field %q", s.Name, field))
	}
	s.ShortForm = field
	return s
}

// WithCheck appends a presentation-level validator.
func (s *Schema) WithCheck(check func(c *Cycle, p *Presentation)) *Schema {
	s.Checks = append(s.Checks, check)
	return s
}

// AsIsSchema returns a schema for presentations that are their raw value.
func AsIsSchema(name string) *Schema {
	return &Schema{Name: name, AsIs: true, fields: map[string]*Field{}}
}
