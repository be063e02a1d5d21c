// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package values casts raw template values to typed cty values and checks
// them against constraint clauses.
//
// Coercion never fails. A value that cannot be cast is reported as a
// ConstraintError and comes back as a null of the expected type, so the
// caller can carry on with the rest of the plan. Intrinsic functions whose
// result is only known at deployment time (get_property, get_attribute and
// friends) come back as unknown values; constraints are not checked for
// them.
package values

import (
	"fmt"

	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/tosca"
	"github.com/specialistvlad/toscago/internal/typeregistry"
	"github.com/zclconf/go-cty/cty"
)

// Definition is the typing information a value is coerced with. It is
// usually read from a property, attribute or parameter definition.
type Definition struct {
	Type        string
	EntrySchema *Definition
	Constraints []*presentation.Presentation
	Required    bool
	Default     *raw.Node
}

// DefinitionOf reads a property, attribute, parameter or entry schema
// definition. It returns nil for a nil presentation.
func DefinitionOf(c *presentation.Cycle, def *presentation.Presentation) *Definition {
	if def == nil {
		return nil
	}
	d := &Definition{Type: def.String(c, "type")}
	if def.Schema.Field("required") != nil {
		d.Required = def.Bool(c, "required")
	}
	if def.Schema.Field("constraints") != nil {
		d.Constraints = def.List(c, "constraints")
	}
	if def.Schema.Field("entry_schema") != nil {
		d.EntrySchema = DefinitionOf(c, def.Object(c, "entry_schema"))
	}
	if def.Schema.Field("default") != nil {
		d.Default = def.FieldRaw("default")
	}
	return d
}

// Coercer casts raw values for one cycle.
type Coercer struct {
	cycle    *presentation.Cycle
	registry *typeregistry.Registry
	reporter issue.Reporter
	inputs   map[string]cty.Value
}

// New returns a coercer reporting into the registry's cycle.
func New(registry *typeregistry.Registry) *Coercer {
	return &Coercer{
		cycle:    registry.Cycle(),
		registry: registry,
		reporter: registry.Cycle().Reporter(),
		inputs:   make(map[string]cty.Value),
	}
}

// Quiet returns a coercer sharing the same inputs that drops every issue.
// Node filters use it to probe candidates without reporting their values.
func (co *Coercer) Quiet() *Coercer {
	q := *co
	q.reporter = issue.Discard
	return &q
}

// SetInput makes a value available to get_input.
func (co *Coercer) SetInput(name string, v cty.Value) {
	co.inputs[name] = v
}

// Input returns the value of a topology input.
func (co *Coercer) Input(name string) (cty.Value, bool) {
	v, ok := co.inputs[name]
	return v, ok
}

func (co *Coercer) report(pos *issue.Position, format string, args ...any) {
	co.reporter.Report(issue.New(issue.Error, issue.ConstraintError, pos, format, args...))
}

// Coerce casts node according to def. what names the value in diagnostics,
// e.g. `node "web[0]" property "port"`. An absent node falls back to the
// definition's default; a required value with neither is reported.
func (co *Coercer) Coerce(what string, def *Definition, node *raw.Node) cty.Value {
	if def == nil {
		def = &Definition{}
	}
	if node.IsNull() {
		if def.Default.IsNull() {
			if def.Required {
				co.report(node.Position(), "%s is required but has no value", what)
			}
			return cty.NullVal(co.typeOf(def.Type))
		}
		node = def.Default
	}

	if fn, args, ok := Function(node); ok {
		return co.function(what, def, fn, args, node)
	}

	v, ok := co.cast(what, def.Type, def.EntrySchema, node)
	if !ok {
		return v
	}
	co.CheckAll(what, def.Type, def.Constraints, v, node.Position())
	return v
}

// typeOf returns the cty type values of a data type are cast to.
// Composite and complex types are dynamic.
func (co *Coercer) typeOf(name string) cty.Type {
	switch name {
	case tosca.TypeString, tosca.TypeTimestamp, tosca.TypeVersion:
		return cty.String
	case tosca.TypeInteger, tosca.TypeFloat,
		tosca.TypeSizeUnit, tosca.TypeTimeUnit, tosca.TypeFrequencyUnit:
		return cty.Number
	case tosca.TypeBoolean:
		return cty.Bool
	case tosca.TypeRange:
		return cty.List(cty.Number)
	case "", tosca.TypeNull, tosca.TypeList, tosca.TypeMap:
		return cty.DynamicPseudoType
	}
	if base := co.registry.PrimitiveBase(name); base != "" && base != name {
		return co.typeOf(base)
	}
	return cty.DynamicPseudoType
}

// base returns the primitive a type is ordered and compared as.
func (co *Coercer) base(name string) string {
	if b := co.registry.PrimitiveBase(name); b != "" {
		return b
	}
	return name
}

func (co *Coercer) mismatch(what, want string, node *raw.Node) (cty.Value, bool) {
	found := node.Kind.String()
	if node.IsScalar() {
		found = fmt.Sprintf("%s %q", scalarKind(node), node.Text)
	}
	co.report(node.Position(), "%s: expected %s, found %s", what, want, found)
	return cty.NullVal(co.typeOf(want)), false
}

func scalarKind(node *raw.Node) string {
	switch node.Value.(type) {
	case int64:
		return tosca.TypeInteger
	case float64:
		return tosca.TypeFloat
	case bool:
		return tosca.TypeBoolean
	}
	return tosca.TypeString
}

// cast converts node to the named type without checking the constraints of
// the definition. Constraints declared on a derived data type are checked
// here since they belong to the type itself.
func (co *Coercer) cast(what, typeName string, entry *Definition, node *raw.Node) (cty.Value, bool) {
	switch typeName {
	case "":
		return FromRaw(node), true

	case tosca.TypeNull:
		if !node.IsNull() {
			return co.mismatch(what, typeName, node)
		}
		return cty.NullVal(cty.DynamicPseudoType), true

	case tosca.TypeString:
		if s, ok := node.Value.(string); ok {
			return cty.StringVal(s), true
		}
		return co.mismatch(what, typeName, node)

	case tosca.TypeInteger:
		if i, ok := node.Value.(int64); ok {
			return cty.NumberIntVal(i), true
		}
		return co.mismatch(what, typeName, node)

	case tosca.TypeFloat:
		switch n := node.Value.(type) {
		case int64:
			return cty.NumberIntVal(n), true
		case float64:
			return cty.NumberFloatVal(n), true
		}
		return co.mismatch(what, typeName, node)

	case tosca.TypeBoolean:
		if b, ok := node.Value.(bool); ok {
			return cty.BoolVal(b), true
		}
		return co.mismatch(what, typeName, node)

	case tosca.TypeTimestamp:
		if s, ok := node.Value.(string); ok {
			if _, err := parseTimestamp(s); err == nil {
				return cty.StringVal(s), true
			}
		}
		return co.mismatch(what, typeName, node)

	case tosca.TypeVersion:
		if node.IsScalar() {
			if _, err := parseVersion(node.Text); err == nil {
				return cty.StringVal(node.Text), true
			}
		}
		return co.mismatch(what, typeName, node)

	case tosca.TypeRange:
		return co.castRange(what, node)

	case tosca.TypeSizeUnit, tosca.TypeTimeUnit, tosca.TypeFrequencyUnit:
		n, err := parseScalarUnit(typeName, node)
		if err != nil {
			co.report(node.Position(), "%s: %v", what, err)
			return cty.NullVal(cty.Number), false
		}
		return n, true

	case tosca.TypeList:
		return co.castList(what, entry, node)

	case tosca.TypeMap:
		return co.castMap(what, entry, node)
	}

	if co.registry.Lookup(tosca.DataTypes, typeName) == nil {
		// Unknown types are reported by validation; keep the value as is.
		return FromRaw(node), true
	}
	if base := co.registry.PrimitiveBase(typeName); base != "" {
		v, ok := co.cast(what, base, entry, node)
		if ok {
			co.CheckAll(what, base, co.registry.ResolveConstraints(typeName), v, node.Position())
		}
		return v, ok
	}
	return co.castObject(what, typeName, node)
}

func (co *Coercer) castRange(what string, node *raw.Node) (cty.Value, bool) {
	if !node.IsList() || node.Len() != 2 {
		return co.mismatch(what, "a range of two bounds", node)
	}
	items := node.Items()
	lower, ok := items[0].Value.(int64)
	if !ok {
		return co.mismatch(what, "an integer lower bound", items[0])
	}
	upper := cty.PositiveInfinity
	switch u := items[1].Value.(type) {
	case int64:
		if u < lower {
			co.report(node.Position(), "%s: range upper bound %d is below lower bound %d", what, u, lower)
			return cty.NullVal(cty.List(cty.Number)), false
		}
		upper = cty.NumberIntVal(u)
	case string:
		if u != tosca.Unbounded {
			return co.mismatch(what, "an integer upper bound or "+tosca.Unbounded, items[1])
		}
	default:
		return co.mismatch(what, "an integer upper bound or "+tosca.Unbounded, items[1])
	}
	return cty.ListVal([]cty.Value{cty.NumberIntVal(lower), upper}), true
}

func (co *Coercer) castList(what string, entry *Definition, node *raw.Node) (cty.Value, bool) {
	if !node.IsList() {
		return co.mismatch(what, tosca.TypeList, node)
	}
	if node.Len() == 0 {
		return cty.EmptyTupleVal, true
	}
	elems := make([]cty.Value, 0, node.Len())
	for i, item := range node.Items() {
		elems = append(elems, co.Coerce(fmt.Sprintf("%s[%d]", what, i), entry, item))
	}
	return cty.TupleVal(elems), true
}

func (co *Coercer) castMap(what string, entry *Definition, node *raw.Node) (cty.Value, bool) {
	if !node.IsMap() {
		return co.mismatch(what, tosca.TypeMap, node)
	}
	if node.Len() == 0 {
		return cty.EmptyObjectVal, true
	}
	attrs := make(map[string]cty.Value, node.Len())
	for _, k := range node.Keys() {
		attrs[k] = co.Coerce(fmt.Sprintf("%s[%q]", what, k), entry, node.Get(k))
	}
	return cty.ObjectVal(attrs), true
}

// castObject coerces a value of a complex data type field by field, each
// with its own definition, default and required flag.
func (co *Coercer) castObject(what, typeName string, node *raw.Node) (cty.Value, bool) {
	if !node.IsMap() {
		return co.mismatch(what, fmt.Sprintf("a map for data type %q", typeName), node)
	}
	props := co.registry.Resolve(tosca.DataTypes, typeName, "properties")
	for _, k := range node.Keys() {
		if !props.Has(k) {
			co.report(node.Get(k).Position(), "%s: data type %q has no property %q", what, typeName, k)
		}
	}
	if props.Len() == 0 {
		return cty.EmptyObjectVal, true
	}
	attrs := make(map[string]cty.Value, props.Len())
	for name, prop := range props.All() {
		def := DefinitionOf(co.cycle, prop)
		def.Default = co.registry.ResolveDefault(tosca.DataTypes, typeName, "properties", name)
		attrs[name] = co.Coerce(fmt.Sprintf("%s.%s", what, name), def, node.Get(name))
	}
	return cty.ObjectVal(attrs), true
}
