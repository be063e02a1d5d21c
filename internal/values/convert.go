// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package values

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// FromRaw converts an untyped raw value: maps become objects, lists become
// tuples and scalars keep their decoded type.
func FromRaw(node *raw.Node) cty.Value {
	switch {
	case node.IsNull():
		return cty.NullVal(cty.DynamicPseudoType)

	case node.IsMap():
		if node.Len() == 0 {
			return cty.EmptyObjectVal
		}
		attrs := make(map[string]cty.Value, node.Len())
		for _, k := range node.Keys() {
			attrs[k] = FromRaw(node.Get(k))
		}
		return cty.ObjectVal(attrs)

	case node.IsList():
		if node.Len() == 0 {
			return cty.EmptyTupleVal
		}
		elems := make([]cty.Value, 0, node.Len())
		for _, item := range node.Items() {
			elems = append(elems, FromRaw(item))
		}
		return cty.TupleVal(elems)
	}

	switch v := node.Value.(type) {
	case int64:
		return cty.NumberIntVal(v)
	case float64:
		return cty.NumberFloatVal(v)
	case bool:
		return cty.BoolVal(v)
	}
	return cty.StringVal(node.Text)
}

// Display renders a value for diagnostics.
func Display(v cty.Value) string {
	switch {
	case !v.IsWhollyKnown():
		return "(known after deployment)"
	case v.IsNull():
		return "null"
	case v.Type() == cty.Number:
		return numberText(v.AsBigFloat())
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}

func rawText(node *raw.Node) string {
	if node.IsNull() || node.IsScalar() {
		return node.String()
	}
	var n yaml.Node
	if err := n.Encode(node.Plain()); err != nil {
		return node.String()
	}
	n.Style = yaml.FlowStyle
	b, err := yaml.Marshal(&n)
	if err != nil {
		return node.String()
	}
	return strings.TrimSpace(string(b))
}

func numberText(f *big.Float) string {
	if f.IsInf() {
		if f.Sign() > 0 {
			return "UNBOUNDED"
		}
		return "-UNBOUNDED"
	}
	if f.IsInt() {
		return f.Text('f', 0)
	}
	v, _ := f.Float64()
	return fmt.Sprint(v)
}

// ToYAML encodes a known value as a YAML node. Objects and maps are written
// with sorted keys; an infinite range bound is written as UNBOUNDED so the
// result reads back as the same value.
func ToYAML(v cty.Value) *yaml.Node {
	if v.IsNull() || !v.IsKnown() {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return scalar(v.AsString())

	case ty == cty.Bool:
		return scalar(v.True())

	case ty == cty.Number:
		f := v.AsBigFloat()
		if f.IsInf() {
			return scalar("UNBOUNDED")
		}
		if i, acc := f.Int64(); f.IsInt() && acc == big.Exact {
			return scalar(i)
		}
		fl, _ := f.Float64()
		return scalar(fl)

	case ty.IsListType(), ty.IsSetType(), ty.IsTupleType():
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			seq.Content = append(seq.Content, ToYAML(elem))
		}
		return seq

	case ty.IsMapType(), ty.IsObjectType():
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for it := v.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			m.Content = append(m.Content, scalar(k.AsString()), ToYAML(elem))
		}
		return m
	}
	return scalar(v.GoString())
}

func scalar(v any) *yaml.Node {
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(v)}
	}
	return n
}
