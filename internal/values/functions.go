// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package values

import (
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Intrinsic function names.
const (
	FuncGetInput           = "get_input"
	FuncGetProperty        = "get_property"
	FuncGetAttribute       = "get_attribute"
	FuncGetOperationOutput = "get_operation_output"
	FuncGetNodesOfType     = "get_nodes_of_type"
	FuncGetArtifact        = "get_artifact"
	FuncConcat             = "concat"
	FuncToken              = "token"
)

var functions = map[string]bool{
	FuncGetInput:           true,
	FuncGetProperty:        true,
	FuncGetAttribute:       true,
	FuncGetOperationOutput: true,
	FuncGetNodesOfType:     true,
	FuncGetArtifact:        true,
	FuncConcat:             true,
	FuncToken:              true,
}

// Function reports whether node is an intrinsic function call, a single-key
// map such as {get_input: port}, and returns its name and arguments.
func Function(node *raw.Node) (string, *raw.Node, bool) {
	if !node.IsMap() || node.Len() != 1 {
		return "", nil, false
	}
	name := node.Keys()[0]
	if !functions[name] {
		return "", nil, false
	}
	return name, node.Get(name), true
}

// function evaluates what can be evaluated while building the plan. Only
// get_input is; every other function is left unknown.
func (co *Coercer) function(what string, def *Definition, name string, args, node *raw.Node) cty.Value {
	want := co.typeOf(def.Type)
	if name != FuncGetInput {
		return cty.UnknownVal(want)
	}

	input := args
	if args.IsList() && args.Len() == 1 {
		input = args.Items()[0]
	}
	if !input.IsScalar() {
		co.report(node.Position(), "%s: %s takes the name of an input", what, FuncGetInput)
		return cty.NullVal(want)
	}
	v, ok := co.Input(input.Text)
	if !ok {
		co.report(node.Position(), "%s: unknown input %q", what, input.Text)
		return cty.NullVal(want)
	}
	converted, err := convert.Convert(v, want)
	if err != nil {
		co.report(node.Position(), "%s: input %q cannot be used as %s: %v", what, input.Text, def.Type, err)
		return cty.NullVal(want)
	}
	co.CheckAll(what, def.Type, def.Constraints, converted, node.Position())
	return converted
}
