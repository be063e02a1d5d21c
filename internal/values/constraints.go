// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package values

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/tosca"
	"github.com/zclconf/go-cty/cty"
)

var errNotOrdered = errors.New("values of this type have no order")

// CheckAll evaluates every clause against v and reports one issue per
// failing clause. It returns true when all clauses pass. Unknown and null
// values are not checked.
func (co *Coercer) CheckAll(what, typeName string, clauses []*presentation.Presentation, v cty.Value, pos *issue.Position) bool {
	ok := true
	for _, clause := range clauses {
		if !co.Check(what, typeName, clause, v, pos) {
			ok = false
		}
	}
	return ok
}

// Check evaluates one constraint clause against v. A failing clause is
// reported once, naming the value, the operator and the operand. Malformed
// clauses are left to validation and always pass.
func (co *Coercer) Check(what, typeName string, clause *presentation.Presentation, v cty.Value, pos *issue.Position) bool {
	op, operand := tosca.Operator(clause)
	if op == "" || v.IsNull() || !v.IsWhollyKnown() || tosca.MalformedClause(clause) {
		return true
	}
	ok, err := co.evaluate(typeName, op, operand, v)
	if err != nil {
		co.reporter.Report(issue.Issue{
			Severity: issue.Error,
			Kind:     issue.ConstraintError,
			Message:  fmt.Sprintf("%s: cannot apply %s %s to %s", what, op, rawText(operand), Display(v)),
			Cause:    err,
			Position: pos,
		})
		return false
	}
	if !ok {
		co.report(pos, "%s: value %s does not satisfy %s %s", what, Display(v), op, rawText(operand))
	}
	return ok
}

func (co *Coercer) evaluate(typeName, op string, operand *raw.Node, v cty.Value) (bool, error) {
	base := co.base(typeName)

	switch op {
	case "equal":
		o, err := co.operand(typeName, operand)
		if err != nil {
			return false, err
		}
		return equal(v, o), nil

	case "greater_than", "greater_or_equal", "less_than", "less_or_equal":
		o, err := co.operand(typeName, operand)
		if err != nil {
			return false, err
		}
		cmp, err := compare(base, v, o)
		if err != nil {
			return false, err
		}
		switch op {
		case "greater_than":
			return cmp > 0, nil
		case "greater_or_equal":
			return cmp >= 0, nil
		case "less_than":
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}

	case "in_range":
		if !operand.IsList() || operand.Len() != 2 {
			return false, errors.New("in_range requires a list of two bounds")
		}
		bounds := operand.Items()
		lower, err := co.operand(typeName, bounds[0])
		if err != nil {
			return false, err
		}
		if cmp, err := compare(base, v, lower); err != nil || cmp < 0 {
			return false, err
		}
		if bounds[1].IsScalar() && bounds[1].Text == tosca.Unbounded {
			return true, nil
		}
		upper, err := co.operand(typeName, bounds[1])
		if err != nil {
			return false, err
		}
		cmp, err := compare(base, v, upper)
		return cmp <= 0, err

	case "valid_values":
		if !operand.IsList() {
			return false, errors.New("valid_values requires a list")
		}
		for _, item := range operand.Items() {
			o, err := co.operand(typeName, item)
			if err != nil {
				return false, err
			}
			if equal(v, o) {
				return true, nil
			}
		}
		return false, nil

	case "length", "min_length", "max_length":
		want, ok := operand.Value.(int64)
		if !ok {
			return false, fmt.Errorf("%s requires an integer", op)
		}
		n, err := length(v)
		if err != nil {
			return false, err
		}
		switch op {
		case "length":
			return int64(n) == want, nil
		case "min_length":
			return int64(n) >= want, nil
		default:
			return int64(n) <= want, nil
		}

	case "pattern":
		if v.Type() != cty.String {
			return false, errors.New("pattern applies to strings only")
		}
		re, err := regexp2.Compile(`\A(?:`+operand.Text+`)\z`, regexp2.None)
		if err != nil {
			return false, err
		}
		return re.MatchString(v.AsString())
	}
	return false, fmt.Errorf("unknown constraint operator %q", op)
}

// operand casts a constraint operand to the type of the value it is
// compared with.
func (co *Coercer) operand(typeName string, node *raw.Node) (cty.Value, error) {
	v, ok := co.Quiet().cast("operand", typeName, nil, node)
	if !ok {
		return cty.NilVal, fmt.Errorf("operand %s is not a valid %s", rawText(node), typeName)
	}
	return v, nil
}

func equal(a, b cty.Value) bool {
	eq := a.Equals(b)
	return eq.IsKnown() && eq.True()
}

// compare orders two values by the natural order of their primitive type.
func compare(base string, a, b cty.Value) (int, error) {
	if a.IsNull() || b.IsNull() {
		return 0, errNotOrdered
	}
	switch base {
	case tosca.TypeVersion:
		va, err := parseVersion(a.AsString())
		if err != nil {
			return 0, err
		}
		vb, err := parseVersion(b.AsString())
		if err != nil {
			return 0, err
		}
		return va.Compare(vb), nil

	case tosca.TypeTimestamp:
		ta, err := parseTimestamp(a.AsString())
		if err != nil {
			return 0, err
		}
		tb, err := parseTimestamp(b.AsString())
		if err != nil {
			return 0, err
		}
		return ta.Compare(tb), nil
	}

	switch {
	case a.Type() == cty.Number && b.Type() == cty.Number:
		return a.AsBigFloat().Cmp(b.AsBigFloat()), nil
	case a.Type() == cty.String && b.Type() == cty.String:
		return strings.Compare(a.AsString(), b.AsString()), nil
	}
	return 0, errNotOrdered
}

func length(v cty.Value) (int, error) {
	ty := v.Type()
	switch {
	case ty == cty.String:
		return utf8.RuneCountInString(v.AsString()), nil
	case ty.IsListType(), ty.IsMapType(), ty.IsSetType(), ty.IsTupleType(), ty.IsObjectType():
		return v.LengthInt(), nil
	}
	return 0, fmt.Errorf("length does not apply to %s", ty.FriendlyName())
}
