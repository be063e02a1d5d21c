// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file holds the field validators referenced from the schema tables.
// They run during Validate on the composed document, so type and template
// references are resolved against the merged service template root.
package tosca

import (
	"fmt"

	"github.com/dlclark/regexp2"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/presentation"
)

func reportRef(c *presentation.Cycle, pr *presentation.Presentation, f *presentation.Field, format string, args ...any) {
	c.Reportf(issue.Error, issue.PresentationError, pr.FieldPos(f.Name),
		"%s: field %q %s", pr.Describe(), f.Name, fmt.Sprintf(format, args...))
}

func checkTypeName(kind Kind) presentation.Check {
	return func(c *presentation.Cycle, pr *presentation.Presentation, f *presentation.Field, v any) {
		name, _ := v.(string)
		if name != "" && Lookup(c, pr.Root(), kind, name) == nil {
			reportRef(c, pr, f, "refers to unknown %s %q", kind.Singular(), name)
		}
	}
}

func checkTypeNames(kind Kind) presentation.Check {
	single := checkTypeName(kind)
	return func(c *presentation.Cycle, pr *presentation.Presentation, f *presentation.Field, v any) {
		items, _ := v.([]any)
		for _, item := range items {
			single(c, pr, f, item)
		}
	}
}

func checkDataTypeName(c *presentation.Cycle, pr *presentation.Presentation, f *presentation.Field, v any) {
	name, _ := v.(string)
	if name == "" || IsPrimitive(name) {
		return
	}
	if Lookup(c, pr.Root(), DataTypes, name) == nil {
		reportRef(c, pr, f, "refers to unknown data type %q", name)
	}
}

func checkRepositoryName(c *presentation.Cycle, pr *presentation.Presentation, f *presentation.Field, v any) {
	name, _ := v.(string)
	if name != "" && !pr.Root().Dict(c, "repositories").Has(name) {
		reportRef(c, pr, f, "refers to unknown repository %q", name)
	}
}

// checkNodeRef accepts either a node template or a node type.
func checkNodeRef(c *presentation.Cycle, pr *presentation.Presentation, f *presentation.Field, v any) {
	name, _ := v.(string)
	if name == "" {
		return
	}
	root := pr.Root()
	if NodeTemplate(c, root, name) == nil && Lookup(c, root, NodeTypes, name) == nil {
		reportRef(c, pr, f, "refers to unknown node template or node type %q", name)
	}
}

// checkRelationshipRef accepts either a relationship template or a
// relationship type.
func checkRelationshipRef(c *presentation.Cycle, pr *presentation.Presentation, f *presentation.Field, v any) {
	name, _ := v.(string)
	if name == "" {
		return
	}
	root := pr.Root()
	if RelationshipTemplate(c, root, name) == nil && Lookup(c, root, RelationshipTypes, name) == nil {
		reportRef(c, pr, f, "refers to unknown relationship template or relationship type %q", name)
	}
}

func checkNodeTemplateNames(c *presentation.Cycle, pr *presentation.Presentation, f *presentation.Field, v any) {
	items, _ := v.([]any)
	for _, item := range items {
		name, _ := item.(string)
		if name != "" && NodeTemplate(c, pr.Root(), name) == nil {
			reportRef(c, pr, f, "refers to unknown node template %q", name)
		}
	}
}

func checkOccurrences(c *presentation.Cycle, pr *presentation.Presentation, f *presentation.Field, _ any) {
	if _, err := parseOccurrences(pr.FieldRaw(f.Name)); err != nil {
		c.Report(issue.Issue{
			Severity: issue.Error,
			Kind:     issue.PresentationError,
			Message:  fmt.Sprintf("%s: field %q is invalid", pr.Describe(), f.Name),
			Cause:    err,
			Position: pr.FieldPos(f.Name),
		})
	}
}

func checkConstraintClause(c *presentation.Cycle, pr *presentation.Presentation) {
	if p := inspectClause(pr); p != nil {
		c.Report(issue.Issue{
			Severity: issue.Error,
			Kind:     issue.PresentationError,
			Message:  p.message,
			Cause:    p.cause,
			Position: p.pos,
		})
	}
}

// MalformedClause reports whether a constraint clause is malformed
// regardless of the value it is applied to. Validation reports such a
// clause once; evaluating it against values is skipped.
func MalformedClause(pr *presentation.Presentation) bool {
	return inspectClause(pr) != nil
}

type clauseProblem struct {
	message string
	cause   error
	pos     *issue.Position
}

func inspectClause(pr *presentation.Presentation) *clauseProblem {
	if pr == nil || !pr.Raw.IsMap() {
		return nil
	}
	if n := pr.Raw.Len(); n != 1 {
		return &clauseProblem{message: fmt.Sprintf("constraint must have exactly one operator, found %d", n), pos: pr.Pos()}
	}
	op, operand := Operator(pr)
	if op == "" {
		return nil
	}
	problem := func(format string, args ...any) *clauseProblem {
		return &clauseProblem{message: fmt.Sprintf(format, args...), pos: operand.Position()}
	}
	switch op {
	case "in_range":
		if !operand.IsList() || operand.Len() != 2 {
			return problem("constraint %q requires a list of two bounds", op)
		}
	case "valid_values":
		if !operand.IsList() {
			return problem("constraint %q requires a list", op)
		}
	case "length", "min_length", "max_length":
		if _, ok := operand.Value.(int64); !ok {
			return problem("constraint %q requires an integer, found %s", op, operand)
		}
	case "pattern":
		if _, err := regexp2.Compile(operand.Text, regexp2.None); err != nil {
			p := problem("constraint %q has an invalid expression %q", op, operand.Text)
			p.cause = err
			return p
		}
	default:
		if operand.IsList() || operand.IsMap() {
			return problem("constraint %q requires a scalar, found %s", op, operand.Kind)
		}
	}
	return nil
}

// checkPropertyFilter builds the filter clauses, reporting malformed ones,
// and validates each clause.
func checkPropertyFilter(c *presentation.Cycle, pr *presentation.Presentation) {
	for _, clause := range FilterClauses(c, pr) {
		clause.Validate(c)
	}
}
