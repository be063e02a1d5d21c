// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package tosca

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
)

// Occurrences is a [min, max] bound. A negative Max means UNBOUNDED.
type Occurrences struct {
	Min int
	Max int
}

// Unbounded reports whether the upper bound is unlimited.
func (o Occurrences) Unbounded() bool { return o.Max < 0 }

// String renders the bound the way it is written in templates.
func (o Occurrences) String() string {
	if o.Unbounded() {
		return fmt.Sprintf("[%d, %s]", o.Min, Unbounded)
	}
	return fmt.Sprintf("[%d, %d]", o.Min, o.Max)
}

var (
	// DefaultRequirementOccurrences applies when a requirement definition
	// declares none.
	DefaultRequirementOccurrences = Occurrences{Min: 1, Max: 1}
	// DefaultCapabilityOccurrences applies when a capability definition
	// declares none.
	DefaultCapabilityOccurrences = Occurrences{Min: 1, Max: -1}
)

func parseOccurrences(node *raw.Node) (Occurrences, error) {
	if !node.IsList() || node.Len() != 2 {
		return Occurrences{}, errors.New("occurrences must be a list of two bounds")
	}
	items := node.Items()
	lower, ok := items[0].Value.(int64)
	if !ok || lower < 0 {
		return Occurrences{}, fmt.Errorf("lower bound must be a non-negative integer, found %s", items[0])
	}
	if items[1].IsScalar() && items[1].Text == Unbounded {
		return Occurrences{Min: int(lower), Max: -1}, nil
	}
	upper, ok := items[1].Value.(int64)
	if !ok || upper < lower || upper == 0 {
		return Occurrences{}, fmt.Errorf("upper bound must be a positive integer not below %d or %s, found %s", lower, Unbounded, items[1])
	}
	return Occurrences{Min: int(lower), Max: int(upper)}, nil
}

// OccurrencesOf reads the occurrences field of a requirement or capability,
// falling back to def when absent or malformed. Malformed values are
// reported by Validate.
func OccurrencesOf(pr *presentation.Presentation, def Occurrences) Occurrences {
	node := pr.FieldRaw("occurrences")
	if node.IsNull() {
		return def
	}
	o, err := parseOccurrences(node)
	if err != nil {
		return def
	}
	return o
}

// Operator returns the single operator of a constraint clause and its
// operand, or "" when the clause is malformed.
func Operator(clause *presentation.Presentation) (string, *raw.Node) {
	if clause == nil || !clause.Raw.IsMap() || clause.Raw.Len() != 1 {
		return "", nil
	}
	op := clause.Raw.Keys()[0]
	if clause.Schema.Field(op) == nil {
		return "", nil
	}
	return op, clause.Raw.Get(op)
}

// FilterClauses returns the constraint clauses of a node filter property
// entry, which may be a single clause or a list of clauses.
func FilterClauses(c *presentation.Cycle, filter *presentation.Presentation) []*presentation.Presentation {
	v := c.Memo(filter, "#clauses", func() any {
		var items []*raw.Node
		switch {
		case filter.Raw.IsMap():
			items = []*raw.Node{filter.Raw}
		case filter.Raw.IsList():
			items = filter.Raw.Items()
		default:
			c.Reportf(issue.Error, issue.PresentationError, filter.Pos(),
				"node filter on %q must be a constraint or a list of constraints", filter.Name)
		}
		out := make([]*presentation.Presentation, 0, len(items))
		for _, item := range items {
			if !item.IsMap() {
				c.Reportf(issue.Error, issue.PresentationError, item.Position(),
					"node filter on %q: constraint must be a map, found %s", filter.Name, item.Kind)
				continue
			}
			out = append(out, presentation.New(filter.Name, item, Schemas.ConstraintClause, filter))
		}
		return out
	})
	return v.([]*presentation.Presentation)
}

// Operations returns the operations of an interface definition, type or
// assignment. Operations are the keys the interface schema does not declare.
func Operations(c *presentation.Cycle, iface *presentation.Presentation) *presentation.Dict[*presentation.Presentation] {
	if iface == nil {
		return nil
	}
	v := c.Memo(iface, "#operations", func() any {
		out := presentation.NewDict[*presentation.Presentation]()
		for name, node := range iface.Extensions().All() {
			if node.IsNull() {
				node = raw.NewMap(node.Pos)
			}
			if !node.IsMap() && !node.IsScalar() {
				c.Reportf(issue.Error, issue.PresentationError, node.Position(),
					"%s: operation %q must be a map or an implementation name", iface.Describe(), name)
				continue
			}
			out.Set(name, presentation.New(name, node, Schemas.OperationDefinition, iface))
		}
		return out
	})
	return v.(*presentation.Dict[*presentation.Presentation])
}

func checkOperations(c *presentation.Cycle, iface *presentation.Presentation) {
	for _, op := range Operations(c, iface).All() {
		op.Validate(c)
	}
}

// Implementation returns the primary implementation artifact of an
// operation, which is either the short form or implementation.primary.
func Implementation(c *presentation.Cycle, op *presentation.Presentation) string {
	impl := op.Node(c, "implementation")
	switch {
	case impl.IsScalar():
		return impl.Text
	case impl.IsMap() && impl.Get("primary").IsScalar():
		return impl.Get("primary").Text
	}
	return ""
}

// ImportLocation returns where an import entry of doc points to. Entries
// naming a repository are resolved against that repository's url, read from
// the importing document itself.
func ImportLocation(c *presentation.Cycle, doc, imp *presentation.Presentation) (string, error) {
	file := imp.String(c, "file")
	if file == "" {
		return "", errors.New("import has no file")
	}
	repo := imp.String(c, "repository")
	if repo == "" {
		return file, nil
	}
	def := doc.Raw.Get("repositories").Get(repo)
	var url string
	switch {
	case def.IsScalar():
		url = def.Text
	case def.IsMap() && def.Get("url").IsScalar():
		url = def.Get("url").Text
	default:
		return "", fmt.Errorf("unknown repository %q", repo)
	}
	return strings.TrimSuffix(url, "/") + "/" + strings.TrimPrefix(file, "/"), nil
}
