// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package typeregistry resolves derived_from chains of a composed service
// template into flat, merged field tables.
//
// A Registry belongs to one cycle. Hierarchies and merged tables are computed
// once and cached; this is sound because the type sections are fixed once
// import composition has finished. Broken chains (a missing parent or a
// cycle) are reported exactly once as TypeResolutionError issues, and the
// walk returns whatever it collected before the break.
package typeregistry

import (
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/tosca"
)

type typeKey struct {
	kind tosca.Kind
	name string
}

type fieldKey struct {
	kind  tosca.Kind
	name  string
	field string
}

// Registry answers type questions for one composed service template.
type Registry struct {
	cycle *presentation.Cycle
	root  *presentation.Presentation

	hierarchies map[typeKey][]*presentation.Presentation
	resolved    map[fieldKey]*presentation.Dict[*presentation.Presentation]
	reported    map[string]bool
}

// New returns a registry over the given composed root.
func New(c *presentation.Cycle, root *presentation.Presentation) *Registry {
	return &Registry{
		cycle:       c,
		root:        root,
		hierarchies: make(map[typeKey][]*presentation.Presentation),
		resolved:    make(map[fieldKey]*presentation.Dict[*presentation.Presentation]),
		reported:    make(map[string]bool),
	}
}

// Cycle returns the cycle the registry belongs to.
func (r *Registry) Cycle() *presentation.Cycle { return r.cycle }

// Root returns the composed service template.
func (r *Registry) Root() *presentation.Presentation { return r.root }

// Lookup returns a type definition, or nil.
func (r *Registry) Lookup(kind tosca.Kind, name string) *presentation.Presentation {
	return tosca.Lookup(r.cycle, r.root, kind, name)
}

// Hierarchy returns the chain from the named type up to its rootmost
// reachable ancestor, the type itself first. It returns nil for an unknown
// type. A data type whose parent is a primitive ends its chain there.
func (r *Registry) Hierarchy(kind tosca.Kind, name string) []*presentation.Presentation {
	key := typeKey{kind, name}
	if h, ok := r.hierarchies[key]; ok {
		return h
	}

	var chain []*presentation.Presentation
	visited := make(map[string]int)
	current := name
	for current != "" {
		t := r.Lookup(kind, current)
		if t == nil {
			if len(chain) > 0 && !(kind == tosca.DataTypes && tosca.IsPrimitive(current)) {
				r.reportMissingParent(kind, chain[len(chain)-1], current)
			}
			break
		}
		if at, seen := visited[current]; seen {
			r.reportCycle(kind, chain[at:])
			break
		}
		visited[current] = len(chain)
		chain = append(chain, t)
		current = t.String(r.cycle, "derived_from")
	}

	r.hierarchies[key] = chain
	return chain
}

func (r *Registry) reportMissingParent(kind tosca.Kind, child *presentation.Presentation, parent string) {
	key := fmt.Sprintf("missing|%s|%s", kind, child.Name)
	if r.reported[key] {
		return
	}
	r.reported[key] = true
	r.cycle.Reportf(issue.Error, issue.TypeResolutionError, child.FieldPos("derived_from"),
		"%s %q derives from unknown %s %q", kind.Singular(), child.Name, kind.Singular(), parent)
}

func (r *Registry) reportCycle(kind tosca.Kind, members []*presentation.Presentation) {
	byName := make(map[string]*presentation.Presentation, len(members))
	names := make([]string, 0, len(members))
	for _, m := range members {
		byName[m.Name] = m
		names = append(names, m.Name)
	}
	slices.Sort(names)

	key := fmt.Sprintf("cycle|%s|%s", kind, strings.Join(names, "|"))
	if r.reported[key] {
		return
	}
	r.reported[key] = true
	first := byName[names[0]]
	r.cycle.Reportf(issue.Error, issue.TypeResolutionError, first.FieldPos("derived_from"),
		"derived_from cycle among %ss: %s", kind.Singular(), strings.Join(names, ", "))
}

// IsDerivedFrom reports whether name is ancestor or derives from it.
func (r *Registry) IsDerivedFrom(kind tosca.Kind, name, ancestor string) bool {
	if name == "" || ancestor == "" {
		return false
	}
	if name == ancestor {
		return true
	}
	for _, t := range r.Hierarchy(kind, name) {
		if t.Name == ancestor {
			return true
		}
	}
	return false
}

// IsDerivedFromAny reports whether name derives from one of ancestors.
func (r *Registry) IsDerivedFromAny(kind tosca.Kind, name string, ancestors []string) bool {
	for _, a := range ancestors {
		if r.IsDerivedFrom(kind, name, a) {
			return true
		}
	}
	return false
}

// Resolve returns the merged map of a dict or sequenced-list field along the
// type's hierarchy. Entries are ordered rootmost ancestor first; a child
// entry replaces its parent's entry under the same name but keeps the
// parent's position in the order.
func (r *Registry) Resolve(kind tosca.Kind, name, field string) *presentation.Dict[*presentation.Presentation] {
	key := fieldKey{kind, name, field}
	if d, ok := r.resolved[key]; ok {
		return d
	}

	out := presentation.NewDict[*presentation.Presentation]()
	chain := r.Hierarchy(kind, name)
	for i := len(chain) - 1; i >= 0; i-- {
		for entryName, entry := range own(r.cycle, chain[i], field).All() {
			out.Set(entryName, entry)
		}
	}

	r.resolved[key] = out
	return out
}

// own returns the entries a single type declares itself.
func own(c *presentation.Cycle, t *presentation.Presentation, field string) *presentation.Dict[*presentation.Presentation] {
	f := t.Schema.Field(field)
	if f == nil {
		return nil
	}
	switch f.Kind {
	case presentation.ObjectDict:
		return t.Dict(c, field)
	case presentation.ObjectSequencedList:
		out := presentation.NewDict[*presentation.Presentation]()
		for _, entry := range t.List(c, field) {
			out.Set(entry.Name, entry)
		}
		return out
	}
	panic(fmt.Sprintf("typeregistry: field %q of %s is not a map", field, t.Schema.Name))
}

// ResolveString returns the nearest non-empty value of a string field,
// searching from the type up.
func (r *Registry) ResolveString(kind tosca.Kind, name, field string) string {
	for _, t := range r.Hierarchy(kind, name) {
		if v := t.String(r.cycle, field); v != "" {
			return v
		}
	}
	return ""
}

// ResolveStrings returns the nearest non-empty value of a string list field.
func (r *Registry) ResolveStrings(kind tosca.Kind, name, field string) []string {
	for _, t := range r.Hierarchy(kind, name) {
		if v := t.Strings(r.cycle, field); len(v) > 0 {
			return v
		}
	}
	return nil
}

// ResolveDefault returns the default of the nearest definition of entry that
// declares one, searching from the type up, or nil.
func (r *Registry) ResolveDefault(kind tosca.Kind, name, field, entry string) *raw.Node {
	for _, t := range r.Hierarchy(kind, name) {
		def := own(r.cycle, t, field).Value(entry)
		if def.Has("default") {
			return def.FieldRaw("default")
		}
	}
	return nil
}

// ResolveConstraints returns the constraint clauses of a data type and all
// its ancestors, ancestors first.
func (r *Registry) ResolveConstraints(name string) []*presentation.Presentation {
	chain := r.Hierarchy(tosca.DataTypes, name)
	var out []*presentation.Presentation
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].List(r.cycle, "constraints")...)
	}
	return out
}

// PrimitiveBase returns the primitive a data type ultimately derives from,
// the name itself for a primitive, or "" for a complex data type.
func (r *Registry) PrimitiveBase(name string) string {
	if tosca.IsPrimitive(name) {
		return name
	}
	chain := r.Hierarchy(tosca.DataTypes, name)
	if len(chain) == 0 {
		return ""
	}
	if parent := chain[len(chain)-1].String(r.cycle, "derived_from"); tosca.IsPrimitive(parent) {
		return parent
	}
	return ""
}

// Validate walks every type of every kind so each broken chain is reported.
func (r *Registry) Validate() {
	for _, kind := range tosca.Kinds {
		for _, name := range r.root.Dict(r.cycle, string(kind)).Keys() {
			r.Hierarchy(kind, name)
		}
	}
}
