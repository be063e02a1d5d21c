// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package plan

import (
	"context"
	"fmt"

	"github.com/specialistvlad/toscago/internal/ctxlog"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/nodeid"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/tosca"
	"github.com/specialistvlad/toscago/internal/values"
)

// Scaling is read from this capability of a node template.
const (
	scalableCapability = "scalable"
	defaultInstances   = "default_instances"
)

type assignments = presentation.Dict[*presentation.Presentation]

// Instantiate creates the plan nodes of every node template, its inputs,
// groups, policies and outputs. Values stay pending until CoerceValues,
// except inputs, which are coerced right away so node filters and get_input
// can see them.
func (b *Builder) Instantiate(ctx context.Context, p *Plan) {
	logger := ctxlog.FromContext(ctx)
	topo := b.topology()

	p.Description = topo.String(b.cycle, "description")
	if p.Description == "" {
		p.Description = b.root.String(b.cycle, "description")
	}

	b.instantiateInputs(p, topo.Dict(b.cycle, "inputs"))

	for name, tmpl := range topo.Dict(b.cycle, "node_templates").All() {
		count := b.scaleCount(name, tmpl)
		for i := range count {
			p.add(b.instantiateNode(name, i, tmpl))
		}
	}
	for _, n := range p.Nodes {
		for _, req := range n.Requirements {
			if req.Relationship != nil {
				p.Relationships = append(p.Relationships, req.Relationship)
			}
		}
	}

	for name, g := range topo.Dict(b.cycle, "groups").All() {
		typeName := g.String(b.cycle, "type")
		group := &Group{
			Name:       name,
			Type:       typeName,
			Properties: b.properties(tosca.GroupTypes, typeName, "properties", g.Dict(b.cycle, "properties")),
		}
		for _, member := range g.Strings(b.cycle, "members") {
			for _, n := range p.NodesOf(member) {
				group.Members = append(group.Members, n.ID.String())
			}
		}
		p.Groups = append(p.Groups, group)
	}

	for _, pol := range topo.List(b.cycle, "policies") {
		typeName := pol.String(b.cycle, "type")
		p.Policies = append(p.Policies, &Policy{
			Name:       pol.Name,
			Type:       typeName,
			Targets:    pol.Strings(b.cycle, "targets"),
			Properties: b.properties(tosca.PolicyTypes, typeName, "properties", pol.Dict(b.cycle, "properties")),
		})
	}

	for name, def := range topo.Dict(b.cycle, "outputs").All() {
		d := values.DefinitionOf(b.cycle, def)
		d.Required = false
		p.Outputs.Set(name, newProperty(name, d, def.FieldRaw("value")))
	}

	logger.Debug("Instantiate: created plan nodes.", "count", len(p.Nodes), "relationships", len(p.Relationships))
}

func (b *Builder) instantiateInputs(p *Plan, defs *assignments) {
	for _, name := range b.inputs.Keys() {
		if !defs.Has(name) {
			b.reportf(issue.Error, issue.ConstraintError, b.inputs.Get(name).Position(),
				"input %q is not declared by the topology template", name)
		}
	}
	for name, def := range defs.All() {
		prop := newProperty(name, values.DefinitionOf(b.cycle, def), b.inputs.Get(name))
		prop.Value = b.coercer.Coerce(fmt.Sprintf("input %q", name), prop.def, prop.Raw)
		b.coercer.SetInput(name, prop.Value)
		p.Inputs.Set(name, prop)
	}
}

// scaleCount returns how many plan nodes a node template becomes: the
// default_instances property of its scalable capability, or 1.
func (b *Builder) scaleCount(name string, tmpl *presentation.Presentation) int {
	node := assignedRaw(tmpl.Dict(b.cycle, "capabilities").Value(scalableCapability).Dict(b.cycle, "properties"), defaultInstances)
	if node.IsNull() {
		def := b.registry.Resolve(tosca.NodeTypes, tmpl.String(b.cycle, "type"), "capabilities").Value(scalableCapability)
		if def == nil {
			return 1
		}
		node = def.Dict(b.cycle, "properties").Value(defaultInstances).FieldRaw("default")
		if node.IsNull() {
			node = b.registry.ResolveDefault(tosca.CapabilityTypes, def.String(b.cycle, "type"), "properties", defaultInstances)
		}
	}
	if node.IsNull() {
		return 1
	}
	n, ok := node.Value.(int64)
	if !ok || n < 0 {
		b.reportf(issue.Error, issue.ConstraintError, node.Position(),
			"node template %q: %s must be a non-negative integer, found %s", name, defaultInstances, node)
		return 1
	}
	return int(n)
}

func (b *Builder) instantiateNode(name string, index int, tmpl *presentation.Presentation) *Node {
	typeName := tmpl.String(b.cycle, "type")
	n := &Node{
		ID:           nodeid.Node(name, index),
		Template:     name,
		Type:         typeName,
		Properties:   b.properties(tosca.NodeTypes, typeName, "properties", tmpl.Dict(b.cycle, "properties")),
		Attributes:   b.properties(tosca.NodeTypes, typeName, "attributes", tmpl.Dict(b.cycle, "attributes")),
		Capabilities: b.capabilities(typeName, tmpl.Dict(b.cycle, "capabilities")),
		Interfaces:   b.interfaces(tosca.NodeTypes, typeName, tmpl.Dict(b.cycle, "interfaces")),
		Artifacts:    b.artifacts(typeName, tmpl.Dict(b.cycle, "artifacts")),
	}
	n.Requirements = b.requirements(n, tmpl.List(b.cycle, "requirements"))
	return n
}

func assignedRaw(assigned *assignments, name string) *raw.Node {
	if pr := assigned.Value(name); pr != nil {
		return pr.Raw
	}
	return nil
}

// properties instantiates the merged definitions under field of a type,
// taking values from assigned.
func (b *Builder) properties(kind tosca.Kind, typeName, field string, assigned *assignments) *Properties {
	out := presentation.NewDict[*Property]()
	for name, def := range b.registry.Resolve(kind, typeName, field).All() {
		d := values.DefinitionOf(b.cycle, def)
		d.Default = b.registry.ResolveDefault(kind, typeName, field, name)
		out.Set(name, newProperty(name, d, assignedRaw(assigned, name)))
	}
	return out
}

func (b *Builder) capabilities(typeName string, assigned *assignments) *presentation.Dict[*Capability] {
	out := presentation.NewDict[*Capability]()
	for name, def := range b.registry.Resolve(tosca.NodeTypes, typeName, "capabilities").All() {
		capType := def.String(b.cycle, "type")
		occ := tosca.OccurrencesOf(def, tosca.DefaultCapabilityOccurrences)
		sources := def.Strings(b.cycle, "valid_source_types")
		if len(sources) == 0 {
			sources = b.registry.ResolveStrings(tosca.CapabilityTypes, capType, "valid_source_types")
		}

		// Capability type properties first, refined by the definition.
		props := assigned.Value(name).Dict(b.cycle, "properties")
		properties := b.properties(tosca.CapabilityTypes, capType, "properties", props)
		for propName, pd := range def.Dict(b.cycle, "properties").All() {
			d := values.DefinitionOf(b.cycle, pd)
			if d.Default.IsNull() {
				d.Default = b.registry.ResolveDefault(tosca.CapabilityTypes, capType, "properties", propName)
			}
			properties.Set(propName, newProperty(propName, d, assignedRaw(props, propName)))
		}

		out.Set(name, &Capability{
			Name:             name,
			Type:             capType,
			Properties:       properties,
			Occurrences:      occ,
			Remaining:        occ.Max,
			ValidSourceTypes: sources,
		})
	}
	return out
}

// interfaces collects operations from the interface type hierarchy, the
// type's interface definition and the template assignment, in that order.
// A later non-empty implementation replaces an earlier one.
func (b *Builder) interfaces(kind tosca.Kind, typeName string, assigned *assignments) *presentation.Dict[*Interface] {
	out := presentation.NewDict[*Interface]()
	for name, def := range b.registry.Resolve(kind, typeName, "interfaces").All() {
		ifaceType := def.String(b.cycle, "type")
		ops := presentation.NewDict[string]()
		hierarchy := b.registry.Hierarchy(tosca.InterfaceTypes, ifaceType)
		for i := len(hierarchy) - 1; i >= 0; i-- {
			b.addOperations(ops, hierarchy[i])
		}
		b.addOperations(ops, def)
		b.addOperations(ops, assigned.Value(name))
		out.Set(name, &Interface{Type: ifaceType, Operations: ops})
	}
	return out
}

func (b *Builder) addOperations(ops *presentation.Dict[string], iface *presentation.Presentation) {
	if iface == nil {
		return
	}
	for name, op := range tosca.Operations(b.cycle, iface).All() {
		if impl := tosca.Implementation(b.cycle, op); impl != "" || !ops.Has(name) {
			ops.Set(name, impl)
		}
	}
}

func (b *Builder) artifacts(typeName string, assigned *assignments) *presentation.Dict[string] {
	out := presentation.NewDict[string]()
	for name, def := range b.registry.Resolve(tosca.NodeTypes, typeName, "artifacts").All() {
		out.Set(name, def.String(b.cycle, "file"))
	}
	for name, def := range assigned.All() {
		out.Set(name, def.String(b.cycle, "file"))
	}
	return out
}

// requirements instantiates requirements in the order of the type's merged
// definitions. Every assignment of a definition becomes one requirement; a
// definition assigned fewer times than its minimum occurrences is topped up
// with requirements built from the definition alone.
func (b *Builder) requirements(n *Node, assigned []*presentation.Presentation) []*Requirement {
	var out []*Requirement
	for name, def := range b.registry.Resolve(tosca.NodeTypes, n.Type, "requirements").All() {
		occ := tosca.OccurrencesOf(def, tosca.DefaultRequirementOccurrences)
		count := 0
		for _, a := range assigned {
			if a.Name == name {
				out = append(out, b.requirement(n, def, a, occ))
				count++
			}
		}
		for ; count < occ.Min; count++ {
			out = append(out, b.requirement(n, def, nil, occ))
		}
	}
	return out
}

func (b *Builder) requirement(n *Node, def, a *presentation.Presentation, occ tosca.Occurrences) *Requirement {
	capability := def.String(b.cycle, "capability")
	r := &Requirement{
		Name:             def.Name,
		Capability:       capability,
		Node:             def.String(b.cycle, "node"),
		Required:         occ.Min > 0,
		capabilityType:   capability,
		relationshipType: def.Object(b.cycle, "relationship").String(b.cycle, "type"),
		pos:              def.Pos(),
	}
	if a == nil {
		return r
	}
	r.pos = a.Pos()
	if s := a.String(b.cycle, "capability"); s != "" {
		r.Capability = s
	}
	if s := a.String(b.cycle, "node"); s != "" {
		r.Node = s
	}
	r.Filter = a.Object(b.cycle, "node_filter")
	if rel := a.Object(b.cycle, "relationship"); rel != nil {
		r.Relationship = b.newRelationship(n, r, rel.String(b.cycle, "type"),
			rel.Dict(b.cycle, "properties"), rel.Dict(b.cycle, "interfaces"))
	}
	return r
}

// newRelationship creates an unbound relationship. ref names a relationship
// template or a relationship type; assignments made inline override the
// template's.
func (b *Builder) newRelationship(n *Node, r *Requirement, ref string, props, ifaces *assignments) *Relationship {
	rel := &Relationship{
		Type:        ref,
		Source:      n.ID,
		Requirement: r.Name,
		requirement: r,
	}
	if tmpl := tosca.RelationshipTemplate(b.cycle, b.root, ref); tmpl != nil {
		rel.Template = ref
		rel.Type = tmpl.String(b.cycle, "type")
		props = overlay(tmpl.Dict(b.cycle, "properties"), props)
		ifaces = overlay(tmpl.Dict(b.cycle, "interfaces"), ifaces)
	}
	rel.Properties = b.properties(tosca.RelationshipTypes, rel.Type, "properties", props)
	rel.Interfaces = b.interfaces(tosca.RelationshipTypes, rel.Type, ifaces)
	return rel
}

func overlay(base, top *assignments) *assignments {
	out := base.Clone()
	for k, v := range top.All() {
		out.Set(k, v)
	}
	return out
}
