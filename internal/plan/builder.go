// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package plan

import (
	"context"

	"github.com/specialistvlad/toscago/internal/ctxlog"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/tosca"
	"github.com/specialistvlad/toscago/internal/typeregistry"
	"github.com/specialistvlad/toscago/internal/values"
)

// Builder builds a plan from one composed service template. A Builder
// belongs to a single cycle and is not reusable across runs.
type Builder struct {
	cycle    *presentation.Cycle
	root     *presentation.Presentation
	registry *typeregistry.Registry
	coercer  *values.Coercer
	inputs   *raw.Node
}

// Option configures a Builder.
type Option func(*Builder)

// WithInputs supplies values for topology inputs. inputs must be a map.
func WithInputs(inputs *raw.Node) Option {
	return func(b *Builder) { b.inputs = inputs }
}

// NewBuilder returns a builder over the composed root.
func NewBuilder(c *presentation.Cycle, root *presentation.Presentation, opts ...Option) *Builder {
	registry := typeregistry.New(c, root)
	b := &Builder{
		cycle:    c,
		root:     root,
		registry: registry,
		coercer:  values.New(registry),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Registry returns the type registry of the builder's cycle.
func (b *Builder) Registry() *typeregistry.Registry { return b.registry }

// Stage is one step of plan building.
type Stage struct {
	Name string
	Run  func(ctx context.Context, p *Plan)
}

// Stages returns the plan stages in the order they must run.
func (b *Builder) Stages() []Stage {
	return []Stage{
		{Name: "validate types", Run: b.Validate},
		{Name: "instantiate", Run: b.Instantiate},
		{Name: "satisfy requirements", Run: b.SatisfyRequirements},
		{Name: "coerce values", Run: b.CoerceValues},
		{Name: "validate capabilities", Run: b.ValidateCapabilities},
	}
}

// Build runs every stage and returns the resulting plan, which may be
// partial when issues were reported.
func (b *Builder) Build(ctx context.Context) *Plan {
	p := New()
	for _, stage := range b.Stages() {
		stage.Run(ctx, p)
	}
	return p
}

func (b *Builder) topology() *presentation.Presentation {
	return tosca.Topology(b.cycle, b.root)
}

func (b *Builder) reportf(severity issue.Severity, kind issue.Kind, pos *issue.Position, format string, args ...any) {
	b.cycle.Reportf(severity, kind, pos, format, args...)
}

// Validate checks the whole presentation tree, every type hierarchy and the
// template entries that must match a declaration of their type.
func (b *Builder) Validate(ctx context.Context, _ *Plan) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validate: checking service template.")

	b.root.Validate(b.cycle)
	b.registry.Validate()

	topo := b.topology()
	for name, tmpl := range topo.Dict(b.cycle, "node_templates").All() {
		b.validateNodeTemplate(name, tmpl)
	}
	for name, tmpl := range topo.Dict(b.cycle, "relationship_templates").All() {
		b.validateAssignments(tosca.RelationshipTypes, tmpl.String(b.cycle, "type"),
			"relationship template", name, "properties", tmpl.Dict(b.cycle, "properties"))
	}
	for name, group := range topo.Dict(b.cycle, "groups").All() {
		b.validateAssignments(tosca.GroupTypes, group.String(b.cycle, "type"),
			"group", name, "properties", group.Dict(b.cycle, "properties"))
	}
	for _, policy := range topo.List(b.cycle, "policies") {
		b.validateAssignments(tosca.PolicyTypes, policy.String(b.cycle, "type"),
			"policy", policy.Name, "properties", policy.Dict(b.cycle, "properties"))
	}
}

func (b *Builder) validateNodeTemplate(name string, tmpl *presentation.Presentation) {
	typeName := tmpl.String(b.cycle, "type")
	if b.registry.Lookup(tosca.NodeTypes, typeName) == nil {
		// Reported by the presentation check on "type".
		return
	}
	for _, field := range []string{"properties", "attributes", "capabilities", "interfaces"} {
		b.validateAssignments(tosca.NodeTypes, typeName, "node template", name, field, tmpl.Dict(b.cycle, field))
	}

	defs := b.registry.Resolve(tosca.NodeTypes, typeName, "requirements")
	counts := make(map[string]int)
	for _, req := range tmpl.List(b.cycle, "requirements") {
		if !defs.Has(req.Name) {
			b.reportf(issue.Error, issue.PresentationError, req.Pos(),
				"node template %q: requirement %q is not declared by node type %q", name, req.Name, typeName)
			continue
		}
		counts[req.Name]++
	}
	for reqName, def := range defs.All() {
		occ := tosca.OccurrencesOf(def, tosca.DefaultRequirementOccurrences)
		if !occ.Unbounded() && counts[reqName] > occ.Max {
			b.reportf(issue.Error, issue.MatchError, tmpl.FieldPos("requirements"),
				"node template %q: requirement %q is assigned %d times, at most %d allowed",
				name, reqName, counts[reqName], occ.Max)
		}
	}
}

var singularFields = map[string]string{
	"properties":   "property",
	"attributes":   "attribute",
	"capabilities": "capability",
	"interfaces":   "interface",
}

// validateAssignments reports template entries under field that the type
// does not declare.
func (b *Builder) validateAssignments(kind tosca.Kind, typeName, what, name, field string, assigned *presentation.Dict[*presentation.Presentation]) {
	if assigned.Len() == 0 || b.registry.Lookup(kind, typeName) == nil {
		return
	}
	declared := b.registry.Resolve(kind, typeName, field)
	singular := singularFields[field]
	for key, entry := range assigned.All() {
		if !declared.Has(key) {
			b.reportf(issue.Error, issue.PresentationError, entry.Pos(),
				"%s %q: %s %q is not declared by %s %q", what, name, singular, key, kind.Singular(), typeName)
		}
	}
}
