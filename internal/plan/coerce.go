// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package plan

import (
	"context"
	"fmt"

	"github.com/specialistvlad/toscago/internal/ctxlog"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/tosca"
)

// CoerceValues casts every property and attribute of the plan to its
// declared type and checks its constraints. Inputs were coerced by
// Instantiate and are left alone.
func (b *Builder) CoerceValues(ctx context.Context, p *Plan) {
	logger := ctxlog.FromContext(ctx)
	count := 0
	coerce := func(owner string, props *Properties, label string) {
		for name, prop := range props.All() {
			prop.Value = b.coercer.Coerce(fmt.Sprintf("%s %s %q", owner, label, name), prop.def, prop.Raw)
			count++
		}
	}

	for _, n := range p.Nodes {
		owner := fmt.Sprintf("node %q", n.ID.String())
		coerce(owner, n.Properties, "property")
		coerce(owner, n.Attributes, "attribute")
		for capName, capability := range n.Capabilities.All() {
			coerce(fmt.Sprintf("%s capability %q", owner, capName), capability.Properties, "property")
		}
	}
	for _, rel := range p.Relationships {
		coerce(fmt.Sprintf("node %q requirement %q relationship", rel.Source.String(), rel.Requirement),
			rel.Properties, "property")
	}
	for _, g := range p.Groups {
		coerce(fmt.Sprintf("group %q", g.Name), g.Properties, "property")
	}
	for _, pol := range p.Policies {
		coerce(fmt.Sprintf("policy %q", pol.Name), pol.Properties, "property")
	}
	for name, out := range p.Outputs.All() {
		out.Value = b.coercer.Coerce(fmt.Sprintf("output %q", name), out.def, out.Raw)
		count++
	}

	logger.Debug("CoerceValues: coerced values.", "count", count)
}

// ValidateCapabilities checks every bound relationship against the valid
// target types of its relationship type and the valid source types of the
// capability it targets.
func (b *Builder) ValidateCapabilities(ctx context.Context, p *Plan) {
	logger := ctxlog.FromContext(ctx)
	checked := 0
	for _, rel := range p.Relationships {
		if rel.Target == nil {
			continue
		}
		target := p.Node(rel.Target.String())
		source := p.Node(rel.Source.String())
		if target == nil || source == nil {
			continue
		}
		capability := target.Capabilities.Value(rel.TargetCapability)
		if capability == nil {
			continue
		}
		checked++

		severity := issue.Error
		var pos *issue.Position
		if req := rel.requirement; req != nil {
			pos = req.pos
			if !req.Required {
				severity = issue.Warning
			}
		}

		valid := b.registry.ResolveStrings(tosca.RelationshipTypes, rel.Type, "valid_target_types")
		if len(valid) > 0 && !b.registry.IsDerivedFromAny(tosca.CapabilityTypes, capability.Type, valid) {
			b.reportf(severity, issue.MatchError, pos,
				"node %q: requirement %q: relationship type %q cannot target capability %q of type %q",
				source.ID.String(), rel.Requirement, rel.Type, capability.Name, capability.Type)
		}
		if len(capability.ValidSourceTypes) > 0 &&
			!b.registry.IsDerivedFromAny(tosca.NodeTypes, source.Type, capability.ValidSourceTypes) {
			b.reportf(severity, issue.MatchError, pos,
				"node %q: requirement %q: capability %q of node %q does not accept sources of type %q",
				source.ID.String(), rel.Requirement, capability.Name, target.ID.String(), source.Type)
		}
	}
	logger.Debug("ValidateCapabilities: checked relationships.", "count", checked)
}
