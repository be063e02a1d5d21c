// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package plan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/toscago/internal/ctxlog"
	"github.com/specialistvlad/toscago/internal/dag"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/nodeid"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/tosca"
	"github.com/specialistvlad/toscago/internal/values"
)

func sortNodes(nodes []*Node) {
	slices.SortFunc(nodes, func(a, b *Node) int { return nodeid.Compare(a.ID, b.ID) })
}

// SatisfyRequirements binds every unbound requirement to a capability of
// another plan node. Source nodes and candidates are both visited in plan
// node ID order, so when a capability runs out of occupancy it is the
// lexicographically last source that goes without.
//
// Candidates are chosen by the first strategy that applies:
//
//  1. the requirement names a node template: its instances;
//  2. the requirement names a node type: nodes of that type or a subtype;
//  3. otherwise: every node.
//
// A candidate qualifies when it offers a compatible capability with
// occupancy left and passes the requirement's node filter, if any.
func (b *Builder) SatisfyRequirements(ctx context.Context, p *Plan) {
	logger := ctxlog.FromContext(ctx)
	sorted := p.Sorted()

	bound := 0
	for _, n := range sorted {
		for _, req := range n.Requirements {
			if req.Bound() {
				continue
			}
			if b.satisfy(p, sorted, n, req) {
				bound++
			}
		}
	}

	var cycle *dag.CycleError
	if err := p.Graph.DetectCycles(); errors.As(err, &cycle) {
		b.reportf(issue.Error, issue.MatchError, nil,
			"requirements form a dependency cycle: %s", strings.Join(cycle.Path, " -> "))
	}

	logger.Debug("SatisfyRequirements: bound requirements.", "bound", bound, "relationships", len(p.Relationships))
}

func (b *Builder) satisfy(p *Plan, sorted []*Node, n *Node, req *Requirement) bool {
	exhausted := false
	considered := 0
	for _, cand := range b.candidates(sorted, n, req) {
		capability := b.compatibleCapability(cand, req)
		if capability == nil {
			continue
		}
		considered++
		if req.Filter != nil && !b.passes(cand, req.Filter) {
			continue
		}
		if capability.Remaining == 0 {
			exhausted = true
			continue
		}
		b.bind(p, n, req, cand, capability)
		return true
	}

	severity := issue.Warning
	if req.Required {
		severity = issue.Error
	}
	var reason string
	switch {
	case exhausted:
		reason = "every matching capability is fully occupied"
	case considered > 0:
		reason = "no candidate passes the node filter"
	case req.Node != "":
		reason = fmt.Sprintf("no %q node offers capability %q", req.Node, req.Capability)
	default:
		reason = fmt.Sprintf("no node offers capability %q", req.Capability)
	}
	b.reportf(severity, issue.MatchError, req.pos,
		"node %q: requirement %q cannot be satisfied: %s", n.ID.String(), req.Name, reason)
	return false
}

func (b *Builder) candidates(sorted []*Node, n *Node, req *Requirement) []*Node {
	var match func(*Node) bool
	switch {
	case req.Node == "":
		match = func(*Node) bool { return true }
	case tosca.NodeTemplate(b.cycle, b.root, req.Node) != nil:
		match = func(cand *Node) bool { return cand.Template == req.Node }
	default:
		match = func(cand *Node) bool {
			return b.registry.IsDerivedFrom(tosca.NodeTypes, cand.Type, req.Node)
		}
	}

	var out []*Node
	for _, cand := range sorted {
		if !cand.ID.Equal(&n.ID) && match(cand) {
			out = append(out, cand)
		}
	}
	return out
}

// compatibleCapability finds the capability of cand the requirement can
// bind to. The requested capability is matched by name first, then by
// type; either way the capability's type must derive from the capability
// type of the requirement definition.
func (b *Builder) compatibleCapability(cand *Node, req *Requirement) *Capability {
	fits := func(c *Capability) bool {
		return req.capabilityType == "" ||
			b.registry.IsDerivedFrom(tosca.CapabilityTypes, c.Type, req.capabilityType)
	}
	if c, ok := cand.Capabilities.Get(req.Capability); ok {
		if fits(c) {
			return c
		}
		return nil
	}
	for _, c := range cand.Capabilities.All() {
		if b.registry.IsDerivedFrom(tosca.CapabilityTypes, c.Type, req.Capability) && fits(c) {
			return c
		}
	}
	return nil
}

func (b *Builder) bind(p *Plan, n *Node, req *Requirement, target *Node, capability *Capability) {
	if capability.Remaining > 0 {
		capability.Remaining--
	}
	id := target.ID
	req.Target = &id
	req.TargetCapability = capability.Name

	if req.Relationship == nil {
		req.Relationship = b.newRelationship(n, req, req.relationshipType, nil, nil)
		p.Relationships = append(p.Relationships, req.Relationship)
	}
	req.Relationship.Target = &id
	req.Relationship.TargetCapability = capability.Name

	// Both nodes are in the graph and never equal.
	_ = p.Graph.AddEdge(target.ID.String(), n.ID.String())
}

// passes evaluates a node filter against a candidate. Values are probed
// quietly: a candidate that fails to coerce simply does not match.
func (b *Builder) passes(cand *Node, filter *presentation.Presentation) bool {
	probe := b.coercer.Quiet()
	for _, pf := range filter.List(b.cycle, "properties") {
		if !b.matchProperty(probe, cand.Properties.Value(pf.Name), pf) {
			return false
		}
	}
	for _, cf := range filter.List(b.cycle, "capabilities") {
		capability, ok := cand.Capabilities.Get(cf.Name)
		if !ok {
			capability = nil
			for _, c := range cand.Capabilities.All() {
				if b.registry.IsDerivedFrom(tosca.CapabilityTypes, c.Type, cf.Name) {
					capability = c
					break
				}
			}
		}
		if capability == nil {
			return false
		}
		for _, pf := range cf.List(b.cycle, "properties") {
			if !b.matchProperty(probe, capability.Properties.Value(pf.Name), pf) {
				return false
			}
		}
	}
	return true
}

func (b *Builder) matchProperty(probe *values.Coercer, prop *Property, pf *presentation.Presentation) bool {
	if prop == nil {
		return false
	}
	v := probe.Coerce(prop.Name, prop.def, prop.Raw)
	if v.IsNull() || !v.IsWhollyKnown() {
		return false
	}
	return probe.CheckAll(prop.Name, prop.Type, tosca.FilterClauses(b.cycle, pf), v, nil)
}
