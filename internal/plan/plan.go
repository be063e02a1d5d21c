// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package plan turns a composed, validated service template into a
// deployment plan.
//
// A Builder runs the plan stages in a fixed order: Validate, Instantiate,
// SatisfyRequirements, CoerceValues and ValidateCapabilities. Every stage
// reports problems to the cycle and keeps going, so later stages still get
// to look at whatever the earlier ones produced. The plan is complete when no
// Error or Fatal issue was reported.
package plan

import (
	"strings"

	"github.com/specialistvlad/toscago/internal/dag"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/nodeid"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/tosca"
	"github.com/specialistvlad/toscago/internal/values"
	"github.com/zclconf/go-cty/cty"
)

// Property is a typed value of a node, capability, relationship, group,
// policy, input or output. Until CoerceValues has run, Value is unknown.
type Property struct {
	Name  string
	Type  string
	Value cty.Value
	// Raw is the assigned expression, nil when nothing was assigned.
	Raw *raw.Node

	def *values.Definition
}

// Pending reports whether the value is only known at deployment time.
func (p *Property) Pending() bool {
	return !p.Value.IsWhollyKnown()
}

func newProperty(name string, def *values.Definition, assigned *raw.Node) *Property {
	if def == nil {
		def = &values.Definition{}
	}
	return &Property{
		Name:  name,
		Type:  def.Type,
		Value: cty.DynamicVal,
		Raw:   assigned,
		def:   def,
	}
}

// Properties is an ordered set of properties.
type Properties = presentation.Dict[*Property]

// Capability is an instantiated capability of a plan node.
type Capability struct {
	Name        string
	Type        string
	Properties  *Properties
	Occurrences tosca.Occurrences
	// Remaining counts how many more relationships may target the
	// capability. A negative value means no limit.
	Remaining        int
	ValidSourceTypes []string
}

// Interface lists the operations of one interface, mapped to their primary
// implementation artifact.
type Interface struct {
	Type       string
	Operations *presentation.Dict[string]
}

// Requirement is a requirement of a plan node, bound to a target once
// SatisfyRequirements found one.
type Requirement struct {
	Name string
	// Capability is the requested capability type or capability name.
	Capability string
	// Node is the requested node template or node type, or empty.
	Node     string
	Filter   *presentation.Presentation
	Required bool

	Target           *nodeid.Address
	TargetCapability string
	Relationship     *Relationship

	capabilityType   string
	relationshipType string
	pos              *issue.Position
}

// Bound reports whether the requirement has a target.
func (r *Requirement) Bound() bool {
	return r.Target != nil
}

// Relationship connects a requirement of a source node to a capability of a
// target node. It is created unbound for requirements that declare an inline
// relationship and bound by SatisfyRequirements.
type Relationship struct {
	Type string
	// Template names the relationship template the relationship was
	// created from, if any.
	Template         string
	Source           nodeid.Address
	Requirement      string
	Target           *nodeid.Address
	TargetCapability string
	Properties       *Properties
	Interfaces       *presentation.Dict[*Interface]

	requirement *Requirement
}

// Node is one instance of a node template.
type Node struct {
	ID           nodeid.Address
	Template     string
	Type         string
	Properties   *Properties
	Attributes   *Properties
	Capabilities *presentation.Dict[*Capability]
	Requirements []*Requirement
	Interfaces   *presentation.Dict[*Interface]
	Artifacts    *presentation.Dict[string]
}

// Group is an instantiated group; Members are plan node IDs.
type Group struct {
	Name       string
	Type       string
	Members    []string
	Properties *Properties
}

// Policy is an instantiated policy. Targets name node templates or groups.
type Policy struct {
	Name       string
	Type       string
	Targets    []string
	Properties *Properties
}

// Plan is a deployment plan.
type Plan struct {
	Description   string
	Inputs        *Properties
	Nodes         []*Node
	Relationships []*Relationship
	Groups        []*Group
	Policies      []*Policy
	Outputs       *Properties
	// Graph has one vertex per node and an edge from every bound
	// requirement's target to its source.
	Graph *dag.Graph

	byID map[string]*Node
}

// New returns an empty plan.
func New() *Plan {
	p := &Plan{
		Inputs:  presentation.NewDict[*Property](),
		Outputs: presentation.NewDict[*Property](),
		byID:    make(map[string]*Node),
	}
	p.Graph = dag.New(dag.WithOrder(compareIDs))
	return p
}

func (p *Plan) add(n *Node) {
	id := n.ID.String()
	p.Nodes = append(p.Nodes, n)
	p.byID[id] = n
	p.Graph.AddNode(id)
}

// Node returns a plan node by ID, or nil.
func (p *Plan) Node(id string) *Node {
	return p.byID[id]
}

// NodesOf returns the instances of a node template in index order.
func (p *Plan) NodesOf(template string) []*Node {
	var out []*Node
	for _, n := range p.Nodes {
		if n.ID.Base() == template {
			out = append(out, n)
		}
	}
	return out
}

// Sorted returns the nodes ordered by ID, template names lexicographically
// and instances by index.
func (p *Plan) Sorted() []*Node {
	out := make([]*Node, len(p.Nodes))
	copy(out, p.Nodes)
	sortNodes(out)
	return out
}

// compareIDs orders graph node IDs by their parsed addresses, so web[2]
// sorts before web[10]. IDs that do not parse compare as strings.
func compareIDs(a, b string) int {
	pa, errA := nodeid.Parse(a)
	pb, errB := nodeid.Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return nodeid.Compare(*pa, *pb)
}
