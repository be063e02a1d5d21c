// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/values"
	"gopkg.in/yaml.v3"
)

// Dump renders the plan as an ordered YAML mapping. Maps follow source
// declaration order; empty sections are left out. A pending value is
// written as the expression it was assigned, so the dump reads back into
// the same plan.
func (p *Plan) Dump() *yaml.Node {
	doc := mapping()
	if p.Description != "" {
		add(doc, "description", str(p.Description))
	}
	if p.Inputs.Len() > 0 {
		add(doc, "inputs", dumpProperties(p.Inputs))
	}

	nodes := mapping()
	for _, n := range p.Nodes {
		add(nodes, n.ID.String(), dumpNode(n))
	}
	add(doc, "nodes", nodes)

	if len(p.Groups) > 0 {
		groups := mapping()
		for _, g := range p.Groups {
			m := mapping()
			add(m, "type", str(g.Type))
			add(m, "members", strs(g.Members))
			addProperties(m, "properties", g.Properties)
			add(groups, g.Name, m)
		}
		add(doc, "groups", groups)
	}
	if len(p.Policies) > 0 {
		policies := mapping()
		for _, pol := range p.Policies {
			m := mapping()
			add(m, "type", str(pol.Type))
			if len(pol.Targets) > 0 {
				add(m, "targets", strs(pol.Targets))
			}
			addProperties(m, "properties", pol.Properties)
			add(policies, pol.Name, m)
		}
		add(doc, "policies", policies)
	}
	if p.Outputs.Len() > 0 {
		add(doc, "outputs", dumpProperties(p.Outputs))
	}
	return doc
}

// MarshalYAML implements yaml.Marshaler.
func (p *Plan) MarshalYAML() (any, error) {
	return p.Dump(), nil
}

// MarshalJSON writes the dump as JSON, keeping its key order.
func (p *Plan) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, p.Dump()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes the nodes in dependency order, each followed by its
// requirements and what they are bound to.
func (p *Plan) WriteGraph(w io.Writer) error {
	order, err := p.Graph.TopologicalOrder()
	if err != nil {
		order = p.Graph.Nodes()
	}
	var sb strings.Builder
	for _, id := range order {
		n := p.byID[id]
		fmt.Fprintf(&sb, "%s (%s)\n", id, n.Type)
		for _, req := range n.Requirements {
			if !req.Bound() {
				fmt.Fprintf(&sb, "  %s -> (unsatisfied)\n", req.Name)
				continue
			}
			endpoint := req.Target.Child(req.TargetCapability)
			fmt.Fprintf(&sb, "  %s -> %s", req.Name, endpoint.String())
			if rel := req.Relationship; rel != nil && rel.Type != "" {
				fmt.Fprintf(&sb, " [%s]", rel.Type)
			}
			sb.WriteByte('\n')
		}
	}
	_, err = io.WriteString(w, sb.String())
	return err
}

func dumpNode(n *Node) *yaml.Node {
	m := mapping()
	add(m, "template", str(n.Template))
	add(m, "type", str(n.Type))
	addProperties(m, "properties", n.Properties)
	addProperties(m, "attributes", n.Attributes)

	if n.Capabilities.Len() > 0 {
		caps := mapping()
		for name, c := range n.Capabilities.All() {
			cm := mapping()
			add(cm, "type", str(c.Type))
			addProperties(cm, "properties", c.Properties)
			add(caps, name, cm)
		}
		add(m, "capabilities", caps)
	}

	if len(n.Requirements) > 0 {
		reqs := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, req := range n.Requirements {
			rm := mapping()
			if req.Bound() {
				add(rm, "node", str(req.Target.String()))
				add(rm, "capability", str(req.TargetCapability))
			} else {
				add(rm, "node", null())
			}
			if rel := req.Relationship; rel != nil {
				add(rm, "relationship", dumpRelationship(rel))
			}
			entry := mapping()
			add(entry, req.Name, rm)
			reqs.Content = append(reqs.Content, entry)
		}
		add(m, "requirements", reqs)
	}

	addInterfaces(m, n.Interfaces)
	if n.Artifacts.Len() > 0 {
		arts := mapping()
		for name, file := range n.Artifacts.All() {
			add(arts, name, str(file))
		}
		add(m, "artifacts", arts)
	}
	return m
}

func dumpRelationship(rel *Relationship) *yaml.Node {
	m := mapping()
	if rel.Type != "" {
		add(m, "type", str(rel.Type))
	}
	if rel.Template != "" {
		add(m, "template", str(rel.Template))
	}
	addProperties(m, "properties", rel.Properties)
	addInterfaces(m, rel.Interfaces)
	return m
}

func addInterfaces(m *yaml.Node, ifaces *presentation.Dict[*Interface]) {
	if ifaces.Len() == 0 {
		return
	}
	out := mapping()
	for name, iface := range ifaces.All() {
		im := mapping()
		if iface.Type != "" {
			add(im, "type", str(iface.Type))
		}
		ops := mapping()
		for op, impl := range iface.Operations.All() {
			if impl == "" {
				add(ops, op, null())
				continue
			}
			add(ops, op, str(impl))
		}
		add(im, "operations", ops)
		add(out, name, im)
	}
	add(m, "interfaces", out)
}

func addProperties(m *yaml.Node, key string, props *Properties) {
	if props.Len() > 0 {
		add(m, key, dumpProperties(props))
	}
}

func dumpProperties(props *Properties) *yaml.Node {
	m := mapping()
	for name, prop := range props.All() {
		add(m, name, dumpValue(prop))
	}
	return m
}

func dumpValue(prop *Property) *yaml.Node {
	if !prop.Pending() {
		return values.ToYAML(prop.Value)
	}
	expr := prop.Raw
	if expr.IsNull() && prop.def != nil {
		expr = prop.def.Default
	}
	return rawYAML(expr)
}

func rawYAML(n *raw.Node) *yaml.Node {
	switch {
	case n.IsNull():
		return null()
	case n.IsMap():
		m := mapping()
		for _, k := range n.Keys() {
			add(m, k, rawYAML(n.Get(k)))
		}
		return m
	case n.IsList():
		s := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range n.Items() {
			s.Content = append(s.Content, rawYAML(item))
		}
		return s
	}
	var out yaml.Node
	if err := out.Encode(n.Value); err != nil {
		return str(n.Text)
	}
	return &out
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func str(s string) *yaml.Node {
	n := &yaml.Node{}
	if err := n.Encode(s); err != nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	}
	return n
}

func strs(items []string) *yaml.Node {
	s := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, item := range items {
		s.Content = append(s.Content, str(item))
	}
	return s
}

func null() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func add(m *yaml.Node, key string, v *yaml.Node) {
	m.Content = append(m.Content, str(key), v)
}

// writeJSON encodes a YAML node tree as JSON without losing mapping order.
func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, n.Content[0])

	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("encode %q as json: %w", n.Value, err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %q as json: %w", n.Value, err)
		}
		buf.Write(b)
		return nil

	case yaml.AliasNode:
		return writeJSON(buf, n.Alias)
	}
	return fmt.Errorf("encode json: unexpected yaml node kind %d", n.Kind)
}
