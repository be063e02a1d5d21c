// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package tosca declares the TOSCA Simple Profile 1.0 grammar as presentation
// schemas, together with the small helpers every later stage uses to navigate
// a composed service template.
package tosca

import (
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
)

// Kind names a type section of a service template. The value is the section
// key, so a Kind can be used to read the section directly.
type Kind string

const (
	ArtifactTypes     Kind = "artifact_types"
	DataTypes         Kind = "data_types"
	CapabilityTypes   Kind = "capability_types"
	InterfaceTypes    Kind = "interface_types"
	RelationshipTypes Kind = "relationship_types"
	NodeTypes         Kind = "node_types"
	GroupTypes        Kind = "group_types"
	PolicyTypes       Kind = "policy_types"
)

// Kinds lists every type kind in section order.
var Kinds = []Kind{
	ArtifactTypes, DataTypes, CapabilityTypes, InterfaceTypes,
	RelationshipTypes, NodeTypes, GroupTypes, PolicyTypes,
}

// Singular returns the kind name used in diagnostics, e.g. "node type".
func (k Kind) Singular() string {
	switch k {
	case ArtifactTypes:
		return "artifact type"
	case DataTypes:
		return "data type"
	case CapabilityTypes:
		return "capability type"
	case InterfaceTypes:
		return "interface type"
	case RelationshipTypes:
		return "relationship type"
	case NodeTypes:
		return "node type"
	case GroupTypes:
		return "group type"
	case PolicyTypes:
		return "policy type"
	}
	return string(k)
}

// Version markers recognised by SelectPresenter.
const (
	VersionSimpleYAML10 = "tosca_simple_yaml_1_0"
	VersionNFV10        = "tosca_simple_profile_for_nfv_1_0"
)

// Primitive data types that need no data_types declaration.
const (
	TypeString        = "string"
	TypeInteger       = "integer"
	TypeFloat         = "float"
	TypeBoolean       = "boolean"
	TypeTimestamp     = "timestamp"
	TypeNull          = "null"
	TypeVersion       = "version"
	TypeRange         = "range"
	TypeList          = "list"
	TypeMap           = "map"
	TypeSizeUnit      = "scalar-unit.size"
	TypeTimeUnit      = "scalar-unit.time"
	TypeFrequencyUnit = "scalar-unit.frequency"
)

var primitiveTypes = map[string]bool{
	TypeString: true, TypeInteger: true, TypeFloat: true, TypeBoolean: true,
	TypeTimestamp: true, TypeNull: true, TypeVersion: true, TypeRange: true,
	TypeList: true, TypeMap: true,
	TypeSizeUnit: true, TypeTimeUnit: true, TypeFrequencyUnit: true,
}

// IsPrimitive reports whether name is a built-in data type.
func IsPrimitive(name string) bool {
	return primitiveTypes[name]
}

// Unbounded is the occurrences upper bound meaning "no limit".
const Unbounded = "UNBOUNDED"

// SelectPresenter picks the root schema for a raw document from its
// tosca_definitions_version marker.
func SelectPresenter(node *raw.Node) (*presentation.Schema, bool) {
	marker := node.Get("tosca_definitions_version")
	if !marker.IsScalar() {
		return nil, false
	}
	switch marker.Text {
	case VersionSimpleYAML10, VersionNFV10:
		return Schemas.ServiceTemplate, true
	}
	return nil, false
}

// Lookup returns the type presentation of the given kind, or nil.
func Lookup(c *presentation.Cycle, root *presentation.Presentation, kind Kind, name string) *presentation.Presentation {
	if name == "" {
		return nil
	}
	return root.Dict(c, string(kind)).Value(name)
}

// Topology returns the topology_template of a service template, or nil.
func Topology(c *presentation.Cycle, root *presentation.Presentation) *presentation.Presentation {
	return root.Object(c, "topology_template")
}

// NodeTemplate returns a node template by name, or nil.
func NodeTemplate(c *presentation.Cycle, root *presentation.Presentation, name string) *presentation.Presentation {
	return Topology(c, root).Dict(c, "node_templates").Value(name)
}

// RelationshipTemplate returns a relationship template by name, or nil.
func RelationshipTemplate(c *presentation.Cycle, root *presentation.Presentation, name string) *presentation.Presentation {
	return Topology(c, root).Dict(c, "relationship_templates").Value(name)
}
