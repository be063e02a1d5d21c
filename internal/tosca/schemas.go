// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file declares the field tables of every TOSCA construct.
//
// The tables are built once by newSchemas and exposed through Schemas. Nested
// fields refer to other schemas through the lazy ref helper, which lets the
// tables point at each other without package initialisation order mattering.
package tosca

import (
	p "github.com/specialistvlad/toscago/internal/presentation"
)

// SchemaSet holds every schema of the grammar.
type SchemaSet struct {
	ServiceTemplate *p.Schema
	Metadata        *p.Schema
	Repository      *p.Schema
	Import          *p.Schema

	ArtifactType     *p.Schema
	DataType         *p.Schema
	CapabilityType   *p.Schema
	InterfaceType    *p.Schema
	RelationshipType *p.Schema
	NodeType         *p.Schema
	GroupType        *p.Schema
	PolicyType       *p.Schema

	PropertyDefinition     *p.Schema
	AttributeDefinition    *p.Schema
	ParameterDefinition    *p.Schema
	EntrySchema            *p.Schema
	ConstraintClause       *p.Schema
	OperationDefinition    *p.Schema
	InterfaceDefinition    *p.Schema
	RequirementDefinition  *p.Schema
	RelationshipDefinition *p.Schema
	CapabilityDefinition   *p.Schema
	ArtifactDefinition     *p.Schema

	TopologyTemplate       *p.Schema
	NodeTemplate           *p.Schema
	RelationshipTemplate   *p.Schema
	PropertyAssignment     *p.Schema
	CapabilityAssignment   *p.Schema
	RequirementAssignment  *p.Schema
	RelationshipAssignment *p.Schema
	InterfaceAssignment    *p.Schema
	NodeFilter             *p.Schema
	PropertyFilter         *p.Schema
	CapabilityFilter       *p.Schema
	Group                  *p.Schema
	Policy                 *p.Schema
	SubstitutionMappings   *p.Schema
}

// Schemas is the TOSCA Simple Profile 1.0 grammar.
var Schemas *SchemaSet

func init() {
	Schemas = newSchemas()
}

func ref(s **p.Schema) func() *p.Schema {
	return func() *p.Schema { return *s }
}

func newSchemas() *SchemaSet {
	s := &SchemaSet{}

	str := func(name string) *p.Field { return p.PrimitiveField(name, p.String) }
	strs := func(name string) *p.Field { return p.ListField(name, p.String) }
	anyField := func(name string) *p.Field { return p.PrimitiveField(name, p.Any) }
	status := func() *p.Field {
		return str("status").OneOf("supported", "unsupported", "experimental", "deprecated")
	}
	occurrences := func() *p.Field {
		return p.ListField("occurrences", p.Any).WithCheck(checkOccurrences)
	}
	typeDerivation := func() []*p.Field {
		return []*p.Field{
			str("derived_from"),
			p.PrimitiveField("version", p.Version),
			str("description"),
		}
	}

	// Service template and document-level constructs.

	s.Metadata = p.NewSchema("metadata",
		str("template_name"),
		str("template_author"),
		str("template_version"),
	)
	s.Metadata.AllowUnknown = true

	s.Repository = p.NewSchema("repository",
		str("description"),
		str("url").Require(),
		anyField("credential"),
	).WithShortForm("url")

	s.Import = p.NewSchema("import",
		str("file").Require(),
		str("repository"),
		str("namespace_uri"),
		str("namespace_prefix"),
	).WithShortForm("file")
	s.Import.NamedEntries = true

	s.ServiceTemplate = p.NewSchema("service template",
		str("tosca_definitions_version").Require().OneOf(VersionSimpleYAML10, VersionNFV10),
		p.ObjectField("metadata", ref(&s.Metadata)),
		str("description"),
		anyField("dsl_definitions"),
		p.ObjectDictField("repositories", ref(&s.Repository)),
		p.ObjectListField("imports", ref(&s.Import)),
		p.ObjectDictField(string(ArtifactTypes), ref(&s.ArtifactType)),
		p.ObjectDictField(string(DataTypes), ref(&s.DataType)),
		p.ObjectDictField(string(CapabilityTypes), ref(&s.CapabilityType)),
		p.ObjectDictField(string(InterfaceTypes), ref(&s.InterfaceType)),
		p.ObjectDictField(string(RelationshipTypes), ref(&s.RelationshipType)),
		p.ObjectDictField(string(NodeTypes), ref(&s.NodeType)),
		p.ObjectDictField(string(GroupTypes), ref(&s.GroupType)),
		p.ObjectDictField(string(PolicyTypes), ref(&s.PolicyType)),
		p.ObjectField("topology_template", ref(&s.TopologyTemplate)),
	)

	// Definitions shared by types.

	s.ConstraintClause = p.NewSchema("constraint",
		anyField("equal"),
		anyField("greater_than"),
		anyField("greater_or_equal"),
		anyField("less_than"),
		anyField("less_or_equal"),
		anyField("in_range"),
		anyField("valid_values"),
		anyField("length"),
		anyField("min_length"),
		anyField("max_length"),
		str("pattern"),
	).WithCheck(checkConstraintClause)

	s.EntrySchema = p.NewSchema("entry schema",
		str("type").Require().WithCheck(checkDataTypeName),
		str("description"),
		p.ObjectListField("constraints", ref(&s.ConstraintClause)),
	).WithShortForm("type")

	s.PropertyDefinition = p.NewSchema("property definition",
		str("type").Require().WithCheck(checkDataTypeName),
		str("description"),
		p.PrimitiveField("required", p.Bool).WithDefault(true),
		anyField("default"),
		status(),
		p.ObjectListField("constraints", ref(&s.ConstraintClause)),
		p.ObjectField("entry_schema", ref(&s.EntrySchema)),
	)

	s.AttributeDefinition = p.NewSchema("attribute definition",
		str("type").Require().WithCheck(checkDataTypeName),
		str("description"),
		anyField("default"),
		status(),
		p.ObjectField("entry_schema", ref(&s.EntrySchema)),
	)

	s.ParameterDefinition = p.NewSchema("parameter",
		str("type").WithCheck(checkDataTypeName),
		str("description"),
		p.PrimitiveField("required", p.Bool).WithDefault(true),
		anyField("default"),
		status(),
		p.ObjectListField("constraints", ref(&s.ConstraintClause)),
		p.ObjectField("entry_schema", ref(&s.EntrySchema)),
		anyField("value"),
	)

	s.OperationDefinition = p.NewSchema("operation",
		str("description"),
		anyField("implementation"),
		p.DictField("inputs", p.Any),
	).WithShortForm("implementation")

	s.InterfaceDefinition = p.NewSchema("interface definition",
		str("type").WithCheck(checkTypeName(InterfaceTypes)),
		p.DictField("inputs", p.Any),
	).WithCheck(checkOperations)
	s.InterfaceDefinition.AllowUnknown = true

	s.RelationshipDefinition = p.NewSchema("relationship definition",
		str("type").Require().WithCheck(checkTypeName(RelationshipTypes)),
		p.ObjectDictField("interfaces", ref(&s.InterfaceDefinition)),
	).WithShortForm("type")

	s.RequirementDefinition = p.NewSchema("requirement definition",
		str("capability").Require().WithCheck(checkTypeName(CapabilityTypes)),
		str("node").WithCheck(checkTypeName(NodeTypes)),
		p.ObjectField("relationship", ref(&s.RelationshipDefinition)),
		occurrences(),
	).WithShortForm("capability")

	s.CapabilityDefinition = p.NewSchema("capability definition",
		str("type").Require().WithCheck(checkTypeName(CapabilityTypes)),
		str("description"),
		p.ObjectDictField("properties", ref(&s.PropertyDefinition)),
		p.ObjectDictField("attributes", ref(&s.AttributeDefinition)),
		strs("valid_source_types").WithCheck(checkTypeNames(NodeTypes)),
		occurrences(),
	).WithShortForm("type")

	s.ArtifactDefinition = p.NewSchema("artifact",
		str("type").WithCheck(checkTypeName(ArtifactTypes)),
		str("file").Require(),
		str("repository").WithCheck(checkRepositoryName),
		str("description"),
		str("deploy_path"),
	).WithShortForm("file")

	// Types.

	s.ArtifactType = p.NewSchema(ArtifactTypes.Singular(), typeDerivation()...).
		Add(str("mime_type")).
		Add(strs("file_ext")).
		Add(p.ObjectDictField("properties", ref(&s.PropertyDefinition)))

	s.DataType = p.NewSchema(DataTypes.Singular(), typeDerivation()...).
		Add(p.ObjectListField("constraints", ref(&s.ConstraintClause))).
		Add(p.ObjectDictField("properties", ref(&s.PropertyDefinition)))

	s.CapabilityType = p.NewSchema(CapabilityTypes.Singular(), typeDerivation()...).
		Add(p.ObjectDictField("properties", ref(&s.PropertyDefinition))).
		Add(p.ObjectDictField("attributes", ref(&s.AttributeDefinition))).
		Add(strs("valid_source_types").WithCheck(checkTypeNames(NodeTypes)))

	s.InterfaceType = p.NewSchema(InterfaceTypes.Singular(), typeDerivation()...).
		Add(p.ObjectDictField("inputs", ref(&s.PropertyDefinition))).
		WithCheck(checkOperations)
	s.InterfaceType.AllowUnknown = true

	s.RelationshipType = p.NewSchema(RelationshipTypes.Singular(), typeDerivation()...).
		Add(p.ObjectDictField("properties", ref(&s.PropertyDefinition))).
		Add(p.ObjectDictField("attributes", ref(&s.AttributeDefinition))).
		Add(p.ObjectDictField("interfaces", ref(&s.InterfaceDefinition))).
		Add(strs("valid_target_types").WithCheck(checkTypeNames(CapabilityTypes)))

	s.NodeType = p.NewSchema(NodeTypes.Singular(), typeDerivation()...).
		Add(p.ObjectDictField("properties", ref(&s.PropertyDefinition))).
		Add(p.ObjectDictField("attributes", ref(&s.AttributeDefinition))).
		Add(p.SequencedListField("requirements", ref(&s.RequirementDefinition))).
		Add(p.ObjectDictField("capabilities", ref(&s.CapabilityDefinition))).
		Add(p.ObjectDictField("interfaces", ref(&s.InterfaceDefinition))).
		Add(p.ObjectDictField("artifacts", ref(&s.ArtifactDefinition)))

	s.GroupType = p.NewSchema(GroupTypes.Singular(), typeDerivation()...).
		Add(p.ObjectDictField("properties", ref(&s.PropertyDefinition))).
		Add(strs("members").WithCheck(checkTypeNames(NodeTypes))).
		Add(p.ObjectDictField("interfaces", ref(&s.InterfaceDefinition)))

	s.PolicyType = p.NewSchema(PolicyTypes.Singular(), typeDerivation()...).
		Add(p.ObjectDictField("properties", ref(&s.PropertyDefinition))).
		Add(strs("targets"))

	// Templates.

	s.PropertyAssignment = p.AsIsSchema("property assignment")

	s.InterfaceAssignment = p.NewSchema("interface assignment",
		p.DictField("inputs", p.Any),
	).WithCheck(checkOperations)
	s.InterfaceAssignment.AllowUnknown = true

	s.CapabilityAssignment = p.NewSchema("capability assignment",
		p.ObjectDictField("properties", ref(&s.PropertyAssignment)),
		p.ObjectDictField("attributes", ref(&s.PropertyAssignment)),
	)

	s.RelationshipAssignment = p.NewSchema("relationship assignment",
		str("type").Require().WithCheck(checkRelationshipRef),
		p.ObjectDictField("properties", ref(&s.PropertyAssignment)),
		p.ObjectDictField("interfaces", ref(&s.InterfaceAssignment)),
	).WithShortForm("type")

	s.PropertyFilter = p.AsIsSchema("property filter").
		WithCheck(checkPropertyFilter)

	s.CapabilityFilter = p.NewSchema("capability filter",
		p.SequencedListField("properties", ref(&s.PropertyFilter)),
	)

	s.NodeFilter = p.NewSchema("node filter",
		p.SequencedListField("properties", ref(&s.PropertyFilter)),
		p.SequencedListField("capabilities", ref(&s.CapabilityFilter)),
	)

	s.RequirementAssignment = p.NewSchema("requirement assignment",
		str("capability"),
		str("node").WithCheck(checkNodeRef),
		p.ObjectField("relationship", ref(&s.RelationshipAssignment)),
		p.ObjectField("node_filter", ref(&s.NodeFilter)),
		occurrences(),
	).WithShortForm("node")

	s.NodeTemplate = p.NewSchema("node template",
		str("type").Require().WithCheck(checkTypeName(NodeTypes)),
		str("description"),
		strs("directives"),
		p.ObjectDictField("properties", ref(&s.PropertyAssignment)),
		p.ObjectDictField("attributes", ref(&s.PropertyAssignment)),
		p.SequencedListField("requirements", ref(&s.RequirementAssignment)),
		p.ObjectDictField("capabilities", ref(&s.CapabilityAssignment)),
		p.ObjectDictField("interfaces", ref(&s.InterfaceAssignment)),
		p.ObjectDictField("artifacts", ref(&s.ArtifactDefinition)),
		p.ObjectField("node_filter", ref(&s.NodeFilter)),
		str("copy"),
	)

	s.RelationshipTemplate = p.NewSchema("relationship template",
		str("type").Require().WithCheck(checkTypeName(RelationshipTypes)),
		str("description"),
		p.ObjectDictField("properties", ref(&s.PropertyAssignment)),
		p.ObjectDictField("attributes", ref(&s.PropertyAssignment)),
		p.ObjectDictField("interfaces", ref(&s.InterfaceAssignment)),
		str("copy"),
	)

	s.Group = p.NewSchema("group",
		str("type").Require().WithCheck(checkTypeName(GroupTypes)),
		str("description"),
		p.ObjectDictField("properties", ref(&s.PropertyAssignment)),
		strs("members").WithCheck(checkNodeTemplateNames),
		p.ObjectDictField("interfaces", ref(&s.InterfaceAssignment)),
	)

	s.Policy = p.NewSchema("policy",
		str("type").Require().WithCheck(checkTypeName(PolicyTypes)),
		str("description"),
		p.ObjectDictField("properties", ref(&s.PropertyAssignment)),
		strs("targets"),
	)

	s.SubstitutionMappings = p.NewSchema("substitution mappings",
		str("node_type").Require().WithCheck(checkTypeName(NodeTypes)),
		p.DictField("requirements", p.Any),
		p.DictField("capabilities", p.Any),
	)

	s.TopologyTemplate = p.NewSchema("topology template",
		str("description"),
		p.ObjectDictField("inputs", ref(&s.ParameterDefinition)),
		p.ObjectDictField("node_templates", ref(&s.NodeTemplate)),
		p.ObjectDictField("relationship_templates", ref(&s.RelationshipTemplate)),
		p.ObjectDictField("groups", ref(&s.Group)),
		p.SequencedListField("policies", ref(&s.Policy)),
		p.ObjectDictField("outputs", ref(&s.ParameterDefinition)),
		p.ObjectField("substitution_mappings", ref(&s.SubstitutionMappings)),
	)

	return s
}
