package typeregistry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/reader"
	"github.com/specialistvlad/toscago/internal/tosca"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, src string) (*Registry, *issue.Collector) {
	t.Helper()
	node, err := reader.Read("types.yaml", []byte("tosca_definitions_version: tosca_simple_yaml_1_0\n"+src))
	require.NoError(t, err)
	collector := issue.NewCollector()
	c := presentation.NewCycle(collector)
	root := presentation.New("", node, tosca.Schemas.ServiceTemplate, nil)
	return New(c, root), collector
}

func descriptions(c *presentation.Cycle, d *presentation.Dict[*presentation.Presentation]) map[string]string {
	out := make(map[string]string, d.Len())
	for name, p := range d.All() {
		out[name] = p.String(c, "description")
	}
	return out
}

const chain = `
node_types:
  root:
    properties:
      id: {type: string, description: root id}
      shared: {type: string, description: root shared}
    requirements:
      - dependency: {capability: feature, occurrences: [0, UNBOUNDED]}
  middle:
    derived_from: root
    properties:
      shared: {type: string, description: middle shared}
      size: {type: integer, description: middle size}
    requirements:
      - host: {capability: host}
  leaf:
    derived_from: middle
    properties:
      size: {type: integer, description: leaf size}
      extra: {type: string, description: leaf extra}
    requirements:
      - dependency: {capability: special}
`

func TestResolve_MergeLaw(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	r, collector := newRegistry(t, chain)
	c := r.Cycle()

	// --- Act ---
	leaf := r.Resolve(tosca.NodeTypes, "leaf", "properties")
	middle := r.Resolve(tosca.NodeTypes, "middle", "properties")
	own := r.Lookup(tosca.NodeTypes, "leaf").Dict(c, "properties")

	// --- Assert ---
	assert.Equal(t, []string{"id", "shared", "size", "extra"}, leaf.Keys(), "ancestor entries come first")

	want := descriptions(c, middle)
	for name, desc := range descriptions(c, own) {
		want[name] = desc
	}
	if diff := cmp.Diff(want, descriptions(c, leaf)); diff != "" {
		t.Errorf("merged(leaf) != merge(own(leaf), merged(middle)) (-want +got):\n%s", diff)
	}
	assert.Equal(t, "leaf size", leaf.Value("size").String(c, "description"))
	assert.Equal(t, "middle shared", leaf.Value("shared").String(c, "description"))
	assert.Equal(t, 0, collector.Len())
}

func TestResolveDefault(t *testing.T) {
	t.Parallel()
	r, _ := newRegistry(t, `
node_types:
  base:
    properties:
      port: {type: integer, default: 80}
  child:
    derived_from: base
    properties:
      port: {type: integer, description: no default here}
`)
	def := r.ResolveDefault(tosca.NodeTypes, "child", "properties", "port")
	require.NotNil(t, def)
	assert.Equal(t, int64(80), def.Value)
	assert.Nil(t, r.ResolveDefault(tosca.NodeTypes, "child", "properties", "missing"))
}

func TestResolve_SequencedRequirements(t *testing.T) {
	t.Parallel()
	r, _ := newRegistry(t, chain)
	c := r.Cycle()

	reqs := r.Resolve(tosca.NodeTypes, "leaf", "requirements")
	assert.Equal(t, []string{"dependency", "host"}, reqs.Keys())
	assert.Equal(t, "special", reqs.Value("dependency").String(c, "capability"))
}

func TestResolve_CacheStability(t *testing.T) {
	t.Parallel()
	r, _ := newRegistry(t, chain)

	first := r.Resolve(tosca.NodeTypes, "leaf", "properties")
	second := r.Resolve(tosca.NodeTypes, "leaf", "properties")
	assert.Same(t, first, second)
	assert.Equal(t, r.Hierarchy(tosca.NodeTypes, "leaf"), r.Hierarchy(tosca.NodeTypes, "leaf"))
}

func TestHierarchy_Cycle(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	r, collector := newRegistry(t, `
node_types:
  a:
    derived_from: b
    properties:
      pa: {type: string}
  b:
    derived_from: a
    properties:
      pb: {type: string}
  c:
    derived_from: a
    properties:
      pc: {type: string}
  self:
    derived_from: self
`)

	// --- Act ---
	r.Validate()
	props := r.Resolve(tosca.NodeTypes, "c", "properties")
	r.Validate()

	// --- Assert ---
	assert.Equal(t, 2, collector.Count(issue.TypeResolutionError), "%v", collector.Issues())
	var messages []string
	for _, i := range collector.Issues() {
		messages = append(messages, i.Message)
	}
	assert.ElementsMatch(t, []string{
		"derived_from cycle among node types: a, b",
		"derived_from cycle among node types: self",
	}, messages)
	assert.ElementsMatch(t, []string{"pa", "pb", "pc"}, props.Keys(), "fields collected before the break are kept")
}

func TestHierarchy_MissingParent(t *testing.T) {
	t.Parallel()
	r, collector := newRegistry(t, `
node_types:
  orphan:
    derived_from: ghost
  child:
    derived_from: orphan
data_types:
  port:
    derived_from: integer
    constraints:
      - in_range: [1, 65535]
  endpoint:
    properties:
      port: {type: port}
`)

	r.Validate()
	r.Hierarchy(tosca.NodeTypes, "child")

	require.Equal(t, 1, collector.Len())
	i := collector.Issues()[0]
	assert.Equal(t, issue.TypeResolutionError, i.Kind)
	assert.Equal(t, `node type "orphan" derives from unknown node type "ghost"`, i.Message)
	require.NotNil(t, i.Position)
	assert.Equal(t, "types.yaml", i.Position.Location)

	assert.Len(t, r.Hierarchy(tosca.NodeTypes, "child"), 2)
	assert.Nil(t, r.Hierarchy(tosca.NodeTypes, "nowhere"))
	assert.True(t, r.IsDerivedFrom(tosca.NodeTypes, "child", "orphan"))
	assert.False(t, r.IsDerivedFrom(tosca.NodeTypes, "orphan", "child"))

	assert.Equal(t, "integer", r.PrimitiveBase("port"))
	assert.Equal(t, "", r.PrimitiveBase("endpoint"))
	assert.Equal(t, "string", r.PrimitiveBase("string"))
	assert.Len(t, r.ResolveConstraints("port"), 1)
}
