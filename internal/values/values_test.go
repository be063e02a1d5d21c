package values

import (
	"testing"

	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/reader"
	"github.com/specialistvlad/toscago/internal/tosca"
	"github.com/specialistvlad/toscago/internal/typeregistry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

const types = `tosca_definitions_version: tosca_simple_yaml_1_0
data_types:
  port:
    derived_from: integer
    constraints:
      - in_range: [1, 65535]
  endpoint:
    properties:
      host: {type: string}
      port: {type: port, default: 80}
      protocol: {type: string, required: false}
  limited:
    properties:
      size: {type: integer}
      memory: {type: scalar-unit.size}
      tags: {type: list, entry_schema: {type: string}}
      labels: {type: map, entry_schema: string}
      window: {type: range}
      since: {type: timestamp}
      release: {type: version}
      probes: {type: list, entry_schema: {type: endpoint}}
`

func newCoercer(t *testing.T) (*Coercer, *issue.Collector) {
	t.Helper()
	node, err := reader.Read("types.yaml", []byte(types))
	require.NoError(t, err)
	collector := issue.NewCollector()
	c := presentation.NewCycle(collector)
	root := presentation.New("", node, tosca.Schemas.ServiceTemplate, nil)
	return New(typeregistry.New(c, root)), collector
}

// value parses a YAML scalar or collection written inline.
func value(t *testing.T, src string) *raw.Node {
	t.Helper()
	node, err := reader.Read("value.yaml", []byte("v: "+src))
	require.NoError(t, err)
	return node.Get("v")
}

// clause builds a constraint clause presentation from inline YAML.
func clause(t *testing.T, src string) *presentation.Presentation {
	t.Helper()
	return presentation.New("", value(t, src), tosca.Schemas.ConstraintClause, nil)
}

func assertEqualValue(t *testing.T, want, got cty.Value) {
	t.Helper()
	assert.True(t, equal(want, got), "want %#v, got %#v", want, got)
}

func TestCoerce_Primitives(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		typ    string
		src    string
		want   cty.Value
		issues int
	}{
		{name: "string", typ: "string", src: "hello", want: cty.StringVal("hello")},
		{name: "quoted number string", typ: "string", src: `"8080"`, want: cty.StringVal("8080")},
		{name: "number as string", typ: "string", src: "8080", want: cty.NullVal(cty.String), issues: 1},
		{name: "integer", typ: "integer", src: "42", want: cty.NumberIntVal(42)},
		{name: "float as integer", typ: "integer", src: "4.2", want: cty.NullVal(cty.Number), issues: 1},
		{name: "float", typ: "float", src: "4.5", want: cty.NumberFloatVal(4.5)},
		{name: "integer as float", typ: "float", src: "4", want: cty.NumberIntVal(4)},
		{name: "boolean", typ: "boolean", src: "true", want: cty.True},
		{name: "timestamp", typ: "timestamp", src: "2001-12-14t21:59:43.10-05:00", want: cty.StringVal("2001-12-14t21:59:43.10-05:00")},
		{name: "date", typ: "timestamp", src: "2002-12-14", want: cty.StringVal("2002-12-14")},
		{name: "bad timestamp", typ: "timestamp", src: "yesterday", want: cty.NullVal(cty.String), issues: 1},
		{name: "version", typ: "version", src: "1.2.3-alpha", want: cty.StringVal("1.2.3-alpha")},
		{name: "bad version", typ: "version", src: "one", want: cty.NullVal(cty.String), issues: 1},
		{name: "range", typ: "range", src: "[1, 4]", want: cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(4)})},
		{name: "unbounded range", typ: "range", src: "[1, UNBOUNDED]", want: cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.PositiveInfinity})},
		{name: "inverted range", typ: "range", src: "[4, 1]", want: cty.NullVal(cty.List(cty.Number)), issues: 1},
		{name: "size", typ: "scalar-unit.size", src: "1 GiB", want: cty.NumberIntVal(1 << 30)},
		{name: "size lower case unit", typ: "scalar-unit.size", src: "2kb", want: cty.NumberIntVal(2000)},
		{name: "size in base unit", typ: "scalar-unit.size", src: "512", want: cty.NumberIntVal(512)},
		{name: "time", typ: "scalar-unit.time", src: "2 h", want: cty.NumberIntVal(7200)},
		{name: "frequency", typ: "scalar-unit.frequency", src: "1.5 GHz", want: cty.NumberFloatVal(1.5e9)},
		{name: "unknown unit", typ: "scalar-unit.size", src: "3 parsecs", want: cty.NullVal(cty.Number), issues: 1},
		{name: "size without a number", typ: "scalar-unit.size", src: "GB 12", want: cty.NullVal(cty.Number), issues: 1},
		{name: "untyped map", typ: "", src: "{a: 1}", want: cty.ObjectVal(map[string]cty.Value{"a": cty.NumberIntVal(1)})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Arrange ---
			co, collector := newCoercer(t)

			// --- Act ---
			got := co.Coerce("property \"p\"", &Definition{Type: tc.typ}, value(t, tc.src))

			// --- Assert ---
			assert.Equal(t, tc.issues, collector.Len(), "%v", collector.Issues())
			if tc.want.IsNull() {
				assert.True(t, got.IsNull())
				return
			}
			assertEqualValue(t, tc.want, got)
		})
	}
}

func TestConstraints(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		typ    string
		clause string
		src    string
		pass   bool
	}{
		{name: "less_than equal value fails", typ: "integer", clause: "{less_than: 5}", src: "5"},
		{name: "less_than smaller value passes", typ: "integer", clause: "{less_than: 5}", src: "4", pass: true},
		{name: "in_range lower bound passes", typ: "integer", clause: "{in_range: [1, 10]}", src: "1", pass: true},
		{name: "in_range upper bound passes", typ: "integer", clause: "{in_range: [1, 10]}", src: "10", pass: true},
		{name: "in_range above fails", typ: "integer", clause: "{in_range: [1, 10]}", src: "11"},
		{name: "in_range unbounded", typ: "integer", clause: "{in_range: [1, UNBOUNDED]}", src: "1000000", pass: true},
		{name: "equal", typ: "string", clause: "{equal: a}", src: "a", pass: true},
		{name: "greater_or_equal float", typ: "float", clause: "{greater_or_equal: 1.5}", src: "1.5", pass: true},
		{name: "greater_than scalar unit", typ: "scalar-unit.size", clause: "{greater_than: 1 GB}", src: "512 MB"},
		{name: "less_or_equal version", typ: "version", clause: "{less_or_equal: 1.10.0}", src: "1.9.0", pass: true},
		{name: "less_than timestamp", typ: "timestamp", clause: "{less_than: 2020-01-01}", src: "2019-06-01", pass: true},
		{name: "valid_values hit", typ: "string", clause: "{valid_values: [a, b]}", src: "b", pass: true},
		{name: "valid_values miss", typ: "string", clause: "{valid_values: [a, b]}", src: "c"},
		{name: "length string", typ: "string", clause: "{length: 3}", src: "abc", pass: true},
		{name: "min_length list", typ: "list", clause: "{min_length: 2}", src: "[1]"},
		{name: "max_length map", typ: "map", clause: "{max_length: 2}", src: "{a: 1, b: 2}", pass: true},
		{name: "pattern full match", typ: "string", clause: `{pattern: "[a-z]+"}`, src: "abc", pass: true},
		{name: "pattern partial match fails", typ: "string", clause: `{pattern: "[a-z]+"}`, src: "abc1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Arrange ---
			co, collector := newCoercer(t)
			def := &Definition{
				Type:        tc.typ,
				Constraints: []*presentation.Presentation{clause(t, tc.clause)},
			}

			// --- Act ---
			v := co.Coerce("property \"p\"", def, value(t, tc.src))

			// --- Assert ---
			assert.False(t, v.IsNull())
			if tc.pass {
				assert.Equal(t, 0, collector.Len(), "%v", collector.Issues())
				return
			}
			require.Equal(t, 1, collector.Len(), "each failing clause is one issue")
			assert.Equal(t, issue.ConstraintError, collector.Issues()[0].Kind)
		})
	}
}

func TestConstraints_MalformedClausesAreSkipped(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	co, collector := newCoercer(t)
	clauses := []*presentation.Presentation{
		clause(t, "{in_range: [1]}"),
		clause(t, `{pattern: "[unclosed"}`),
		clause(t, "{valid_values: a}"),
		clause(t, "{less_than: 5}"),
	}

	// --- Act ---
	ok := co.CheckAll(`property "port"`, "integer", clauses, cty.NumberIntVal(11), nil)

	// --- Assert ---
	assert.False(t, ok)
	require.Equal(t, 1, collector.Len(), "%v", collector.Issues())
	assert.Equal(t, `property "port": value 11 does not satisfy less_than 5`, collector.Issues()[0].Message)
}

func TestConstraints_MessageNamesValueAndClause(t *testing.T) {
	t.Parallel()
	co, collector := newCoercer(t)

	ok := co.CheckAll(`property "port"`, "integer", []*presentation.Presentation{
		clause(t, "{less_than: 5}"),
		clause(t, "{in_range: [1, 10]}"),
		clause(t, "{valid_values: [1, 2]}"),
	}, cty.NumberIntVal(11), nil)

	assert.False(t, ok)
	msgs := make([]string, 0, collector.Len())
	for _, i := range collector.Issues() {
		msgs = append(msgs, i.Message)
	}
	assert.Equal(t, []string{
		`property "port": value 11 does not satisfy less_than 5`,
		`property "port": value 11 does not satisfy in_range [1, 10]`,
		`property "port": value 11 does not satisfy valid_values [1, 2]`,
	}, msgs)
}

func TestCoerce_DataTypes(t *testing.T) {
	t.Parallel()

	t.Run("derived primitive keeps type constraints", func(t *testing.T) {
		t.Parallel()
		co, collector := newCoercer(t)
		assertEqualValue(t, cty.NumberIntVal(443), co.Coerce("p", &Definition{Type: "port"}, value(t, "443")))
		assert.Equal(t, 0, collector.Len())

		co.Coerce("p", &Definition{Type: "port"}, value(t, "70000"))
		assert.Equal(t, 1, collector.Count(issue.ConstraintError))
	})

	t.Run("complex type applies defaults", func(t *testing.T) {
		t.Parallel()
		co, collector := newCoercer(t)

		got := co.Coerce("p", &Definition{Type: "endpoint"}, value(t, "{host: example.org}"))

		assert.Equal(t, 0, collector.Len(), "%v", collector.Issues())
		assertEqualValue(t, cty.ObjectVal(map[string]cty.Value{
			"host":     cty.StringVal("example.org"),
			"port":     cty.NumberIntVal(80),
			"protocol": cty.NullVal(cty.String),
		}), got)
	})

	t.Run("complex type reports missing and unknown fields", func(t *testing.T) {
		t.Parallel()
		co, collector := newCoercer(t)

		co.Coerce("p", &Definition{Type: "endpoint"}, value(t, "{port: 0, extra: 1}"))

		var msgs []string
		for _, i := range collector.Issues() {
			msgs = append(msgs, i.Message)
		}
		assert.ElementsMatch(t, []string{
			`p: data type "endpoint" has no property "extra"`,
			`p.host is required but has no value`,
			`p.port: value 0 does not satisfy in_range [1, 65535]`,
		}, msgs)
	})

	t.Run("entry schema types every element", func(t *testing.T) {
		t.Parallel()
		co, collector := newCoercer(t)

		got := co.Coerce("p", &Definition{Type: "limited"}, value(t, `
  size: 3
  memory: 2 MiB
  tags: [a, 7]
  labels: {tier: web}
  window: [0, UNBOUNDED]
  since: 2024-01-02
  release: "2.0"
  probes: [{host: a}]
`))

		require.Equal(t, 1, collector.Len(), "%v", collector.Issues())
		assert.Equal(t, `p.tags[1]: expected string, found integer "7"`, collector.Issues()[0].Message)
		assertEqualValue(t, cty.NumberIntVal(2<<20), got.GetAttr("memory"))
		assertEqualValue(t, cty.StringVal("web"), got.GetAttr("labels").GetAttr("tier"))
		assertEqualValue(t, cty.NumberIntVal(80), got.GetAttr("probes").Index(cty.NumberIntVal(0)).GetAttr("port"))
	})
}

func TestCoerce_Functions(t *testing.T) {
	t.Parallel()
	co, collector := newCoercer(t)
	co.SetInput("port", cty.StringVal("8080"))

	got := co.Coerce("p", &Definition{Type: "integer"}, value(t, "{get_input: port}"))
	assertEqualValue(t, cty.NumberIntVal(8080), got)

	pending := co.Coerce("p", &Definition{Type: "string"}, value(t, "{get_attribute: [SELF, ip]}"))
	assert.False(t, pending.IsKnown())
	assert.Equal(t, cty.String, pending.Type())
	assert.Equal(t, 0, collector.Len())

	co.Coerce("p", &Definition{Type: "integer"}, value(t, "{get_input: nope}"))
	require.Equal(t, 1, collector.Len())
	assert.Equal(t, `p: unknown input "nope"`, collector.Issues()[0].Message)
}

func TestCoerce_RequiredAndDefault(t *testing.T) {
	t.Parallel()
	co, collector := newCoercer(t)

	got := co.Coerce("p", &Definition{Type: "integer", Default: value(t, "7")}, nil)
	assertEqualValue(t, cty.NumberIntVal(7), got)

	co.Coerce("q", &Definition{Type: "integer", Required: true}, nil)
	require.Equal(t, 1, collector.Len())
	assert.Equal(t, "q is required but has no value", collector.Issues()[0].Message)

	optional := co.Coerce("r", &Definition{Type: "integer"}, nil)
	assert.True(t, optional.IsNull())
	assert.Equal(t, 1, collector.Len())
}

func TestToYAML_ReadsBackIdentically(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		typ string
		src string
	}{
		{typ: "string", src: `"1.0"`},
		{typ: "string", src: "plain"},
		{typ: "float", src: "0.1"},
		{typ: "float", src: "1e-7"},
		{typ: "integer", src: "9007199254740993"},
		{typ: "scalar-unit.time", src: "10 ms"},
		{typ: "scalar-unit.size", src: "1.5 GB"},
		{typ: "range", src: "[2, UNBOUNDED]"},
		{typ: "version", src: "1.0"},
		{typ: "endpoint", src: "{host: h, port: 8443}"},
		{typ: "list", src: "[1, two, {three: 3.5}]"},
	}

	for _, tc := range testCases {
		t.Run(tc.typ+" "+tc.src, func(t *testing.T) {
			t.Parallel()
			// --- Arrange ---
			co, collector := newCoercer(t)
			def := &Definition{Type: tc.typ}
			original := co.Coerce("p", def, value(t, tc.src))

			// --- Act ---
			out, err := yaml.Marshal(map[string]*yaml.Node{"v": ToYAML(original)})
			require.NoError(t, err)
			node, err := reader.Read("dump.yaml", out)
			require.NoError(t, err)
			again := co.Coerce("p", def, node.Get("v"))

			// --- Assert ---
			assert.Equal(t, 0, collector.Len(), "%v\n%s", collector.Issues(), out)
			assertEqualValue(t, original, again)
		})
	}
}

func TestDisplay(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "5", Display(cty.NumberIntVal(5)))
	assert.Equal(t, "0.25", Display(cty.NumberFloatVal(0.25)))
	assert.Equal(t, `"x"`, Display(cty.StringVal("x")))
	assert.Equal(t, "null", Display(cty.NullVal(cty.String)))
	assert.Equal(t, "(known after deployment)", Display(cty.UnknownVal(cty.String)))
}
