package parser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/issue/issuetest"
	"github.com/specialistvlad/toscago/internal/loader"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/reader"
	"github.com/specialistvlad/toscago/internal/tosca"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "tosca_definitions_version: tosca_simple_yaml_1_0\n"

func parse(t *testing.T, docs map[string]string, opts ...Option) (*Result, *presentation.Cycle, *issue.Collector, error) {
	t.Helper()
	collector := issue.NewCollector()
	c := presentation.NewCycle(collector)
	res, err := New(loader.NewSource(docs), opts...).Parse(context.Background(), c, "main.yaml")
	return res, c, collector, err
}

func TestParse_MergesImports(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	docs := map[string]string{
		"main.yaml": header + `
description: main
imports:
  - lib/types.yaml
node_types:
  my.App:
    description: from main
`,
		"lib/types.yaml": header + `
description: lib
imports:
  - base.yaml
node_types:
  my.App:
    description: from lib
  my.Lib: {}
`,
		"lib/base.yaml": header + `
node_types:
  my.Base: {}
data_types:
  my.Data: {}
`,
	}

	// --- Act ---
	res, c, collector, err := parse(t, docs)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 0, collector.Len(), "%v", collector.Issues())
	assert.ElementsMatch(t, []string{"main.yaml", "lib/types.yaml", "lib/base.yaml"}, res.Documents)
	assert.Equal(t, "main.yaml", res.Documents[0])

	root := res.Root
	assert.Equal(t, "main", root.String(c, "description"))
	nodeTypes := root.Dict(c, string(tosca.NodeTypes))
	assert.Equal(t, []string{"my.App", "my.Lib", "my.Base"}, nodeTypes.Keys())
	assert.Equal(t, "from main", nodeTypes.Value("my.App").String(c, "description"))
	assert.Equal(t, "lib/base.yaml", nodeTypes.Value("my.Base").Pos().Location, "imported entries keep their positions")
	assert.NotNil(t, tosca.Lookup(c, root, tosca.DataTypes, "my.Data"))
	assert.Same(t, root, nodeTypes.Value("my.Base").Root(), "linking sets containers on merged entries")
}

func TestParse_InvalidSiblingImports(t *testing.T) {
	t.Parallel()
	docs := map[string]string{
		"main.yaml": header + `
description: still here
imports:
  - missing.yaml
  - broken.yaml
  - unversioned.yaml
node_types:
  my.Own: {}
`,
		"broken.yaml":      "node_types: [unclosed\n",
		"unversioned.yaml": "node_types: {}\n",
	}

	res, c, collector, err := parse(t, docs, WithWorkers(3))

	require.NoError(t, err)
	issues := collector.Issues()
	require.Len(t, issues, 3, issuetest.Sdump(issues))
	require.Len(t, issuetest.Fatal(issues), 3)
	issuetest.AssertIssue(t, issues, issue.LoadError, `cannot load import "missing.yaml"`)
	issuetest.AssertIssue(t, issues, issue.ReadError, `cannot read import "broken.yaml"`)
	issuetest.AssertIssue(t, issues, issue.PresentationError, `unsupported import "unversioned.yaml"`)

	assert.Equal(t, "still here", res.Root.String(c, "description"))
	assert.True(t, res.Root.Dict(c, string(tosca.NodeTypes)).Has("my.Own"))
	assert.Equal(t, []string{"main.yaml"}, res.Documents)
}

func TestParse_ImportCycle(t *testing.T) {
	t.Parallel()
	docs := map[string]string{
		"main.yaml": header + "imports: [a.yaml]\n",
		"a.yaml":    header + "imports: [b.yaml]\nnode_types: {A: {}}\n",
		"b.yaml":    header + "imports: [a.yaml]\nnode_types: {B: {}}\n",
	}

	res, c, collector, err := parse(t, docs)

	require.NoError(t, err)
	require.Equal(t, 1, collector.Len(), issuetest.Sdump(collector.Issues()))
	issuetest.AssertIssue(t, collector.Issues(), issue.LoadError, `b.yaml: import cycle through "a.yaml"`)
	assert.Equal(t, []string{"A", "B"}, res.Root.Dict(c, string(tosca.NodeTypes)).Keys())
}

func TestParse_IdenticalDocumentsKeepTheirOwnImports(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	common := header + "imports: [local.yaml]\n"
	docs := map[string]string{
		"main.yaml":     header + "imports: [a/common.yaml, b/common.yaml]\n",
		"a/common.yaml": common,
		"b/common.yaml": common,
		"a/local.yaml":  header + "node_types: {my.A: {}}\n",
		"b/local.yaml":  header + "node_types: {my.B: {}}\n",
	}

	// --- Act ---
	res, c, collector, err := parse(t, docs, WithWorkers(4))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 0, collector.Len(), issuetest.Sdump(collector.Issues()))
	assert.Equal(t, []string{"main.yaml", "a/common.yaml", "a/local.yaml", "b/common.yaml", "b/local.yaml"}, res.Documents)
	assert.Equal(t, []string{"my.A", "my.B"}, res.Root.Dict(c, string(tosca.NodeTypes)).Keys())
	assert.Equal(t, res.Digests["a/common.yaml"], res.Digests["b/common.yaml"], "identical contents share a digest")
	assert.NotEqual(t, res.Digests["a/local.yaml"], res.Digests["b/local.yaml"])
}

func TestParse_DiamondImportsMergeInDeclarationOrder(t *testing.T) {
	t.Parallel()
	docs := map[string]string{
		"main.yaml": header + "imports: [b.yaml, c.yaml]\n",
		"b.yaml":    header + "imports: [d.yaml]\n",
		"c.yaml":    header + "imports: [d.yaml]\nnode_types:\n  my.X: {description: from c}\n",
		"d.yaml":    header + "node_types:\n  my.X: {description: from d}\n  my.D: {}\n",
	}

	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			t.Parallel()
			for range 20 {
				// --- Act ---
				res, c, collector, err := parse(t, docs, WithWorkers(workers))

				// --- Assert ---
				require.NoError(t, err)
				require.Equal(t, 0, collector.Len(), issuetest.Sdump(collector.Issues()))
				assert.Equal(t, []string{"main.yaml", "b.yaml", "d.yaml", "c.yaml"}, res.Documents)
				nodeTypes := res.Root.Dict(c, string(tosca.NodeTypes))
				assert.Equal(t, []string{"my.X", "my.D"}, nodeTypes.Keys())
				assert.Equal(t, "from d", nodeTypes.Value("my.X").String(c, "description"),
					"b comes first and carries d's definition")
			}
		})
	}
}

func TestParse_CycleReportIsStable(t *testing.T) {
	t.Parallel()
	docs := map[string]string{
		"main.yaml": header + "imports: [a.yaml, b.yaml]\n",
		"a.yaml":    header + "imports: [b.yaml]\n",
		"b.yaml":    header + "imports: [a.yaml]\n",
	}

	for _, workers := range []int{1, 8} {
		for range 20 {
			_, _, collector, err := parse(t, docs, WithWorkers(workers))

			require.NoError(t, err)
			require.Equal(t, 1, collector.Len(), issuetest.Sdump(collector.Issues()))
			issuetest.AssertIssue(t, collector.Issues(), issue.LoadError, `b.yaml: import cycle through "a.yaml"`)
		}
	}
}

func TestParse_SharedFailureReportedOnce(t *testing.T) {
	t.Parallel()
	docs := map[string]string{
		"main.yaml":   header + "imports: [a.yaml, b.yaml]\n",
		"a.yaml":      header + "imports: [broken.yaml]\n",
		"b.yaml":      header + "imports: [broken.yaml]\n",
		"broken.yaml": "node_types: [unclosed\n",
	}

	_, _, collector, err := parse(t, docs, WithWorkers(4))

	require.NoError(t, err)
	require.Equal(t, 1, collector.Len(), issuetest.Sdump(collector.Issues()))
	issuetest.AssertIssue(t, collector.Issues(), issue.ReadError, `cannot read import "broken.yaml"`)
}

func TestParse_RootFailures(t *testing.T) {
	t.Parallel()

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()
		_, _, _, err := parse(t, map[string]string{})
		var loadErr *loader.Error
		assert.True(t, errors.As(err, &loadErr), "got %v", err)
	})

	t.Run("malformed root", func(t *testing.T) {
		t.Parallel()
		_, _, _, err := parse(t, map[string]string{"main.yaml": "a: [\n"})
		var readErr *reader.Error
		assert.True(t, errors.As(err, &readErr), "got %v", err)
	})

	t.Run("unsupported root", func(t *testing.T) {
		t.Parallel()
		_, _, _, err := parse(t, map[string]string{"main.yaml": "tosca_definitions_version: other\n"})
		assert.ErrorIs(t, err, ErrNoPresenter)
	})

	t.Run("fixed schema skips selection", func(t *testing.T) {
		t.Parallel()
		res, _, _, err := parse(t, map[string]string{"main.yaml": "description: x\n"}, WithSchema(tosca.Schemas.ServiceTemplate))
		require.NoError(t, err)
		assert.Same(t, tosca.Schemas.ServiceTemplate, res.Root.Schema)
	})
}
