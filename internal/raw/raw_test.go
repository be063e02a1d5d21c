package raw

import (
	"testing"

	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(loc string, line int) issue.Position {
	return issue.Position{Location: loc, Line: line, Column: 1}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("parent keys win and import-only keys are appended", func(t *testing.T) {
		t.Parallel()
		parent := NewMap(pos("main", 1))
		parentTypes := NewMap(pos("main", 2))
		parentTypes.Set("A", NewScalar("parent", pos("main", 3)))
		parent.Set("node_types", parentTypes)
		parent.Set("description", NewScalar("main", pos("main", 4)))

		imported := NewMap(pos("lib", 1))
		importedTypes := NewMap(pos("lib", 2))
		importedTypes.Set("A", NewScalar("import", pos("lib", 3)))
		importedTypes.Set("B", NewScalar("import", pos("lib", 4)))
		imported.Set("node_types", importedTypes)
		imported.Set("description", NewScalar("lib", pos("lib", 5)))
		imported.Set("data_types", NewMap(pos("lib", 6)))

		Merge(parent, imported)

		assert.Equal(t, []string{"node_types", "description", "data_types"}, parent.Keys())
		assert.Equal(t, "main", parent.Get("description").Value)
		types := parent.Get("node_types")
		assert.Equal(t, []string{"A", "B"}, types.Keys())
		assert.Equal(t, "parent", types.Get("A").Value)
		assert.Equal(t, "main", types.Get("A").Pos.Location, "parent position must survive the merge")
		assert.Equal(t, "lib", types.Get("B").Pos.Location, "import-only entries keep their own position")
	})

	t.Run("non-map sides are left untouched", func(t *testing.T) {
		t.Parallel()
		dst := NewList(pos("main", 1))
		src := NewMap(pos("lib", 1))
		src.Set("x", NewScalar("y", pos("lib", 2)))
		Merge(dst, src)
		assert.Equal(t, 0, dst.Len())
	})
}

func TestMerge_DoesNotShareImportedNodes(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	shared := NewMap(pos("shared", 1))
	sharedTypes := NewMap(pos("shared", 2))
	sharedTypes.Set("Shared", NewScalar("shared", pos("shared", 3)))
	shared.Set("node_types", sharedTypes)

	left := NewMap(pos("left", 1))
	Merge(left, shared)
	right := NewMap(pos("right", 1))
	rightTypes := NewMap(pos("right", 2))
	rightTypes.Set("Right", NewScalar("right", pos("right", 3)))
	right.Set("node_types", rightTypes)

	// --- Act ---
	Merge(left, right)

	// --- Assert ---
	assert.Equal(t, []string{"Shared", "Right"}, left.Get("node_types").Keys())
	assert.Equal(t, []string{"Shared"}, shared.Get("node_types").Keys(), "merging into an importer must not reach back into the import")
}

func TestPlainRoundTrip(t *testing.T) {
	t.Parallel()
	in := map[string]any{
		"b": []any{int64(1), "two", true},
		"a": map[string]any{"nested": 1.5},
		"c": nil,
	}
	n := FromPlain(in, pos("inputs", 0))
	require.True(t, n.IsMap())
	assert.Equal(t, []string{"a", "b", "c"}, n.Keys())
	assert.True(t, n.Get("c").IsNull())
	assert.Equal(t, "1.5", n.Get("a").Get("nested").Text)
	assert.Equal(t, in, n.Plain())
}
