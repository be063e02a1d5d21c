package reader

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("scalars are typed and positions recorded", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		src := "tosca_definitions_version: tosca_simple_yaml_1_0\n" +
			"node_types:\n" +
			"  my.Server:\n" +
			"    version: 1.0\n" +
			"    count: 3\n" +
			"    enabled: true\n" +
			"    nothing: ~\n"

		// --- Act ---
		n, err := Read("main.yaml", []byte(src))

		// --- Assert ---
		require.NoError(t, err)
		require.True(t, n.IsMap())
		assert.Equal(t, []string{"tosca_definitions_version", "node_types"}, n.Keys())

		server := n.Get("node_types").Get("my.Server")
		require.NotNil(t, server)
		assert.Equal(t, 3, server.Pos.Line, "map values are positioned at their key")
		assert.Equal(t, 1.0, server.Get("version").Value)
		assert.Equal(t, "1.0", server.Get("version").Text, "source spelling is kept")
		assert.Equal(t, int64(3), server.Get("count").Value)
		assert.Equal(t, true, server.Get("enabled").Value)
		assert.True(t, server.Get("nothing").IsNull())
		assert.Equal(t, "main.yaml", server.Get("count").Pos.Location)
		assert.Equal(t, 5, server.Get("count").Pos.Line)
	})

	t.Run("empty document is an empty map", func(t *testing.T) {
		t.Parallel()
		n, err := Read("empty.yaml", nil)
		require.NoError(t, err)
		assert.True(t, n.IsMap())
		assert.Equal(t, 0, n.Len())
	})

	t.Run("merge keys do not override explicit keys", func(t *testing.T) {
		t.Parallel()
		src := "base: &base\n  a: 1\n  b: 2\nderived:\n  <<: *base\n  b: 3\n"
		n, err := Read("merge.yaml", []byte(src))
		require.NoError(t, err)
		derived := n.Get("derived")
		assert.Equal(t, []string{"b", "a"}, derived.Keys())
		assert.Equal(t, int64(3), derived.Get("b").Value)
		assert.Equal(t, int64(1), derived.Get("a").Value)
	})

	t.Run("malformed input carries location and snippet", func(t *testing.T) {
		t.Parallel()
		src := "a: 1\n  b: 2\n"
		_, err := Read("bad.yaml", []byte(src))
		require.Error(t, err)

		var readErr *Error
		require.True(t, errors.As(err, &readErr))
		assert.Equal(t, "bad.yaml", readErr.Location)
		assert.Equal(t, 2, readErr.Line)
		assert.Equal(t, "  b: 2", readErr.Snippet)
	})

	t.Run("duplicate keys are rejected", func(t *testing.T) {
		t.Parallel()
		_, err := Read("dup.yaml", []byte("a: 1\na: 2\n"))
		var readErr *Error
		require.True(t, errors.As(err, &readErr))
		assert.Equal(t, 2, readErr.Line)
		assert.Equal(t, "a: 2", readErr.Snippet)
	})

	t.Run("nested aliases stop at the node budget", func(t *testing.T) {
		t.Parallel()
		// --- Arrange ---
		var sb strings.Builder
		sb.WriteString("l0: &l0 [x, x, x, x, x, x, x, x, x, x]\n")
		for i := 1; i < 10; i++ {
			ref := fmt.Sprintf("*l%d", i-1)
			fmt.Fprintf(&sb, "l%d: &l%d [%s]\n", i, i, strings.TrimSuffix(strings.Repeat(ref+", ", 10), ", "))
		}

		// --- Act ---
		_, err := Read("laughs.yaml", []byte(sb.String()))

		// --- Assert ---
		require.ErrorIs(t, err, ErrExpansion)
		var readErr *Error
		require.True(t, errors.As(err, &readErr))
		assert.Equal(t, "laughs.yaml", readErr.Location)
		assert.Positive(t, readErr.Line)
	})

	t.Run("modest aliasing stays within the budget", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		sb.WriteString("l0: &l0 [x, x, x, x, x, x, x, x, x, x]\n")
		for i := 1; i < 4; i++ {
			ref := fmt.Sprintf("*l%d", i-1)
			fmt.Fprintf(&sb, "l%d: &l%d [%s]\n", i, i, strings.TrimSuffix(strings.Repeat(ref+", ", 10), ", "))
		}

		n, err := Read("aliases.yaml", []byte(sb.String()))

		require.NoError(t, err)
		assert.Equal(t, 10, n.Get("l3").Len())
		assert.Equal(t, "x", n.Get("l3").Items()[9].Items()[9].Items()[9].Items()[9].Value)
	})
}
