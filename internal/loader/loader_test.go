package loader

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		location string
		origin   string
		want     string
	}{
		{name: "root", location: "./main.yaml", want: "main.yaml"},
		{name: "sibling", location: "types.yaml", origin: "defs/main.yaml", want: "defs/types.yaml"},
		{name: "parent dir", location: "../common/base.yaml", origin: "defs/main.yaml", want: "common/base.yaml"},
		{name: "absolute ignores origin", location: "/etc/x.yaml", origin: "defs/main.yaml", want: "/etc/x.yaml"},
		{name: "file uri", location: "file:///tmp/a.yaml", want: "/tmp/a.yaml"},
		{name: "inside archive", location: "types.yaml", origin: "app.csar!/defs/main.yaml", want: "app.csar!/defs/types.yaml"},
		{name: "remote stays as is", location: "https://example.com/x.yaml", origin: "main.yaml", want: "https://example.com/x.yaml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Resolve(tc.location, tc.origin))
		})
	}
}

func TestSource_Literal(t *testing.T) {
	t.Parallel()
	src := NewSource(map[string]string{
		"main.yaml":      "a: 1",
		"lib/types.yaml": "b: 2",
	})

	l, err := src.GetLoader("types.yaml", "lib/other.yaml")
	require.NoError(t, err)
	assert.Equal(t, "lib/types.yaml", l.Location())

	data, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b: 2", string(data))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_File(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	main := filepath.Join(dir, "main.yaml")
	require.NoError(t, os.WriteFile(main, []byte("x: 1"), 0o600))

	src := &Source{}
	l, err := src.GetLoader(main, "")
	require.NoError(t, err)
	data, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x: 1", string(data))

	t.Run("directory resolves to its entry", func(t *testing.T) {
		l, err := src.GetLoader(dir, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.ToSlash(main), l.Location())
	})

	t.Run("missing file is a typed error", func(t *testing.T) {
		l, err := src.GetLoader("missing.yaml", filepath.ToSlash(main))
		require.NoError(t, err)
		_, err = l.Load(context.Background())
		var loadErr *Error
		require.True(t, errors.As(err, &loadErr))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestSource_Archive(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	archive := filepath.Join(t.TempDir(), "app.csar")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"TOSCA-Metadata/TOSCA.meta": "TOSCA-Meta-File-Version: 1.0\nEntry-Definitions: defs/main.yaml\n",
		"defs/main.yaml":            "imports: [types.yaml]",
		"defs/types.yaml":           "node_types: {}",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	src := &Source{}

	// --- Act ---
	root, err := src.GetLoader(archive, "")
	require.NoError(t, err)
	imported, err := src.GetLoader("types.yaml", root.Location())
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, filepath.ToSlash(archive)+"!/defs/main.yaml", root.Location())
	data, err := imported.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "node_types: {}", string(data))
}

func TestSource_Unsupported(t *testing.T) {
	t.Parallel()
	_, err := (&Source{}).GetLoader("https://example.com/x.yaml", "")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFingerprint(t *testing.T) {
	t.Parallel()
	a := Fingerprint([]byte("node_types: {}"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]byte("node_types: {}")))
	assert.NotEqual(t, a, Fingerprint([]byte("node_types: {}\n")))
}
