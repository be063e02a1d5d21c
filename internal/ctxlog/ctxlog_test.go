package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_DefaultsToGlobal(t *testing.T) {
	t.Parallel()
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWith(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), base)

	// --- Act ---
	ctx, logger := With(ctx, "importer", "main.yaml")
	FromContext(ctx).Info("Compose: loading imports.")

	// --- Assert ---
	assert.Same(t, logger, FromContext(ctx))
	assert.Contains(t, buf.String(), "importer=main.yaml")
	assert.Contains(t, buf.String(), `msg="Compose: loading imports."`)
}
