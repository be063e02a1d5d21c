package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/toscago/internal/app"
	"github.com/stretchr/testify/require"
)

// Header is the version line every TOSCA test document starts with.
const Header = "tosca_definitions_version: tosca_simple_yaml_1_0\n"

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Output is what the app wrote as its plan.
	Output string
	// LogOutput holds logs and rendered issues.
	LogOutput string
	Err       error
	Dir       string
}

// WriteFiles writes files, keyed by slash-separated relative path, into a
// fresh temporary directory and returns it.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, cfg)
}

// RunIntegrationTestWithContext writes files to a temporary directory and
// executes the app against it. cfg.TemplatePath and cfg.InputsPath are taken
// relative to that directory.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()

	dir := WriteFiles(t, files)
	cfg.TemplatePath = filepath.ToSlash(filepath.Join(dir, filepath.FromSlash(cfg.TemplatePath)))
	if cfg.InputsPath != "" {
		cfg.InputsPath = filepath.Join(dir, filepath.FromSlash(cfg.InputsPath))
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 4
	}
	config, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &SafeBuffer{}
	logs := &SafeBuffer{}

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("application panicked | %v", r)
			}
		}()
		runErr = app.NewApp(out, logs, config, nil).Execute(ctx)
	}()

	if os.Getenv("TOSCAGO_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}

	return &HarnessResult{
		Output:    out.String(),
		LogOutput: logs.String(),
		Err:       runErr,
		Dir:       dir,
	}
}
