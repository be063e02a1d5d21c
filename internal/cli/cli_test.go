package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/toscago/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		want *app.Config
	}{
		{
			name: "defaults",
			args: []string{"main.yaml"},
			want: &app.Config{
				TemplatePath: "main.yaml",
				Inputs:       map[string]string{},
				Output:       "yaml",
				LogFormat:    "text",
				LogLevel:     "info",
			},
		},
		{
			name: "every flag",
			args: []string{
				"-i", "inputs.json", "--input", "port=8080", "--input", "name=a=b",
				"-o", "JSON", "--log-format", "json", "--log-level", "DEBUG", "-w", "3", "--strict",
				"app.csar",
			},
			want: &app.Config{
				TemplatePath: "app.csar",
				InputsPath:   "inputs.json",
				Inputs:       map[string]string{"port": "8080", "name": "a=b"},
				Output:       "json",
				LogFormat:    "json",
				LogLevel:     "debug",
				WorkerCount:  3,
				Strict:       true,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Act ---
			got, exit, err := Parse(tc.args, &bytes.Buffer{})

			// --- Assert ---
			require.NoError(t, err)
			require.False(t, exit)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_ConfigFile(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "toscago.hcl")
	src := `
output      = "graph"
log_level   = "warn"
workers     = 8
strict      = true
inputs_file = "prod.yaml"
inputs = {
  port   = 9090
  region = "eu"
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	args := []string{"--config", path, "--log-level", "debug", "--input", "region=us", "main.yaml"}

	// --- Act ---
	got, exit, err := Parse(args, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	require.False(t, exit)
	want := &app.Config{
		TemplatePath: "main.yaml",
		InputsPath:   "prod.yaml",
		Inputs:       map[string]string{"port": "9090", "region": "us"},
		Output:       "graph",
		LogFormat:    "text",
		LogLevel:     "debug",
		WorkerCount:  8,
		Strict:       true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ShouldExit(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
	}{
		{name: "help flag", args: []string{"-h"}},
		{name: "no template", args: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Arrange ---
			out := &bytes.Buffer{}

			// --- Act ---
			cfg, exit, err := Parse(tc.args, out)

			// --- Assert ---
			require.NoError(t, err)
			assert.True(t, exit)
			assert.Nil(t, cfg)
			assert.Contains(t, out.String(), "Usage:")
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"--bogus", "main.yaml"}, wantMsg: "unknown flag: --bogus"},
		{name: "two templates", args: []string{"a.yaml", "b.yaml"}, wantMsg: "expected one template path, got 2"},
		{name: "malformed input", args: []string{"--input", "port", "main.yaml"}, wantMsg: `invalid input "port": must be NAME=VALUE`},
		{name: "bad log level", args: []string{"--log-level", "loud", "main.yaml"}, wantMsg: `invalid log level "loud": must be 'debug', 'info', 'warn', or 'error'`},
		{name: "bad output", args: []string{"-o", "xml", "main.yaml"}, wantMsg: `invalid output "xml": must be 'yaml', 'json', 'graph' or 'none'`},
		{name: "missing config file", args: []string{"-c", "/nonexistent/toscago.hcl", "main.yaml"}, wantMsg: "failed to parse config file /nonexistent/toscago.hcl"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Act ---
			cfg, exit, err := Parse(tc.args, &bytes.Buffer{})

			// --- Assert ---
			require.Error(t, err)
			assert.False(t, exit)
			assert.Nil(t, cfg)
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr), "want *ExitError, got %T", err)
			assert.Equal(t, CodeUsage, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
