package app

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		in      Config
		want    *Config
		wantErr string
	}{
		{
			name: "defaults are filled in",
			in:   Config{TemplatePath: "main.yaml"},
			want: &Config{TemplatePath: "main.yaml", Output: "yaml", LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "explicit values are kept",
			in:   Config{TemplatePath: "app.csar", Output: "graph", LogFormat: "json", LogLevel: "debug", WorkerCount: 2, Strict: true},
			want: &Config{TemplatePath: "app.csar", Output: "graph", LogFormat: "json", LogLevel: "debug", WorkerCount: 2, Strict: true},
		},
		{
			name:    "template path is required",
			in:      Config{},
			wantErr: "TemplatePath is a required configuration field and cannot be empty",
		},
		{
			name:    "unknown output",
			in:      Config{TemplatePath: "main.yaml", Output: "xml"},
			wantErr: `invalid output "xml": must be 'yaml', 'json', 'graph' or 'none'`,
		},
		{
			name:    "unknown log level",
			in:      Config{TemplatePath: "main.yaml", LogLevel: "trace"},
			wantErr: `invalid log level "trace": must be 'debug', 'info', 'warn', or 'error'`,
		},
		{
			name:    "negative workers",
			in:      Config{TemplatePath: "main.yaml", WorkerCount: -1},
			wantErr: "invalid worker count -1: must not be negative",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Act ---
			got, err := NewConfig(tc.in)

			// --- Assert ---
			if tc.wantErr != "" {
				require.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("NewConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
