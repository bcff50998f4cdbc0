package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "Test1 OK",
			args: []string{"cmd", "-e", "https://api.example.com/v1/", "-t", "secret",
				"-i", "col-1", "-d", "/tmp/sketches", "-k", "s3", "-w", "5", "-r", "10", "-o"},
			expected: &Config{
				Endpoint:          "https://api.example.com/v1/",
				Token:             "secret",
				CollectionID:      "col-1",
				SketchDir:         "/tmp/sketches",
				StoreBackend:      "s3",
				DebounceInterval:  5 * time.Second,
				ReconcileInterval: 10 * time.Minute,
				RunOnce:           true,
			},
		},
		{
			name: "Test2 collection by name",
			args: []string{"cmd", "-n", "Sketches", "-s", "local.db"},
			expected: &Config{
				CollectionName: "Sketches",
				DatabaseDSN:    "local.db",
			},
		},
		{
			name:        "Test3 incorrect debounce interval",
			args:        []string{"cmd", "-w", "abc"},
			expectPanic: true,
			expected:    &Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
