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
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-g", "", "-d", "db", "-s", "secret",
			"-t", "90", "-l", "debug", "-f", "text", "-issue-token", "ops",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddr:   "127.0.0.1:9090",
				GRPCHealthAddr: "",
				DatabaseDSN:    "db",
				SecretKey:      "secret",
				TokenValidity:  90 * time.Minute,
				LogLevel:       "debug",
				LogFormat:      "text",
				IssueToken:     "ops",
			}},
		{name: "Test2 incorrect validity", args: []string{"cmd", "-t", "abc"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{GRPCHealthAddr: ":50051"}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
