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

	defaults := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		expected    func() *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-a", "http://10.0.0.1:9090", "-i", "10", "list", "customers"},
			expected: func() *Config {
				c := defaults()
				c.ServerURL = "http://10.0.0.1:9090"
				c.OnlineCheckInterval = 10 * time.Second
				return c
			}},
		{name: "Test2 durations and S3", args: []string{"cmd", "-t", "5", "-b", "90", "-s3-bucket", "ref", "-p=grpc"},
			expected: func() *Config {
				c := defaults()
				c.RequestTimeout = 5 * time.Second
				c.BridgeTTL = 90 * time.Minute
				c.S3Bucket = "ref"
				c.ProbeKind = ProbeGRPC
				return c
			}},
		{name: "Test3 incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := defaults()

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected()))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
