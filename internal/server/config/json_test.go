package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"endpoint_addr": ":9999",
		"database_dsn": "postgres://x",
		"token_validity": "2h"
	}`), 0o600))

	os.Args = []string{"server", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
	assert.Equal(t, 2*time.Hour, cfg.TokenValidity)
	assert.Equal(t, "secretKey", cfg.SecretKey)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	os.Args = []string{"server", "-config", bad}
	require.Panics(t, func() { parseJson(&Config{}) })

	os.Args = []string{"server", "-c", filepath.Join(dir, "missing.json")}
	require.Panics(t, func() { parseJson(&Config{}) })
}
