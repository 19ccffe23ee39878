package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatabasePath(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"admindata.db", "admindata.db"},
		{"file:data/admindata.db?_pragma=busy_timeout(5000)", "data/admindata.db"},
		{":memory:", ""},
		{"file::memory:?cache=shared", ""},
		{"file:cache?mode=memory", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			require.Equal(t, tt.want, DatabasePath(tt.dsn))
		})
	}
}

func TestEnsureParentDir_CreatesDirectory(t *testing.T) {
	tmp := t.TempDir()
	want := filepath.Join(tmp, "nested", "cache")

	got, err := EnsureParentDir("file:" + filepath.Join(want, "admindata.db") + "?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureParentDir_Idempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "db", "admindata.db")

	_, err := EnsureParentDir(dsn)
	require.NoError(t, err)
	_, err = EnsureParentDir(dsn)
	require.NoError(t, err)
}

func TestEnsureParentDir_NothingToCreate(t *testing.T) {
	got, err := EnsureParentDir("admindata.db")
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = EnsureParentDir(":memory:")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestEnsureParentDir_ErrorWhenFileBlocksPath(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := EnsureParentDir(filepath.Join(blocker, "sub", "admindata.db"))
	require.Error(t, err)
}
