// Package filex holds small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DatabasePath extracts the file path of a SQLite DSN. Both plain paths and
// "file:" URIs are accepted; in-memory databases yield "".
func DatabasePath(dsn string) string {
	path, params, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" || strings.Contains(params, "mode=memory") {
		return ""
	}
	return path
}

// EnsureParentDir creates the directory that will hold the database file of
// dsn and returns it. Nothing is created for in-memory databases or files in
// the working directory.
func EnsureParentDir(dsn string) (string, error) {
	path := DatabasePath(dsn)
	if path == "" {
		return "", nil
	}

	dir := filepath.Dir(path)
	if dir == "." {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
