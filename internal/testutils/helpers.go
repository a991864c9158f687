package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteDeck writes content as deck.md in a temporary directory and returns its absolute
// path. It fails the test immediately on error.
func WriteDeck(t *testing.T, content string) string {
	t.Helper()
	return WriteFiles(t, map[string]string{"deck.md": content})["deck.md"]
}

// WriteFiles creates every file (relative path → content) under one temporary directory
// and returns the absolute path of each.
func WriteFiles(t *testing.T, files map[string]string) map[string]string {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	paths := make(map[string]string, len(files))
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write %s", name)
		paths[name] = path
	}
	return paths
}
