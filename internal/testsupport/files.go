package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and its parents) holding size placeholder bytes.
// A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// MediaFiles creates one placeholder file per name under dir and returns
// their absolute paths in the same order.
func MediaFiles(t testing.TB, dir string, names ...string) []string {
	t.Helper()

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		WriteFile(t, path, 16)
		paths = append(paths, path)
	}
	return paths
}
