package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"mvstories/internal/story"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// FilledAsset returns an asset of size bytes using a simple repeating
// pattern. A size <= 0 yields a single byte.
func FilledAsset(name string, size int) story.Asset {
	if size <= 0 {
		size = 1
	}
	return story.Asset{Name: name, Content: bytes.Repeat([]byte{0x42}, size)}
}
