package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/got/pkg/object"
)

// newTestRepo initializes a fresh repository in a temporary directory and
// returns the opened handle.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

// writeAndAddFile writes content to relPath under the repo root and stages
// it, failing the test on error.
func writeAndAddFile(t *testing.T, r *Repo, relPath, content string) {
	t.Helper()
	abs := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir for %q: %v", relPath, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write %q: %v", relPath, err)
	}
	if err := r.Add([]string{relPath}); err != nil {
		t.Fatalf("Add(%q): %v", relPath, err)
	}
}

// commitAll stages nothing extra; it just commits whatever is currently
// staged and fails the test on error.
func commitAll(t *testing.T, r *Repo, message string) object.Hash {
	t.Helper()
	h, err := r.Commit(message, "Test User <test@example.com>")
	if err != nil {
		t.Fatalf("Commit(%q): %v", message, err)
	}
	return h
}
