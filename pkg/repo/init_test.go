package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/got/pkg/vcserr"
)

func TestInitCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, want := range []string{
		filepath.Join(dir, ".got", "objects"),
		filepath.Join(dir, ".got", "refs", "heads"),
		filepath.Join(dir, ".got", "logs", "refs", "heads"),
		filepath.Join(dir, ".got", "HEAD"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("expected %q to exist: %v", want, err)
		}
	}

	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head != "refs/heads/main" {
		t.Errorf("Head() = %q, want %q", head, "refs/heads/main")
	}
}

func TestInitRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init #1: %v", err)
	}
	if _, err := Init(dir); err == nil {
		t.Errorf("Init #2 (already exists) = nil error, want error")
	}
}

func TestOpenFindsRepoUpward(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}

	nested := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	r, err := Open(nested)
	if err != nil {
		t.Fatalf("Open(nested): %v", err)
	}

	wantRoot, err := filepath.EvalSymlinks(dir)
	if err != nil {
		wantRoot = dir
	}
	gotRoot, err := filepath.EvalSymlinks(r.RootDir)
	if err != nil {
		gotRoot = r.RootDir
	}
	if gotRoot != wantRoot {
		t.Errorf("Open(nested).RootDir = %q, want %q", gotRoot, wantRoot)
	}
}

func TestOpenNotARepository(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir)
	if err == nil {
		t.Fatalf("Open(non-repo) = nil error, want error")
	}
	var notARepo *vcserr.NotARepositoryError
	if !errors.As(err, &notARepo) {
		t.Errorf("Open(non-repo) error = %v (%T), want *vcserr.NotARepositoryError", err, err)
	}
}

func TestResolveRefHEADBeforeAnyCommit(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.ResolveRef("HEAD")
	if err == nil {
		t.Errorf("ResolveRef(HEAD) before any commit = nil error, want error")
	}
}

func TestResolveRefAfterCommit(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "a.txt", "hello")
	commitHash := commitAll(t, r, "first commit")

	got, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef(HEAD): %v", err)
	}
	if got != commitHash {
		t.Errorf("ResolveRef(HEAD) = %s, want %s", got, commitHash)
	}

	got, err = r.ResolveRef("main")
	if err != nil {
		t.Fatalf("ResolveRef(main): %v", err)
	}
	if got != commitHash {
		t.Errorf("ResolveRef(main) = %s, want %s", got, commitHash)
	}
}
