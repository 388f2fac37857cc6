package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveDeletesFromIndexAndWorktree(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "main.go", "package main\n")

	if err := r.Remove([]string{"main.go"}, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := os.Stat(filepath.Join(r.RootDir, "main.go")); !os.IsNotExist(err) {
		t.Fatalf("expected main.go removed from worktree, stat err=%v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if _, ok := stg.Entries["main.go"]; ok {
		t.Errorf("main.go should be removed from staging")
	}
}

func TestRemoveCachedKeepsWorktreeFile(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "main.go", "package main\n")

	if err := r.Remove([]string{"main.go"}, true); err != nil {
		t.Fatalf("Remove --cached: %v", err)
	}

	if _, err := os.Stat(filepath.Join(r.RootDir, "main.go")); err != nil {
		t.Errorf("expected main.go to remain on disk, stat err=%v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if _, ok := stg.Entries["main.go"]; ok {
		t.Errorf("main.go should be removed from staging")
	}
}

func TestRemoveDirectoryPathRemovesTrackedPrefix(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "main.go", "package main\n")
	writeAndAddFile(t, r, "pkg/a.go", "package pkg\n")
	writeAndAddFile(t, r, "pkg/b.go", "package pkg\n")

	if err := r.Remove([]string{"pkg"}, true); err != nil {
		t.Fatalf("Remove(pkg) --cached: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if _, ok := stg.Entries["main.go"]; !ok {
		t.Errorf("expected main.go to remain staged")
	}
	if _, ok := stg.Entries["pkg/a.go"]; ok {
		t.Errorf("expected pkg/a.go to be removed from staging")
	}
	if _, ok := stg.Entries["pkg/b.go"]; ok {
		t.Errorf("expected pkg/b.go to be removed from staging")
	}
}

func TestRemoveUnstagedPathIsNoop(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "main.go", "package main\n")

	if err := r.Remove([]string{"missing.go"}, true); err != nil {
		t.Fatalf("Remove(missing.go): %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if _, ok := stg.Entries["main.go"]; !ok {
		t.Errorf("expected main.go to remain staged")
	}
}
