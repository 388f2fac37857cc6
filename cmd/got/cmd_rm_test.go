package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/got/pkg/repo"
)

func runRmCommand(t *testing.T, repoDir string, args ...string) error {
	t.Helper()

	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(repoDir); err != nil {
		t.Fatalf("Chdir(%q): %v", repoDir, err)
	}
	defer func() {
		if err := os.Chdir(prevWD); err != nil {
			t.Fatalf("restore cwd: %v", err)
		}
	}()

	cmd := newRmCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestRmCmdRemovesFromWorktreeAndIndex(t *testing.T) {
	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	writeRepoFile(t, dir, "main.go", "package main\n")
	stageAndCommit(t, r, "main.go", "add main.go")

	if err := runRmCommand(t, dir, "main.go"); err != nil {
		t.Fatalf("rm main.go: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "main.go")); !os.IsNotExist(err) {
		t.Errorf("expected main.go removed from worktree, stat err=%v", err)
	}
}

func TestRmCmdCachedKeepsWorktreeFile(t *testing.T) {
	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	writeRepoFile(t, dir, "main.go", "package main\n")
	stageAndCommit(t, r, "main.go", "add main.go")

	if err := runRmCommand(t, dir, "--cached", "main.go"); err != nil {
		t.Fatalf("rm --cached main.go: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "main.go")); err != nil {
		t.Errorf("expected main.go to remain on disk, stat err=%v", err)
	}
}

func TestRmCmdRequiresArgs(t *testing.T) {
	dir := t.TempDir()
	if _, err := repo.Init(dir); err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	if err := runRmCommand(t, dir); err == nil {
		t.Errorf("rm with no args = nil error, want an error")
	}
}
