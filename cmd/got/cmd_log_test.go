package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/got/pkg/repo"
)

func TestLogCmdOneline(t *testing.T) {
	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	writeRepoFile(t, dir, "a.go", "package demo\n")
	stageAndCommit(t, r, "a.go", "add a.go")

	writeRepoFile(t, dir, "b.go", "package demo\n")
	stageAndCommit(t, r, "b.go", "add b.go")

	output := runLogCommand(t, dir, "--oneline", "--limit", "10")
	lines := nonEmptyLines(output)
	if len(lines) != 2 {
		t.Fatalf("log --oneline returned %d lines, want 2\noutput:\n%s", len(lines), output)
	}
	assertLineContainsMessage(t, lines[0], "add b.go")
	assertLineContainsMessage(t, lines[1], "add a.go")
	if !strings.Contains(lines[0], "(HEAD -> main)") {
		t.Errorf("newest commit line missing HEAD decoration: %q", lines[0])
	}
}

func TestLogCmdLimit(t *testing.T) {
	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	for i := 0; i < 5; i++ {
		writeRepoFile(t, dir, "a.go", strings.Repeat("x", i+1))
		stageAndCommit(t, r, "a.go", "commit")
	}

	output := runLogCommand(t, dir, "--oneline", "--limit", "2")
	lines := nonEmptyLines(output)
	if len(lines) != 2 {
		t.Fatalf("log --limit 2 returned %d lines, want 2\noutput:\n%s", len(lines), output)
	}
}

func TestLogCmdNoCommits(t *testing.T) {
	dir := t.TempDir()
	if _, err := repo.Init(dir); err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	output := runLogCommand(t, dir)
	if !strings.Contains(output, "no commits yet") {
		t.Errorf("log with no commits = %q, want message about no commits", output)
	}
}

func TestLogCmdMergeCommitShowsBothParents(t *testing.T) {
	dir := t.TempDir()
	r, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	writeRepoFile(t, dir, "shared.txt", "base")
	stageAndCommit(t, r, "shared.txt", "base commit")

	head, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if err := r.CreateBranch("feature", head); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.Checkout("feature"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	writeRepoFile(t, dir, "feature.txt", "feature content")
	stageAndCommit(t, r, "feature.txt", "feature commit")

	if err := r.Checkout("main"); err != nil {
		t.Fatalf("Checkout(main): %v", err)
	}
	writeRepoFile(t, dir, "main.txt", "main content")
	stageAndCommit(t, r, "main.txt", "main commit")

	if _, err := r.Merge("feature"); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	output := runLogCommand(t, dir)
	if !strings.Contains(output, "Merge:") {
		t.Errorf("log output missing Merge: line for merge commit:\n%s", output)
	}
}

func stageAndCommit(t *testing.T, r *repo.Repo, path, message string) {
	t.Helper()

	if err := r.Add([]string{path}); err != nil {
		t.Fatalf("Add(%q): %v", path, err)
	}
	if _, err := r.Commit(message, "Test User <test@example.com>"); err != nil {
		t.Fatalf("Commit(%q): %v", message, err)
	}
}

func writeRepoFile(t *testing.T, root, relPath, content string) {
	t.Helper()

	absPath := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		t.Fatalf("MkdirAll(%q): %v", relPath, err)
	}
	if err := os.WriteFile(absPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%q): %v", relPath, err)
	}
}

func runLogCommand(t *testing.T, repoDir string, args ...string) string {
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

	cmd := newLogCmd()
	cmd.SetArgs(args)

	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("log command failed (%v): %v\noutput:\n%s", args, err, output.String())
	}

	return output.String()
}

func nonEmptyLines(s string) []string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func assertLineContainsMessage(t *testing.T, line, message string) {
	t.Helper()

	if !strings.Contains(line, message) {
		t.Fatalf("line %q does not contain %q", line, message)
	}
}
