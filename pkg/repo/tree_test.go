package repo

import (
	"testing"

	"github.com/odvcencio/got/pkg/object"
)

func stageBlob(t *testing.T, r *Repo, s *Staging, path, content string) {
	t.Helper()
	h, err := r.Store.WriteBlob(&object.Blob{Data: []byte(content)})
	if err != nil {
		t.Fatalf("WriteBlob(%q): %v", path, err)
	}
	s.Entries[path] = &StagingEntry{Path: path, BlobHash: h, Mode: object.ModeFile}
}

func TestBuildAndFlattenTreeRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	s := &Staging{Entries: make(map[string]*StagingEntry)}

	stageBlob(t, r, s, "README.md", "hello project")
	stageBlob(t, r, s, "pkg/util/util.go", "package util")
	stageBlob(t, r, s, "pkg/util/util_test.go", "package util_test")
	stageBlob(t, r, s, "pkg/main.go", "package pkg")

	rootHash, err := r.BuildTree(s)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	flat, err := r.FlattenTree(rootHash)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}

	got := make(map[string]object.Hash)
	for _, e := range flat {
		got[e.Path] = e.Hash
	}

	for path, entry := range s.Entries {
		hash, ok := got[path]
		if !ok {
			t.Errorf("FlattenTree missing path %q", path)
			continue
		}
		if hash != entry.BlobHash {
			t.Errorf("FlattenTree[%q] hash = %s, want %s", path, hash, entry.BlobHash)
		}
	}
	if len(got) != len(s.Entries) {
		t.Errorf("FlattenTree returned %d entries, want %d", len(got), len(s.Entries))
	}
}

func TestBuildTreeDeterministic(t *testing.T) {
	r := newTestRepo(t)
	s1 := &Staging{Entries: make(map[string]*StagingEntry)}
	stageBlob(t, r, s1, "b.go", "content b")
	stageBlob(t, r, s1, "a.go", "content a")

	s2 := &Staging{Entries: make(map[string]*StagingEntry)}
	stageBlob(t, r, s2, "a.go", "content a")
	stageBlob(t, r, s2, "b.go", "content b")

	h1, err := r.BuildTree(s1)
	if err != nil {
		t.Fatalf("BuildTree #1: %v", err)
	}
	h2, err := r.BuildTree(s2)
	if err != nil {
		t.Fatalf("BuildTree #2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("BuildTree order-dependence: %s != %s", h1, h2)
	}
}

func TestBuildTreeEmpty(t *testing.T) {
	r := newTestRepo(t)
	s := &Staging{Entries: make(map[string]*StagingEntry)}

	h, err := r.BuildTree(s)
	if err != nil {
		t.Fatalf("BuildTree(empty): %v", err)
	}

	flat, err := r.FlattenTree(h)
	if err != nil {
		t.Fatalf("FlattenTree(empty root): %v", err)
	}
	if len(flat) != 0 {
		t.Errorf("FlattenTree(empty root) = %v, want empty", flat)
	}
}

func TestFlattenTreePreservesModes(t *testing.T) {
	r := newTestRepo(t)
	s := &Staging{Entries: make(map[string]*StagingEntry)}

	h, err := r.Store.WriteBlob(&object.Blob{Data: []byte("#!/bin/sh\necho hi\n")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	s.Entries["run.sh"] = &StagingEntry{Path: "run.sh", BlobHash: h, Mode: object.ModeExec}

	root, err := r.BuildTree(s)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	flat, err := r.FlattenTree(root)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}
	if len(flat) != 1 || flat[0].Mode != object.ModeExec {
		t.Errorf("FlattenTree = %+v, want single ModeExec entry", flat)
	}
}
