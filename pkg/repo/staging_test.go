package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/got/pkg/object"
)

func TestAddStagesFile(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "hello.txt", "hello, world")

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	entry, ok := stg.Entries["hello.txt"]
	if !ok {
		t.Fatalf("staging missing hello.txt")
	}
	if entry.Mode != object.ModeFile {
		t.Errorf("Mode = %q, want %q", entry.Mode, object.ModeFile)
	}

	blob, err := r.Store.ReadBlob(entry.BlobHash)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(blob.Data) != "hello, world" {
		t.Errorf("staged blob data = %q, want %q", blob.Data, "hello, world")
	}
}

func TestAddDetectsExecutableBit(t *testing.T) {
	r := newTestRepo(t)
	abs := filepath.Join(r.RootDir, "run.sh")
	if err := os.WriteFile(abs, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Add([]string{"run.sh"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if stg.Entries["run.sh"].Mode != object.ModeExec {
		t.Errorf("Mode = %q, want %q", stg.Entries["run.sh"].Mode, object.ModeExec)
	}
}

func TestAddSameContentDedupsBlob(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "a.txt", "shared content")
	writeAndAddFile(t, r, "b.txt", "shared content")

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if stg.Entries["a.txt"].BlobHash != stg.Entries["b.txt"].BlobHash {
		t.Errorf("identical content staged under different hashes: %s != %s",
			stg.Entries["a.txt"].BlobHash, stg.Entries["b.txt"].BlobHash)
	}
}

func TestStagedBlobAndHeadBlob(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "file.txt", "version one")
	commitAll(t, r, "add file")

	writeAndAddFile(t, r, "file.txt", "version two")

	headData, err := r.HeadBlob("file.txt")
	if err != nil {
		t.Fatalf("HeadBlob: %v", err)
	}
	if string(headData) != "version one" {
		t.Errorf("HeadBlob = %q, want %q", headData, "version one")
	}

	stagedData, err := r.StagedBlob("file.txt")
	if err != nil {
		t.Fatalf("StagedBlob: %v", err)
	}
	if string(stagedData) != "version two" {
		t.Errorf("StagedBlob = %q, want %q", stagedData, "version two")
	}
}

func TestStagedBlobNotFound(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.StagedBlob("missing.txt"); err == nil {
		t.Errorf("StagedBlob(unstaged path) = nil error, want error")
	}
}

func TestHeadBlobNotFound(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "a.txt", "content")
	commitAll(t, r, "commit a")

	if _, err := r.HeadBlob("b.txt"); err == nil {
		t.Errorf("HeadBlob(path not in HEAD) = nil error, want error")
	}
}
