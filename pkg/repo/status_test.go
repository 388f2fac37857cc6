package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func statusFor(t *testing.T, entries []StatusEntry, path string) (StatusEntry, bool) {
	t.Helper()
	for _, e := range entries {
		if e.Path == path {
			return e, true
		}
	}
	return StatusEntry{}, false
}

func TestStatusUntracked(t *testing.T) {
	r := newTestRepo(t)
	abs := filepath.Join(r.RootDir, "new.txt")
	if err := os.WriteFile(abs, []byte("brand new"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	e, ok := statusFor(t, entries, "new.txt")
	if !ok {
		t.Fatalf("Status missing new.txt")
	}
	if e.WorkStatus != StatusUntracked || e.IndexStatus != StatusUntracked {
		t.Errorf("new.txt status = %+v, want Untracked/Untracked", e)
	}
}

func TestStatusStagedNew(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "staged.txt", "staged content")

	entries, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	e, ok := statusFor(t, entries, "staged.txt")
	if !ok {
		t.Fatalf("Status missing staged.txt")
	}
	if e.IndexStatus != StatusNew {
		t.Errorf("staged.txt IndexStatus = %v, want StatusNew", e.IndexStatus)
	}
	if e.WorkStatus != StatusClean {
		t.Errorf("staged.txt WorkStatus = %v, want StatusClean", e.WorkStatus)
	}
}

func TestStatusModifiedAfterCommit(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "f.txt", "original")
	commitAll(t, r, "add f")

	abs := filepath.Join(r.RootDir, "f.txt")
	if err := os.WriteFile(abs, []byte("changed on disk"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	e, ok := statusFor(t, entries, "f.txt")
	if !ok {
		t.Fatalf("Status missing f.txt")
	}
	if e.WorkStatus != StatusModified {
		t.Errorf("f.txt WorkStatus = %v, want StatusModified", e.WorkStatus)
	}
	if e.IndexStatus != StatusClean {
		t.Errorf("f.txt IndexStatus = %v, want StatusClean (not yet re-added)", e.IndexStatus)
	}
}

func TestStatusDeletedFromWorkingTree(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "gone.txt", "will be deleted")
	commitAll(t, r, "add gone.txt")

	if err := os.Remove(filepath.Join(r.RootDir, "gone.txt")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	entries, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	e, ok := statusFor(t, entries, "gone.txt")
	if !ok {
		t.Fatalf("Status missing gone.txt")
	}
	if e.WorkStatus != StatusDeleted {
		t.Errorf("gone.txt WorkStatus = %v, want StatusDeleted", e.WorkStatus)
	}
}

func TestStatusCleanAfterCommit(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "stable.txt", "unchanging")
	commitAll(t, r, "add stable.txt")

	entries, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	e, ok := statusFor(t, entries, "stable.txt")
	if !ok {
		t.Fatalf("Status missing stable.txt")
	}
	if e.IndexStatus != StatusClean || e.WorkStatus != StatusClean {
		t.Errorf("stable.txt status = %+v, want Clean/Clean", e)
	}
}

func TestStatusSkipsMetadataDir(t *testing.T) {
	r := newTestRepo(t)
	entries, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, e := range entries {
		if isMetadataPath(e.Path) {
			t.Errorf("Status leaked metadata path %q", e.Path)
		}
	}
}
