package repo

import "testing"

func TestReflogOrdersNewestFirst(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "a.txt", "v1")
	first := commitAll(t, r, "first")

	writeAndAddFile(t, r, "a.txt", "v2")
	second, err := r.Commit("second", "Test User <test@example.com>")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entries, err := r.ReadReflog("main", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ReadReflog returned %d entries, want 2", len(entries))
	}
	if entries[0].NewHash != second {
		t.Errorf("entries[0].NewHash = %s, want %s (newest first)", entries[0].NewHash, second)
	}
	if entries[1].NewHash != first {
		t.Errorf("entries[1].NewHash = %s, want %s", entries[1].NewHash, first)
	}
}

func TestReflogRespectsLimit(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "a.txt", "v1")
	commitAll(t, r, "first")
	writeAndAddFile(t, r, "a.txt", "v2")
	if _, err := r.Commit("second", "Test User <test@example.com>"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entries, err := r.ReadReflog("main", 1)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ReadReflog(limit=1) returned %d entries, want 1", len(entries))
	}
}

func TestReflogMissingRefReturnsEmpty(t *testing.T) {
	r := newTestRepo(t)
	entries, err := r.ReadReflog("never-existed", 0)
	if err != nil {
		t.Fatalf("ReadReflog(missing): %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("ReadReflog(missing) = %v, want empty", entries)
	}
}
