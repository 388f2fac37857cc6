package repo

import (
	"errors"
	"testing"

	"github.com/odvcencio/got/pkg/vcserr"
)

func TestCreateAndListBranches(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "a.txt", "content")
	commit := commitAll(t, r, "initial")

	if err := r.CreateBranch("feature", commit); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	branches, err := r.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	want := []string{"feature", "main"}
	if len(branches) != len(want) {
		t.Fatalf("ListBranches = %v, want %v", branches, want)
	}
	for i, name := range want {
		if branches[i] != name {
			t.Errorf("ListBranches[%d] = %q, want %q", i, branches[i], name)
		}
	}
}

func TestCreateBranchAlreadyExists(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "a.txt", "content")
	commit := commitAll(t, r, "initial")

	if err := r.CreateBranch("dup", commit); err != nil {
		t.Fatalf("CreateBranch #1: %v", err)
	}
	err := r.CreateBranch("dup", commit)
	if err == nil {
		t.Fatalf("CreateBranch #2 (duplicate) = nil error, want error")
	}
	var exists *vcserr.BranchAlreadyExistsError
	if !errors.As(err, &exists) {
		t.Errorf("CreateBranch(duplicate) error = %v (%T), want *vcserr.BranchAlreadyExistsError", err, err)
	}
}

func TestDeleteBranchRefusesCurrent(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "a.txt", "content")
	commitAll(t, r, "initial")

	err := r.DeleteBranch("main")
	if err == nil {
		t.Fatalf("DeleteBranch(current) = nil error, want error")
	}
	var inUse *vcserr.BranchInUseError
	if !errors.As(err, &inUse) {
		t.Errorf("DeleteBranch(current) error = %v (%T), want *vcserr.BranchInUseError", err, err)
	}
}

func TestDeleteBranchRemovesRef(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "a.txt", "content")
	commit := commitAll(t, r, "initial")

	if err := r.CreateBranch("throwaway", commit); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.DeleteBranch("throwaway"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}

	branches, err := r.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	for _, b := range branches {
		if b == "throwaway" {
			t.Errorf("ListBranches still contains deleted branch %q", b)
		}
	}
}

func TestCurrentBranchDetached(t *testing.T) {
	r := newTestRepo(t)
	writeAndAddFile(t, r, "a.txt", "content")
	commit := commitAll(t, r, "initial")

	if err := r.Checkout(string(commit)); err != nil {
		t.Fatalf("Checkout(detached): %v", err)
	}

	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "" {
		t.Errorf("CurrentBranch() in detached HEAD = %q, want empty", branch)
	}
}
