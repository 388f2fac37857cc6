// Package vcserr defines the error taxonomy shared across the object store,
// reference layer, and higher repository algorithms. Callers distinguish
// error kinds with errors.As/errors.Is rather than string matching.
package vcserr

import "fmt"

// NotARepositoryError is returned when an operation is invoked outside a
// repository root (no metadata directory found while walking upward).
type NotARepositoryError struct {
	Path string
}

func (e *NotARepositoryError) Error() string {
	return fmt.Sprintf("not a repository (or any parent up to root): %s", e.Path)
}

// NotFoundError reports a missing lookup target: an object digest or a ref.
type NotFoundError struct {
	Kind string // "object" or "ref"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// CorruptedError reports a framed object that failed header, size, or
// decompression validation.
type CorruptedError struct {
	Digest string
	Reason string
}

func (e *CorruptedError) Error() string {
	return fmt.Sprintf("corrupted object %s: %s", e.Digest, e.Reason)
}

// InvalidRefError reports a malformed or unresolvable reference name.
type InvalidRefError struct {
	Name   string
	Reason string
}

func (e *InvalidRefError) Error() string {
	return fmt.Sprintf("invalid ref %q: %s", e.Name, e.Reason)
}

// DirtyWorkingTreeError reports that a destructive operation was refused
// because uncommitted changes would have been lost.
type DirtyWorkingTreeError struct {
	Paths []string
}

func (e *DirtyWorkingTreeError) Error() string {
	return fmt.Sprintf("working tree has uncommitted changes in %d path(s): %v", len(e.Paths), e.Paths)
}

// MergeConflictError reports that a three-way merge left conflict markers
// in the working tree and index. It is not a failure of the merge
// operation itself: the repository is left in a valid, non-terminal state
// awaiting resolution.
type MergeConflictError struct {
	Paths []string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge conflict in %d path(s): %v", len(e.Paths), e.Paths)
}

// UnrelatedHistoriesError reports that two commits share no merge base.
type UnrelatedHistoriesError struct {
	A, B string
}

func (e *UnrelatedHistoriesError) Error() string {
	return fmt.Sprintf("refusing to merge unrelated histories: %s and %s", e.A, e.B)
}

// BranchAlreadyExistsError reports a branch-create collision.
type BranchAlreadyExistsError struct {
	Name string
}

func (e *BranchAlreadyExistsError) Error() string {
	return fmt.Sprintf("branch %q already exists", e.Name)
}

// BranchInUseError reports an attempt to delete the checked-out branch.
type BranchInUseError struct {
	Name string
}

func (e *BranchInUseError) Error() string {
	return fmt.Sprintf("branch %q is checked out", e.Name)
}

// TooDeepError reports that a recursive or worklist traversal (tree build,
// tree flatten, ancestry walk) exceeded its depth cap.
type TooDeepError struct {
	Limit int
}

func (e *TooDeepError) Error() string {
	return fmt.Sprintf("traversal exceeded maximum depth (%d)", e.Limit)
}

// IoError wraps an underlying filesystem or codec failure that does not
// fit one of the more specific kinds above.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}
