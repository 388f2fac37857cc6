package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/got/pkg/object"
	"github.com/odvcencio/got/pkg/vcserr"
)

// Checkout switches the working directory to the state of the target.
// The target can be a branch name or a raw commit hash.
//
// Algorithm:
//  1. Check for uncommitted changes — refuse if any exist.
//  2. Resolve target: try as branch name first, then as raw hash.
//  3. Read the target commit, flatten its tree.
//  4. Remove all tracked files (files in current HEAD tree + staging).
//  5. Write all files from target tree to working directory.
//  6. Update staging to match the new tree.
//  7. Update HEAD (symbolic ref for branch, raw hash for detached).
func (r *Repo) Checkout(target string) error {
	// 1. Check for uncommitted changes.
	if err := r.ensureClean(); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	// 2. Resolve target.
	isBranch := false
	var targetHash object.Hash

	// Try as branch name first.
	branchHash, err := r.ResolveRef("refs/heads/" + target)
	if err == nil {
		targetHash = branchHash
		isBranch = true
	} else {
		// Try as raw hash.
		targetHash = object.Hash(target)
	}

	// 3. Read the target commit and flatten its tree.
	commit, err := r.Store.ReadCommit(targetHash)
	if err != nil {
		return fmt.Errorf("checkout: cannot read commit %s: %w", targetHash, err)
	}

	targetFiles, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return fmt.Errorf("checkout: flatten target tree: %w", err)
	}

	// 4. Remove every tracked file (current HEAD tree + staging); files that
	//    are also in the target tree are rewritten in step 5.
	currentFiles := r.trackedFiles()

	for path := range currentFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("checkout: remove %q: %w", path, err)
		}
		// Clean up empty parent directories.
		r.removeEmptyParents(filepath.Dir(absPath))
	}

	// 5. Write all files from target tree.
	for _, f := range targetFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))

		// Create parent directories.
		dir := filepath.Dir(absPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("checkout: mkdir %q: %w", dir, err)
		}

		// Read blob from store and write to disk.
		blob, err := r.Store.ReadBlob(f.Hash)
		if err != nil {
			return fmt.Errorf("checkout: read blob for %q: %w", f.Path, err)
		}

		if err := os.WriteFile(absPath, blob.Data, filePermFromMode(f.Mode)); err != nil {
			return fmt.Errorf("checkout: write %q: %w", f.Path, err)
		}
	}

	// 6. Update staging to match the new tree.
	stg := &Staging{Entries: make(map[string]*StagingEntry, len(targetFiles))}
	for _, f := range targetFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("checkout: stat %q: %w", f.Path, err)
		}

		stg.Entries[f.Path] = &StagingEntry{
			Path:     f.Path,
			BlobHash: f.Hash,
			Mode:     normalizeFileMode(f.Mode),
			ModTime:  info.ModTime().Unix(),
			Size:     info.Size(),
		}
	}
	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	// 7. Update HEAD.
	headPath := filepath.Join(r.GotDir, "HEAD")
	var headContent string
	if isBranch {
		headContent = "ref: refs/heads/" + target + "\n"
	} else {
		headContent = string(targetHash) + "\n"
	}
	if err := os.WriteFile(headPath, []byte(headContent), 0o644); err != nil {
		return fmt.Errorf("checkout: update HEAD: %w", err)
	}

	r.invalidateStatusCache()

	return nil
}

// ensureClean refuses any destructive operation while the working tree
// holds changes that would be lost. Every indexed path still present on
// disk is re-hashed directly from its current bytes — not from a cached
// fingerprint or a Status() summary — so a stale mtime never masks a real
// content change right before checkout or merge overwrite the file.
func (r *Repo) ensureClean() error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}

	var dirty []string
	for path, entry := range stg.Entries {
		if entry.Conflict {
			dirty = append(dirty, path)
			continue
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		info, err := os.Stat(absPath)
		if err != nil {
			if os.IsNotExist(err) {
				dirty = append(dirty, path)
				continue
			}
			return fmt.Errorf("check status: stat %q: %w", path, err)
		}
		if info.IsDir() {
			dirty = append(dirty, path)
			continue
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("check status: read %q: %w", path, err)
		}
		diskHash := object.HashBytes(object.Frame(object.TypeBlob, data))
		if diskHash != entry.BlobHash {
			dirty = append(dirty, path)
		}
	}

	headEntries := r.headTreeEntries()
	for path := range headEntries {
		if _, staged := stg.Entries[path]; !staged {
			dirty = append(dirty, path)
		}
	}

	if len(dirty) > 0 {
		return &vcserr.DirtyWorkingTreeError{Paths: dirty}
	}
	return nil
}

// trackedFiles returns a set of all currently tracked file paths. It merges
// paths from the HEAD tree and the staging index.
func (r *Repo) trackedFiles() map[string]bool {
	files := make(map[string]bool)

	// From HEAD tree.
	headEntries := r.headTreeEntries()
	for path := range headEntries {
		files[path] = true
	}

	// From staging.
	stg, err := r.ReadStaging()
	if err == nil {
		for path := range stg.Entries {
			files[path] = true
		}
	}

	return files
}

// headTreeEntries returns the flattened file set of the current HEAD
// commit's tree, or an empty map if HEAD does not resolve to a commit yet
// (a freshly initialized repository with no commits).
func (r *Repo) headTreeEntries() map[string]TreeFileEntry {
	result := make(map[string]TreeFileEntry)

	headHash, err := r.ResolveRef("HEAD")
	if err != nil || headHash == "" {
		return result
	}

	commit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return result
	}

	files, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return result
	}

	for _, f := range files {
		result[f.Path] = f
	}
	return result
}

// normalizeFileMode collapses any recorded mode string down to the two
// values a staged blob entry can legitimately hold (SPEC_FULL §3:
// object.ModeFile "100644" or object.ModeExec "100755" — object.ModeDir
// "040000" never reaches a file entry). A stale or corrupted index value
// falls back to ModeFile rather than propagating something unrecognized.
func normalizeFileMode(mode string) string {
	if mode == object.ModeExec {
		return object.ModeExec
	}
	return object.ModeFile
}

// filePermFromMode returns the Unix permission bits Checkout should
// materialize a file with, restoring the executable bit SPEC_FULL §9's
// Open Question decided to preserve across an Add/Checkout round trip.
func filePermFromMode(mode string) os.FileMode {
	const executablePerm = 0o755
	const regularPerm = 0o644
	if normalizeFileMode(mode) == object.ModeExec {
		return executablePerm
	}
	return regularPerm
}

// removeEmptyParents removes empty directories up to (but not including)
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for {
		// Never remove the repo root itself.
		if dir == r.RootDir || !strings.HasPrefix(dir, r.RootDir) {
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}

		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}
