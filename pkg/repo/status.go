package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileStatus represents the state of a file in the working tree or index.
// There is no rename tracking: a delete-and-add pair always shows as two
// separate entries, never a single renamed one.
type FileStatus int

const (
	StatusClean     FileStatus = iota // file matches between compared areas
	StatusNew                         // in staging, not in HEAD tree
	StatusModified                    // content or mode differs from the compared area
	StatusConflict                    // file has unresolved merge conflicts in the index
	StatusDeleted                     // present in the compared area but missing here
	StatusUntracked                   // in the working dir but not in staging
)

// StatusEntry records the status of a single file. IndexStatus compares
// the staging area against HEAD; WorkStatus compares the working tree
// against the staging area.
type StatusEntry struct {
	Path        string
	IndexStatus FileStatus
	WorkStatus  FileStatus
}

// Status computes the working tree status for the repository.
//
// Algorithm:
//  1. Read staging index.
//  2. Walk the working directory (skipping .got/).
//  3. Compare working tree files against staging entries (WorkStatus).
//  4. Compare staging entries against the HEAD tree (IndexStatus).
//  5. Return a sorted list of status entries.
func (r *Repo) Status() ([]StatusEntry, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	workFiles := make(map[string]bool)
	err = filepath.WalkDir(r.RootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(r.RootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if rel == "." {
			return nil
		}
		if isMetadataPath(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			workFiles[rel] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("status: walk: %w", err)
	}

	result := make(map[string]*StatusEntry)

	// --- Working tree vs staging comparison ---
	for path := range workFiles {
		se, inStaging := stg.Entries[path]
		if !inStaging {
			result[path] = &StatusEntry{
				Path:        path,
				IndexStatus: StatusUntracked,
				WorkStatus:  StatusUntracked,
			}
			continue
		}

		if se.Conflict {
			result[path] = &StatusEntry{Path: path, WorkStatus: StatusConflict}
			continue
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("status: stat %q: %w", path, err)
		}
		workMode := modeFromFileInfo(info.Mode())
		workStatus := StatusClean

		if !stagingStatMatchesWorktree(se, info, workMode) {
			workHash, err := r.worktreeBlobHash(path, absPath, info, workMode)
			if err != nil {
				return nil, fmt.Errorf("status: hash %q: %w", path, err)
			}
			if workHash != se.BlobHash || workMode != normalizeFileMode(se.Mode) {
				workStatus = StatusModified
			}
		}

		result[path] = &StatusEntry{Path: path, WorkStatus: workStatus}
	}

	// Staged entries missing from disk → deleted from the working tree.
	for path, se := range stg.Entries {
		if workFiles[path] {
			continue
		}
		entry, exists := result[path]
		if !exists {
			entry = &StatusEntry{Path: path}
			result[path] = entry
		}
		if se.Conflict {
			entry.WorkStatus = StatusConflict
		} else {
			entry.WorkStatus = StatusDeleted
		}
	}

	// --- Staging vs HEAD comparison ---
	headEntries := r.headTreeEntries()

	for path, se := range stg.Entries {
		entry, exists := result[path]
		if !exists {
			entry = &StatusEntry{Path: path}
			result[path] = entry
		}

		headEntry, inHead := headEntries[path]
		switch {
		case se.Conflict:
			entry.IndexStatus = StatusConflict
		case !inHead:
			entry.IndexStatus = StatusNew
		case se.BlobHash != headEntry.Hash || normalizeFileMode(se.Mode) != normalizeFileMode(headEntry.Mode):
			entry.IndexStatus = StatusModified
		default:
			entry.IndexStatus = StatusClean
		}
	}

	for path := range headEntries {
		if _, inStaging := stg.Entries[path]; inStaging {
			continue
		}
		entry, exists := result[path]
		if !exists {
			entry = &StatusEntry{Path: path}
			result[path] = entry
		}
		entry.IndexStatus = StatusDeleted
	}

	entries := make([]StatusEntry, 0, len(result))
	for _, e := range result {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	return entries, nil
}

// stagingStatMatchesWorktree reports whether a file's stat metadata alone
// proves it is unchanged since it was staged, letting Status skip a full
// content re-hash. A conservative false negative (returning false when the
// file is actually unchanged) is always safe: the caller just re-hashes.
func stagingStatMatchesWorktree(se *StagingEntry, info os.FileInfo, workMode string) bool {
	if se == nil {
		return false
	}
	if normalizeFileMode(se.Mode) != normalizeFileMode(workMode) {
		return false
	}
	if se.Size != info.Size() {
		return false
	}
	return se.ModTime == info.ModTime().Unix()
}
