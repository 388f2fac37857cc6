package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/got/pkg/object"
	"github.com/odvcencio/got/pkg/vcserr"
)

// StagingEntry records the staged state of a single file: the blob it
// points to, its mode, and the filesystem metadata used to short-circuit
// re-hashing on a subsequent status/add pass.
type StagingEntry struct {
	Path     string      `json:"path"`
	BlobHash object.Hash `json:"blob_hash"`
	Mode     string      `json:"mode"`
	ModTime  int64       `json:"mod_time"`
	Size     int64       `json:"size"`

	// Conflict marks an entry left behind by an unresolved merge. Base/Ours/
	// TheirsBlobHash preserve all three sides so a future resolution command
	// can inspect them without re-walking history.
	Conflict       bool        `json:"conflict,omitempty"`
	BaseBlobHash   object.Hash `json:"base_blob_hash,omitempty"`
	OursBlobHash   object.Hash `json:"ours_blob_hash,omitempty"`
	TheirsBlobHash object.Hash `json:"theirs_blob_hash,omitempty"`
}

// Staging holds the full staging area (index) for a repository: a flat
// path-to-entry map, JSON-persisted under .got/index.
type Staging struct {
	Entries map[string]*StagingEntry `json:"entries"`
}

// indexPath returns the filesystem path to the staging index file.
func (r *Repo) indexPath() string {
	return filepath.Join(r.GotDir, "index")
}

// ReadStaging loads the staging area from .got/index. If the file does not
// exist, an empty Staging is returned (no error).
func (r *Repo) ReadStaging() (*Staging, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Staging{Entries: make(map[string]*StagingEntry)}, nil
		}
		return nil, fmt.Errorf("read staging: %w", err)
	}

	var stg Staging
	if err := json.Unmarshal(data, &stg); err != nil {
		return nil, fmt.Errorf("read staging: unmarshal: %w", err)
	}
	if stg.Entries == nil {
		stg.Entries = make(map[string]*StagingEntry)
	}
	return &stg, nil
}

// WriteStaging atomically writes the staging area to .got/index.
func (r *Repo) WriteStaging(s *Staging) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("write staging: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(r.GotDir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write staging: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write staging: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: close: %w", err)
	}

	if err := os.Rename(tmpName, r.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write staging: rename: %w", err)
	}
	return nil
}

// Add stages the given file paths. Each path is resolved relative to the
// repo root. For each file, the raw content is written as a blob to the
// object store and a StagingEntry recording the resulting hash, mode, and
// file metadata is added, then the staging area is flushed to disk.
func (r *Repo) Add(paths []string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("add: resolve path %q: %w", p, err)
		}

		absPath := filepath.Join(r.RootDir, relPath)
		content, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("add: read %q: %w", relPath, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("add: stat %q: %w", relPath, err)
		}

		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
		if err != nil {
			return fmt.Errorf("add: write blob %q: %w", relPath, err)
		}

		stg.Entries[relPath] = &StagingEntry{
			Path:     relPath,
			BlobHash: blobHash,
			Mode:     modeFromFileInfo(info.Mode()),
			ModTime:  info.ModTime().Unix(),
			Size:     info.Size(),
		}
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// Remove unstages the given paths and, unless cached is true, deletes them
// from the working tree. A path that names a tracked directory prefix
// removes every staged entry under it. Paths that are not staged are
// ignored.
func (r *Repo) Remove(paths []string, cached bool) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}

	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("rm: resolve path %q: %w", p, err)
		}

		prefix := relPath + "/"
		var matched []string
		for entryPath := range stg.Entries {
			if entryPath == relPath || strings.HasPrefix(entryPath, prefix) {
				matched = append(matched, entryPath)
			}
		}

		for _, entryPath := range matched {
			delete(stg.Entries, entryPath)
			if !cached {
				absPath := filepath.Join(r.RootDir, filepath.FromSlash(entryPath))
				if err := os.Remove(absPath); err != nil && !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("rm: remove %q: %w", entryPath, err)
				}
			}
		}
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	r.invalidateStatusCache()
	return nil
}

// modeFromFileInfo classifies a working-tree file's permission bits into
// one of the two modes a staged entry can carry: any owner/group/other
// execute bit promotes it to object.ModeExec, everything else stays
// object.ModeFile (SPEC_FULL §9's executable-bit decision).
func modeFromFileInfo(perm os.FileMode) string {
	if perm&0o111 != 0 {
		return object.ModeExec
	}
	return object.ModeFile
}

// StagedBlob returns the content of the blob currently staged for relPath.
// It returns vcserr.NotFoundError if the path is not staged.
func (r *Repo) StagedBlob(relPath string) ([]byte, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, err
	}
	entry, ok := stg.Entries[filepath.ToSlash(relPath)]
	if !ok {
		return nil, &vcserr.NotFoundError{Kind: "staged path", ID: relPath}
	}
	blob, err := r.Store.ReadBlob(entry.BlobHash)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

// HeadBlob returns the content of the blob HEAD's tree records for relPath.
// It returns vcserr.NotFoundError if HEAD has no such path (or there is no
// HEAD commit yet).
func (r *Repo) HeadBlob(relPath string) ([]byte, error) {
	entries := r.headTreeEntries()
	entry, ok := entries[filepath.ToSlash(relPath)]
	if !ok {
		return nil, &vcserr.NotFoundError{Kind: "HEAD path", ID: relPath}
	}
	blob, err := r.Store.ReadBlob(entry.Hash)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

// repoRelPath converts a path (absolute, or relative to CWD) into a path
// relative to the repository root. If the path is already relative and does
// not start with the repo root, it is assumed to already be repo-relative.
func (r *Repo) repoRelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		return filepath.ToSlash(rel), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	abs := filepath.Join(cwd, p)
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	if len(rel) >= 2 && rel[:2] == ".." {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	return filepath.ToSlash(rel), nil
}
