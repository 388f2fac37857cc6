package repo

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/odvcencio/got/pkg/object"
)

// statusFileFingerprint is the cheap stat-based signature checked before
// falling back to a full content hash of a working-tree file.
type statusFileFingerprint struct {
	Mode        string
	ModTimeNano int64
	Size        int64
}

type statusFileHashCacheEntry struct {
	Fingerprint statusFileFingerprint
	BlobHash    object.Hash
}

// invalidateStatusCache drops all cached worktree blob hashes. Called after
// any operation (commit, checkout, merge) that can move the working tree
// out from under stale fingerprints.
func (r *Repo) invalidateStatusCache() {
	r.statusHashCacheMu.Lock()
	if r.statusHashCache != nil {
		r.statusHashCache.Purge()
	}
	r.statusHashCacheMu.Unlock()
}

// worktreeBlobHash returns the content hash of the file at absPath,
// consulting a per-path fingerprint cache to avoid re-reading files whose
// mode, size, and mtime have not changed since the last call.
func (r *Repo) worktreeBlobHash(path, absPath string, info os.FileInfo, mode string) (object.Hash, error) {
	fingerprint := statusFileFingerprint{
		Mode:        normalizeFileMode(mode),
		ModTimeNano: info.ModTime().UnixNano(),
		Size:        info.Size(),
	}

	if blobHash, ok := r.statusHashCacheLookup(path, fingerprint); ok {
		return blobHash, nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}

	blobHash := object.HashBytes(object.Frame(object.TypeBlob, data))
	r.statusHashCacheStore(path, fingerprint, blobHash)
	return blobHash, nil
}

func (r *Repo) statusHashCacheLookup(path string, fingerprint statusFileFingerprint) (object.Hash, bool) {
	r.statusHashCacheMu.Lock()
	defer r.statusHashCacheMu.Unlock()

	if r.statusHashCache == nil {
		return "", false
	}
	entry, ok := r.statusHashCache.Get(path)
	if !ok || entry.Fingerprint != fingerprint {
		return "", false
	}
	return entry.BlobHash, true
}

func (r *Repo) statusHashCacheStore(path string, fingerprint statusFileFingerprint, blobHash object.Hash) {
	r.statusHashCacheMu.Lock()
	defer r.statusHashCacheMu.Unlock()

	if r.statusHashCache == nil {
		cache, _ := lru.New[string, statusFileHashCacheEntry](statusHashCacheSize)
		r.statusHashCache = cache
	}
	r.statusHashCache.Add(path, statusFileHashCacheEntry{
		Fingerprint: fingerprint,
		BlobHash:    blobHash,
	})
}
