package repo

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/odvcencio/got/pkg/object"
)

// statusHashCacheSize bounds the per-repo worktree fingerprint cache so a
// status/diff pass over a huge working tree can't grow it without limit.
const statusHashCacheSize = 8192

// Repo represents an opened Got repository.
type Repo struct {
	RootDir string        // working directory root
	GotDir  string        // .got/ directory
	Store   *object.Store // content-addressed object store

	mergeTraversalStateOnce sync.Once
	mergeTraversalState     *mergeBaseTraversalState

	statusHashCacheMu sync.Mutex
	statusHashCache   *lru.Cache[string, statusFileHashCacheEntry]
}

// newRepo constructs a Repo with its bounded caches allocated.
func newRepo(root, gotDir string) *Repo {
	cache, _ := lru.New[string, statusFileHashCacheEntry](statusHashCacheSize)
	return &Repo{
		RootDir:         root,
		GotDir:          gotDir,
		Store:           object.NewStore(gotDir),
		statusHashCache: cache,
	}
}

func (r *Repo) getMergeTraversalState() *mergeBaseTraversalState {
	r.mergeTraversalStateOnce.Do(func() {
		r.mergeTraversalState = newMergeBaseTraversalState()
	})
	return r.mergeTraversalState
}
