package repo

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/odvcencio/got/pkg/object"
	"github.com/odvcencio/got/pkg/vcserr"
)

// mergeBaseCommitCacheSize and mergeBaseGenerationCacheSize bound the
// per-Repo commit and generation-number caches, which are shared by every
// merge-base walk on that handle. A history with more distinct commits than
// this simply evicts the
// least-recently-used entries and re-reads them from the object store.
const (
	mergeBaseCommitCacheSize     = 16384
	mergeBaseGenerationCacheSize = 16384
)

type mergeBaseCacheKey struct {
	left  object.Hash
	right object.Hash
}

type mergeBaseCacheEntry struct {
	base  object.Hash
	found bool
}

type mergeBaseTraversalState struct {
	mu sync.RWMutex

	commits     *lru.Cache[object.Hash, *object.CommitObj]
	generations *lru.Cache[object.Hash, uint64]
	mergeBases  map[mergeBaseCacheKey]mergeBaseCacheEntry
}

func newMergeBaseTraversalState() *mergeBaseTraversalState {
	commits, _ := lru.New[object.Hash, *object.CommitObj](mergeBaseCommitCacheSize)
	generations, _ := lru.New[object.Hash, uint64](mergeBaseGenerationCacheSize)
	return &mergeBaseTraversalState{
		commits:     commits,
		generations: generations,
		mergeBases:  make(map[mergeBaseCacheKey]mergeBaseCacheEntry),
	}
}

func canonicalMergeBaseCacheKey(a, b object.Hash) mergeBaseCacheKey {
	if a <= b {
		return mergeBaseCacheKey{left: a, right: b}
	}
	return mergeBaseCacheKey{left: b, right: a}
}

func (s *mergeBaseTraversalState) loadMergeBase(a, b object.Hash) (mergeBaseCacheEntry, bool) {
	key := canonicalMergeBaseCacheKey(a, b)
	s.mu.RLock()
	entry, ok := s.mergeBases[key]
	s.mu.RUnlock()
	return entry, ok
}

func (s *mergeBaseTraversalState) storeMergeBase(a, b, base object.Hash, found bool) {
	key := canonicalMergeBaseCacheKey(a, b)
	s.mu.Lock()
	s.mergeBases[key] = mergeBaseCacheEntry{base: base, found: found}
	s.mu.Unlock()
}

func (s *mergeBaseTraversalState) mergeBaseCacheSize() int {
	s.mu.RLock()
	n := len(s.mergeBases)
	s.mu.RUnlock()
	return n
}

func (s *mergeBaseTraversalState) readCommit(r *Repo, h object.Hash) (*object.CommitObj, error) {
	if cached, ok := s.commits.Get(h); ok {
		return cached, nil
	}

	commit, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, fmt.Errorf("find merge base: read commit %s: %w", h, err)
	}

	if existing, exists := s.commits.Get(h); exists {
		return existing, nil
	}
	s.commits.Add(h, commit)
	return commit, nil
}

func (s *mergeBaseTraversalState) loadGeneration(h object.Hash) (uint64, bool) {
	return s.generations.Get(h)
}

func (s *mergeBaseTraversalState) storeGeneration(h object.Hash, g uint64) {
	s.generations.Add(h, g)
}

func (s *mergeBaseTraversalState) generationCacheSize() int {
	return s.generations.Len()
}

// generationFrame is one entry on generation's explicit worklist stack.
// A commit is pushed once with expand=false (its parents still unknown),
// then re-pushed with expand=true once every parent's generation has been
// resolved and is safe to fold into its own.
type generationFrame struct {
	hash   object.Hash
	depth  int
	expand bool
}

// generation computes h's generation number (1 + max parent generation,
// 0 for the empty hash) using an explicit stack rather than recursion:
// SPEC_FULL's ancestor-walk rule requires every DAG walk to either bound
// its depth or run over an explicit worklist, and a truly deep or
// pathologically wide history must not grow this call's Go stack. depth
// is bounded the same way pkg/repo/tree.go bounds recursive tree walks,
// returning vcserr.TooDeepError past maxTreeDepth frames.
func (s *mergeBaseTraversalState) generation(r *Repo, h object.Hash) (uint64, error) {
	if h == "" {
		return 0, nil
	}
	if g, ok := s.loadGeneration(h); ok {
		return g, nil
	}

	stack := []generationFrame{{hash: h, depth: 0}}
	visiting := make(map[object.Hash]bool)

	for len(stack) > 0 {
		frame := stack[len(stack)-1]

		if frame.depth > maxTreeDepth {
			return 0, &vcserr.TooDeepError{Limit: maxTreeDepth}
		}
		if _, ok := s.loadGeneration(frame.hash); ok {
			stack = stack[:len(stack)-1]
			continue
		}

		commit, err := s.readCommit(r, frame.hash)
		if err != nil {
			return 0, err
		}

		if frame.expand {
			var maxParentGeneration uint64
			for _, p := range commit.Parents {
				if p == "" {
					continue
				}
				pg, ok := s.loadGeneration(p)
				if !ok {
					return 0, fmt.Errorf("find merge base: generation for parent %s not resolved", p)
				}
				if pg > maxParentGeneration {
					maxParentGeneration = pg
				}
			}
			s.storeGeneration(frame.hash, maxParentGeneration+1)
			delete(visiting, frame.hash)
			stack = stack[:len(stack)-1]
			continue
		}

		if visiting[frame.hash] {
			return 0, &vcserr.CorruptedError{Digest: string(frame.hash), Reason: "commit graph cycle detected"}
		}
		visiting[frame.hash] = true
		stack[len(stack)-1].expand = true

		for _, p := range commit.Parents {
			if p == "" {
				continue
			}
			if _, ok := s.loadGeneration(p); ok {
				continue
			}
			stack = append(stack, generationFrame{hash: p, depth: frame.depth + 1})
		}
	}

	g, _ := s.loadGeneration(h)
	return g, nil
}
