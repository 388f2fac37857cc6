package repo

import (
	"bytes"
	"container/heap"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/odvcencio/got/pkg/object"
	"github.com/odvcencio/got/pkg/vcserr"
)

// FileMergeReport records the merge outcome for a single file.
type FileMergeReport struct {
	Path          string
	Status        string // "clean", "conflict", "added", "deleted"
	ConflictCount int
}

// MergeReport is the overall result of a repository-level merge.
type MergeReport struct {
	Files           []FileMergeReport
	HasConflicts    bool
	TotalConflicts  int
	FastForward     bool
	AlreadyUpToDate bool
	MergeCommit     object.Hash // set if auto-committed (clean merge or fast-forward)
}

type mergeConflictState struct {
	path       string
	baseHash   object.Hash
	oursHash   object.Hash
	theirsHash object.Hash
	mode       string
}

const (
	maxMergeBaseBFSSteps = 1_000_000
	maxMergeBaseBFSDepth = 1_000_000
)

// These vars allow tests to tighten safety limits without affecting
// production defaults.
var (
	mergeBaseBFSStepsLimit = maxMergeBaseBFSSteps
	mergeBaseBFSDepthLimit = maxMergeBaseBFSDepth
)

type mergeBaseTraversalQueueItem struct {
	hash  object.Hash
	depth int
}

func mergeBaseTraversalLimits() (maxSteps int, maxDepth int) {
	maxSteps = normalizeMergeBaseTraversalLimit(mergeBaseBFSStepsLimit, maxMergeBaseBFSSteps)
	maxDepth = normalizeMergeBaseTraversalLimit(mergeBaseBFSDepthLimit, maxMergeBaseBFSDepth)

	return maxSteps, maxDepth
}

func normalizeMergeBaseTraversalLimit(limit, hardMax int) int {
	if limit <= 0 || limit > hardMax {
		return hardMax
	}
	return limit
}

func mergeBaseStepsLimitError(limit int) error {
	return &vcserr.TooDeepError{Limit: limit}
}

func mergeBaseDepthLimitError(limit int) error {
	return &vcserr.TooDeepError{Limit: limit}
}

// mergeBaseQueueItem is one frontier commit in findMergeBaseWithPruning's
// bidirectional walk, ordered by generation number so the walk always
// expands the highest (youngest) unvisited commit first — the pruning that
// lets it stop once neither side's frontier can still reach the other's
// best candidate.
type mergeBaseQueueItem struct {
	hash       object.Hash
	generation uint64
}

// mergeBaseMaxHeap is a container/heap max-heap over mergeBaseQueueItem by
// generation, with hash as a deterministic tiebreaker so two commits with
// identical generation numbers pop in a stable order across runs.
// findMergeBaseWithPruning keeps one of these per side (queueA, queueB).
type mergeBaseMaxHeap []mergeBaseQueueItem

func (h mergeBaseMaxHeap) Len() int { return len(h) }

func (h mergeBaseMaxHeap) Less(i, j int) bool {
	if h[i].generation == h[j].generation {
		return h[i].hash < h[j].hash
	}
	return h[i].generation > h[j].generation
}

func (h mergeBaseMaxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeBaseMaxHeap) Push(x any) {
	*h = append(*h, x.(mergeBaseQueueItem))
}

func (h *mergeBaseMaxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Peek returns the highest-generation frontier item without popping it, so
// findMergeBaseWithPruning can compare a side's next candidate generation
// against the other side's best-found-so-far before deciding to expand it.
func (h mergeBaseMaxHeap) Peek() (mergeBaseQueueItem, bool) {
	if len(h) == 0 {
		return mergeBaseQueueItem{}, false
	}
	return h[0], true
}

// FindMergeBase finds a common ancestor of two commits. It uses cached
// generation numbers for pruning, fast ancestor checks for linear histories,
// and a memoized pair cache for repeated queries.
func (r *Repo) FindMergeBase(a, b object.Hash) (object.Hash, error) {
	if a == "" || b == "" {
		return "", nil
	}
	if a == b {
		return a, nil
	}

	state := r.getMergeTraversalState()
	if cached, ok := state.loadMergeBase(a, b); ok {
		if cached.found {
			return cached.base, nil
		}
		return "", nil
	}

	genA, err := state.generation(r, a)
	if err != nil {
		return "", err
	}
	genB, err := state.generation(r, b)
	if err != nil {
		return "", err
	}

	// Fast path: one side already contains the other.
	if genA <= genB {
		isAncestor, err := r.isAncestorWithGeneration(state, a, b, genA, genB)
		if err != nil {
			return "", err
		}
		if isAncestor {
			state.storeMergeBase(a, b, a, true)
			return a, nil
		}
		isAncestor, err = r.isAncestorWithGeneration(state, b, a, genB, genA)
		if err != nil {
			return "", err
		}
		if isAncestor {
			state.storeMergeBase(a, b, b, true)
			return b, nil
		}
	} else {
		isAncestor, err := r.isAncestorWithGeneration(state, b, a, genB, genA)
		if err != nil {
			return "", err
		}
		if isAncestor {
			state.storeMergeBase(a, b, b, true)
			return b, nil
		}
		isAncestor, err = r.isAncestorWithGeneration(state, a, b, genA, genB)
		if err != nil {
			return "", err
		}
		if isAncestor {
			state.storeMergeBase(a, b, a, true)
			return a, nil
		}
	}

	base, found, err := r.findMergeBaseWithPruning(state, a, b, genA, genB)
	if err != nil {
		return "", err
	}
	state.storeMergeBase(a, b, base, found)
	if !found {
		return "", nil
	}
	return base, nil
}

// IsAncestor reports whether ancestor is reachable by following parent
// links from descendant (including descendant == ancestor).
func (r *Repo) IsAncestor(ancestor, descendant object.Hash) (bool, error) {
	if ancestor == "" || descendant == "" {
		return false, nil
	}
	state := r.getMergeTraversalState()
	genA, err := state.generation(r, ancestor)
	if err != nil {
		return false, err
	}
	genD, err := state.generation(r, descendant)
	if err != nil {
		return false, err
	}
	return r.isAncestorWithGeneration(state, ancestor, descendant, genA, genD)
}

func (r *Repo) isAncestorWithGeneration(state *mergeBaseTraversalState, ancestor, descendant object.Hash, ancestorGeneration, descendantGeneration uint64) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	if ancestorGeneration > descendantGeneration {
		return false, nil
	}

	maxSteps, maxDepth := mergeBaseTraversalLimits()
	visited := map[object.Hash]struct{}{descendant: {}}
	queue := []mergeBaseTraversalQueueItem{{hash: descendant, depth: 0}}
	steps := 0

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		steps++
		if steps > maxSteps {
			return false, mergeBaseStepsLimitError(maxSteps)
		}
		if item.depth > maxDepth {
			return false, mergeBaseDepthLimitError(maxDepth)
		}

		cur := item.hash
		if cur == ancestor {
			return true, nil
		}

		curGeneration, err := state.generation(r, cur)
		if err != nil {
			return false, err
		}
		if curGeneration <= ancestorGeneration {
			continue
		}

		commit, err := state.readCommit(r, cur)
		if err != nil {
			return false, err
		}
		for _, p := range commit.Parents {
			if p == "" {
				continue
			}
			if _, seen := visited[p]; seen {
				continue
			}
			parentGeneration, err := state.generation(r, p)
			if err != nil {
				return false, err
			}
			if parentGeneration < ancestorGeneration {
				continue
			}
			childDepth := item.depth + 1
			if childDepth > maxDepth {
				return false, mergeBaseDepthLimitError(maxDepth)
			}
			visited[p] = struct{}{}
			queue = append(queue, mergeBaseTraversalQueueItem{hash: p, depth: childDepth})
		}
	}

	return false, nil
}

func (r *Repo) findMergeBaseWithPruning(state *mergeBaseTraversalState, a, b object.Hash, genA, genB uint64) (object.Hash, bool, error) {
	maxSteps, maxDepth := mergeBaseTraversalLimits()

	visitedA := map[object.Hash]struct{}{a: {}}
	visitedB := map[object.Hash]struct{}{b: {}}
	depthA := map[object.Hash]int{a: 0}
	depthB := map[object.Hash]int{b: 0}

	queueA := mergeBaseMaxHeap{{hash: a, generation: genA}}
	queueB := mergeBaseMaxHeap{{hash: b, generation: genB}}
	heap.Init(&queueA)
	heap.Init(&queueB)

	best := object.Hash("")
	var bestGeneration uint64
	steps := 0

	for queueA.Len() > 0 || queueB.Len() > 0 {
		if best != "" {
			topA, okA := queueA.Peek()
			topB, okB := queueB.Peek()
			if (!okA || topA.generation < bestGeneration) && (!okB || topB.generation < bestGeneration) {
				break
			}
		}

		traverseA := false
		switch {
		case queueA.Len() == 0:
			traverseA = false
		case queueB.Len() == 0:
			traverseA = true
		default:
			topA := queueA[0]
			topB := queueB[0]
			if topA.generation > topB.generation {
				traverseA = true
			} else if topA.generation < topB.generation {
				traverseA = false
			} else {
				traverseA = topA.hash <= topB.hash
			}
		}

		var item mergeBaseQueueItem
		if traverseA {
			item = heap.Pop(&queueA).(mergeBaseQueueItem)
		} else {
			item = heap.Pop(&queueB).(mergeBaseQueueItem)
		}

		steps++
		if steps > maxSteps {
			return "", false, mergeBaseStepsLimitError(maxSteps)
		}
		if best != "" && item.generation < bestGeneration {
			continue
		}

		itemDepth := 0
		if traverseA {
			itemDepth = depthA[item.hash]
		} else {
			itemDepth = depthB[item.hash]
		}
		if itemDepth > maxDepth {
			return "", false, mergeBaseDepthLimitError(maxDepth)
		}

		if traverseA {
			if _, seen := visitedB[item.hash]; seen {
				best, bestGeneration = chooseBetterMergeBase(best, bestGeneration, item.hash, item.generation)
			}
		} else {
			if _, seen := visitedA[item.hash]; seen {
				best, bestGeneration = chooseBetterMergeBase(best, bestGeneration, item.hash, item.generation)
			}
		}

		commit, err := state.readCommit(r, item.hash)
		if err != nil {
			return "", false, err
		}

		for _, p := range commit.Parents {
			if p == "" {
				continue
			}

			parentGeneration, err := state.generation(r, p)
			if err != nil {
				return "", false, err
			}
			if best != "" && parentGeneration < bestGeneration {
				continue
			}

			childDepth := itemDepth + 1
			if childDepth > maxDepth {
				return "", false, mergeBaseDepthLimitError(maxDepth)
			}

			if traverseA {
				if _, seen := visitedA[p]; seen {
					continue
				}
				visitedA[p] = struct{}{}
				depthA[p] = childDepth
				heap.Push(&queueA, mergeBaseQueueItem{hash: p, generation: parentGeneration})
				if _, seen := visitedB[p]; seen {
					best, bestGeneration = chooseBetterMergeBase(best, bestGeneration, p, parentGeneration)
				}
			} else {
				if _, seen := visitedB[p]; seen {
					continue
				}
				visitedB[p] = struct{}{}
				depthB[p] = childDepth
				heap.Push(&queueB, mergeBaseQueueItem{hash: p, generation: parentGeneration})
				if _, seen := visitedA[p]; seen {
					best, bestGeneration = chooseBetterMergeBase(best, bestGeneration, p, parentGeneration)
				}
			}
		}
	}

	if best == "" {
		return "", false, nil
	}
	return best, true, nil
}

func chooseBetterMergeBase(best object.Hash, bestGeneration uint64, candidate object.Hash, candidateGeneration uint64) (object.Hash, uint64) {
	if best == "" {
		return candidate, candidateGeneration
	}
	if candidateGeneration > bestGeneration {
		return candidate, candidateGeneration
	}
	if candidateGeneration < bestGeneration {
		return best, bestGeneration
	}
	if candidate < best {
		return candidate, candidateGeneration
	}
	return best, bestGeneration
}

// Merge merges the named branch into the current HEAD.
//
// Algorithm:
//  1. Refuse if the working tree is dirty.
//  2. Resolve current HEAD and branch name to commit hashes.
//  3. If they're equal, or branch is already an ancestor of HEAD: no-op.
//  4. FindMergeBase(headHash, branchHash); no base at all is an unrelated
//     history and is refused.
//  5. If HEAD is an ancestor of branch: fast-forward HEAD's ref, no merge
//     commit is created.
//  6. Otherwise perform a whole-blob three-way merge over every path
//     present in base/ours/theirs. Clean: write files, stage, auto-commit
//     with two parents. Conflicted: write conflict-marker files and leave
//     the index holding the conflict, uncommitted.
func (r *Repo) Merge(branchName string) (*MergeReport, error) {
	if err := r.ensureClean(); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return nil, fmt.Errorf("merge: resolve HEAD: %w", err)
	}
	branchHash, err := r.ResolveRef("refs/heads/" + branchName)
	if err != nil {
		return nil, fmt.Errorf("merge: resolve branch %q: %w", branchName, err)
	}

	if headHash == branchHash {
		return &MergeReport{AlreadyUpToDate: true}, nil
	}

	baseHash, err := r.FindMergeBase(headHash, branchHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if baseHash == "" {
		return nil, &vcserr.UnrelatedHistoriesError{A: string(headHash), B: string(branchHash)}
	}

	if baseHash == branchHash {
		// Branch is already fully contained in HEAD.
		return &MergeReport{AlreadyUpToDate: true}, nil
	}

	if baseHash == headHash {
		return r.fastForwardMerge(branchName, branchHash)
	}

	return r.threeWayMerge(branchName, headHash, branchHash, baseHash)
}

// fastForwardMerge moves the current branch ref directly to branchHash and
// materializes its tree into the working directory. No merge commit is
// created, only the ref moves and history stays linear (SPEC_FULL's P11
// fast-forward criterion).
func (r *Repo) fastForwardMerge(branchName string, branchHash object.Hash) (*MergeReport, error) {
	// Capture the branch the merge was invoked on before Checkout detaches
	// HEAD below; otherwise there is no way to tell which branch to advance.
	currentBranch, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("merge: fast-forward: read current branch: %w", err)
	}

	if err := r.Checkout(string(branchHash)); err != nil {
		return nil, fmt.Errorf("merge: fast-forward checkout: %w", err)
	}

	// Checkout("<hash>") leaves HEAD detached; a fast-forward merge should
	// keep the current branch symbolic and simply advance it.
	if currentBranch != "" {
		refName := "refs/heads/" + currentBranch
		if err := r.UpdateRefCAS(refName, branchHash); err != nil {
			return nil, fmt.Errorf("merge: fast-forward: update ref %q: %w", refName, err)
		}
		if err := os.WriteFile(filepath.Join(r.GotDir, "HEAD"), []byte("ref: "+refName+"\n"), 0o644); err != nil {
			return nil, fmt.Errorf("merge: fast-forward: restore symbolic HEAD: %w", err)
		}
	}

	return &MergeReport{FastForward: true, MergeCommit: branchHash}, nil
}

func (r *Repo) threeWayMerge(branchName string, headHash, branchHash, baseHash object.Hash) (*MergeReport, error) {
	headCommit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return nil, fmt.Errorf("merge: read head commit: %w", err)
	}
	branchCommit, err := r.Store.ReadCommit(branchHash)
	if err != nil {
		return nil, fmt.Errorf("merge: read branch commit: %w", err)
	}
	baseCommit, err := r.Store.ReadCommit(baseHash)
	if err != nil {
		return nil, fmt.Errorf("merge: read base commit: %w", err)
	}

	oursFiles, err := r.FlattenTree(headCommit.TreeHash)
	if err != nil {
		return nil, fmt.Errorf("merge: flatten ours tree: %w", err)
	}
	theirsFiles, err := r.FlattenTree(branchCommit.TreeHash)
	if err != nil {
		return nil, fmt.Errorf("merge: flatten theirs tree: %w", err)
	}
	baseFiles, err := r.FlattenTree(baseCommit.TreeHash)
	if err != nil {
		return nil, fmt.Errorf("merge: flatten base tree: %w", err)
	}

	baseMap := indexByPath(baseFiles)
	oursMap := indexByPath(oursFiles)
	theirsMap := indexByPath(theirsFiles)

	allPaths := collectAllPaths(baseMap, oursMap, theirsMap)

	report := &MergeReport{}
	type mergedFile struct {
		path    string
		content []byte
		mode    string
	}
	var mergedFiles []mergedFile
	var conflictedFiles []mergeConflictState
	var deletedPaths []string

	for _, path := range allPaths {
		base, inBase := baseMap[path]
		ours, inOurs := oursMap[path]
		theirs, inTheirs := theirsMap[path]

		switch {
		case inBase && inOurs && inTheirs:
			switch {
			case ours.Hash == theirs.Hash:
				content, err := r.readBlobData(ours.Hash)
				if err != nil {
					return nil, fmt.Errorf("merge read %q: %w", path, err)
				}
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "clean"})
				mergedFiles = append(mergedFiles, mergedFile{path: path, content: content, mode: normalizeFileMode(ours.Mode)})
			case ours.Hash == base.Hash:
				content, err := r.readBlobData(theirs.Hash)
				if err != nil {
					return nil, fmt.Errorf("merge read %q: %w", path, err)
				}
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "clean"})
				mergedFiles = append(mergedFiles, mergedFile{path: path, content: content, mode: normalizeFileMode(theirs.Mode)})
			case theirs.Hash == base.Hash:
				content, err := r.readBlobData(ours.Hash)
				if err != nil {
					return nil, fmt.Errorf("merge read %q: %w", path, err)
				}
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "clean"})
				mergedFiles = append(mergedFiles, mergedFile{path: path, content: content, mode: normalizeFileMode(ours.Mode)})
			default:
				oursData, err := r.readBlobData(ours.Hash)
				if err != nil {
					return nil, fmt.Errorf("merge read ours %q: %w", path, err)
				}
				theirsData, err := r.readBlobData(theirs.Hash)
				if err != nil {
					return nil, fmt.Errorf("merge read theirs %q: %w", path, err)
				}
				content := renderFileConflict(branchName, oursData, theirsData)
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "conflict", ConflictCount: 1})
				report.HasConflicts = true
				report.TotalConflicts++
				mergedFiles = append(mergedFiles, mergedFile{path: path, content: content, mode: normalizeFileMode(ours.Mode)})
				conflictedFiles = append(conflictedFiles, mergeConflictState{
					path: path, baseHash: base.Hash, oursHash: ours.Hash, theirsHash: theirs.Hash, mode: normalizeFileMode(ours.Mode),
				})
			}

		case !inBase && inOurs && inTheirs:
			if ours.Hash == theirs.Hash {
				content, err := r.readBlobData(ours.Hash)
				if err != nil {
					return nil, fmt.Errorf("merge read %q: %w", path, err)
				}
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "clean"})
				mergedFiles = append(mergedFiles, mergedFile{path: path, content: content, mode: normalizeFileMode(ours.Mode)})
			} else {
				oursData, err := r.readBlobData(ours.Hash)
				if err != nil {
					return nil, fmt.Errorf("merge read ours %q: %w", path, err)
				}
				theirsData, err := r.readBlobData(theirs.Hash)
				if err != nil {
					return nil, fmt.Errorf("merge read theirs %q: %w", path, err)
				}
				content := renderFileConflict(branchName, oursData, theirsData)
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "conflict", ConflictCount: 1})
				report.HasConflicts = true
				report.TotalConflicts++
				mergedFiles = append(mergedFiles, mergedFile{path: path, content: content, mode: normalizeFileMode(ours.Mode)})
				conflictedFiles = append(conflictedFiles, mergeConflictState{
					path: path, baseHash: "", oursHash: ours.Hash, theirsHash: theirs.Hash, mode: normalizeFileMode(ours.Mode),
				})
			}

		case inBase && inOurs && !inTheirs:
			if ours.Hash == base.Hash {
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "deleted"})
				deletedPaths = append(deletedPaths, path)
				continue
			}
			oursData, err := r.readBlobData(ours.Hash)
			if err != nil {
				return nil, fmt.Errorf("merge read ours %q: %w", path, err)
			}
			content := renderFileConflict(branchName, oursData, nil)
			report.Files = append(report.Files, FileMergeReport{Path: path, Status: "conflict", ConflictCount: 1})
			report.HasConflicts = true
			report.TotalConflicts++
			mergedFiles = append(mergedFiles, mergedFile{path: path, content: content, mode: normalizeFileMode(ours.Mode)})
			conflictedFiles = append(conflictedFiles, mergeConflictState{
				path: path, baseHash: base.Hash, oursHash: ours.Hash, theirsHash: "", mode: normalizeFileMode(ours.Mode),
			})

		case inBase && !inOurs && inTheirs:
			if theirs.Hash == base.Hash {
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "deleted"})
				deletedPaths = append(deletedPaths, path)
				continue
			}
			theirsData, err := r.readBlobData(theirs.Hash)
			if err != nil {
				return nil, fmt.Errorf("merge read theirs %q: %w", path, err)
			}
			content := renderFileConflict(branchName, nil, theirsData)
			report.Files = append(report.Files, FileMergeReport{Path: path, Status: "conflict", ConflictCount: 1})
			report.HasConflicts = true
			report.TotalConflicts++
			mergedFiles = append(mergedFiles, mergedFile{path: path, content: content, mode: normalizeFileMode(theirs.Mode)})
			conflictedFiles = append(conflictedFiles, mergeConflictState{
				path: path, baseHash: base.Hash, oursHash: "", theirsHash: theirs.Hash, mode: normalizeFileMode(theirs.Mode),
			})

		case !inBase && inOurs && !inTheirs:
			content, err := r.readBlobData(ours.Hash)
			if err != nil {
				return nil, fmt.Errorf("merge read %q: %w", path, err)
			}
			report.Files = append(report.Files, FileMergeReport{Path: path, Status: "added"})
			mergedFiles = append(mergedFiles, mergedFile{path: path, content: content, mode: normalizeFileMode(ours.Mode)})

		case !inBase && !inOurs && inTheirs:
			content, err := r.readBlobData(theirs.Hash)
			if err != nil {
				return nil, fmt.Errorf("merge read %q: %w", path, err)
			}
			report.Files = append(report.Files, FileMergeReport{Path: path, Status: "added"})
			mergedFiles = append(mergedFiles, mergedFile{path: path, content: content, mode: normalizeFileMode(theirs.Mode)})

		case inBase && !inOurs && !inTheirs:
			report.Files = append(report.Files, FileMergeReport{Path: path, Status: "deleted"})
			deletedPaths = append(deletedPaths, path)
		}
	}

	for _, mf := range mergedFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(mf.path))
		dir := filepath.Dir(absPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("merge: mkdir %q: %w", dir, err)
		}
		if err := os.WriteFile(absPath, mf.content, filePermFromMode(mf.mode)); err != nil {
			return nil, fmt.Errorf("merge: write %q: %w", mf.path, err)
		}
	}

	for _, path := range deletedPaths {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("merge: remove %q: %w", path, err)
		}
		r.removeEmptyParents(filepath.Dir(absPath))
	}

	if !report.HasConflicts {
		var pathsToAdd []string
		for _, mf := range mergedFiles {
			pathsToAdd = append(pathsToAdd, mf.path)
		}
		if len(pathsToAdd) > 0 {
			if err := r.Add(pathsToAdd); err != nil {
				return nil, fmt.Errorf("merge: stage: %w", err)
			}
		}

		if len(deletedPaths) > 0 {
			stg, err := r.ReadStaging()
			if err != nil {
				return nil, fmt.Errorf("merge: read staging: %w", err)
			}
			for _, p := range deletedPaths {
				delete(stg.Entries, p)
			}
			if err := r.WriteStaging(stg); err != nil {
				return nil, fmt.Errorf("merge: write staging: %w", err)
			}
		}

		mergeHash, err := r.commitMerge(
			fmt.Sprintf("Merge branch '%s'", branchName),
			headHash,
			branchHash,
		)
		if err != nil {
			return nil, fmt.Errorf("merge: commit: %w", err)
		}
		report.MergeCommit = mergeHash
	} else {
		conflicted := make(map[string]bool, len(conflictedFiles))
		for _, cf := range conflictedFiles {
			conflicted[cf.path] = true
		}
		var cleanPaths []string
		for _, mf := range mergedFiles {
			if !conflicted[mf.path] {
				cleanPaths = append(cleanPaths, mf.path)
			}
		}
		if len(cleanPaths) > 0 {
			if err := r.Add(cleanPaths); err != nil {
				return nil, fmt.Errorf("merge: stage: %w", err)
			}
		}
		if err := r.stageConflictState(conflictedFiles, deletedPaths); err != nil {
			return nil, fmt.Errorf("merge: stage conflicts: %w", err)
		}
		r.invalidateStatusCache()
		return nil, &vcserr.MergeConflictError{Paths: conflictPaths(conflictedFiles)}
	}

	return report, nil
}

func conflictPaths(cs []mergeConflictState) []string {
	paths := make([]string, len(cs))
	for i, c := range cs {
		paths[i] = c.path
	}
	sort.Strings(paths)
	return paths
}

func (r *Repo) stageConflictState(conflicted []mergeConflictState, deletedPaths []string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("read staging: %w", err)
	}

	for _, p := range deletedPaths {
		delete(stg.Entries, p)
	}

	for _, cf := range conflicted {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(cf.path))
		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("stat conflicted file %q: %w", cf.path, err)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("read conflicted file %q: %w", cf.path, err)
		}

		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: data})
		if err != nil {
			return fmt.Errorf("write conflicted blob %q: %w", cf.path, err)
		}

		stg.Entries[cf.path] = &StagingEntry{
			Path:           cf.path,
			BlobHash:       blobHash,
			Mode:           normalizeFileMode(cf.mode),
			Conflict:       true,
			BaseBlobHash:   cf.baseHash,
			OursBlobHash:   cf.oursHash,
			TheirsBlobHash: cf.theirsHash,
			ModTime:        info.ModTime().Unix(),
			Size:           info.Size(),
		}
	}

	if err := r.WriteStaging(stg); err != nil {
		return fmt.Errorf("write staging: %w", err)
	}
	return nil
}

// renderFileConflict writes whole-blob conflict markers. Merging is never
// line-aware: the entire "ours" side and the entire "theirs" side are
// bracketed as units, matching Property P13.
func renderFileConflict(targetName string, ours, theirs []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<<<<<< HEAD\n")
	buf.Write(ours)
	if len(ours) > 0 && ours[len(ours)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString("=======\n")
	buf.Write(theirs)
	if len(theirs) > 0 && theirs[len(theirs)-1] != '\n' {
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, ">>>>>>> %s\n", targetName)
	return buf.Bytes()
}

// commitMerge creates a commit with two parents (for merge commits). It is
// similar to Commit() but takes explicit parent hashes instead of deriving
// them from HEAD, and always uses the repository's configured identity.
func (r *Repo) commitMerge(message string, parent1, parent2 object.Hash) (object.Hash, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return "", fmt.Errorf("merge commit: %w", err)
	}
	if len(stg.Entries) == 0 {
		return "", fmt.Errorf("merge commit: nothing staged")
	}

	treeHash, err := r.BuildTree(stg)
	if err != nil {
		return "", fmt.Errorf("merge commit: %w", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return "", fmt.Errorf("merge commit: read config: %w", err)
	}
	ident := cfg.Ident()

	now := time.Now()
	tz := tzOffset(now)
	commitObj := &object.CommitObj{
		TreeHash:           treeHash,
		Parents:            []object.Hash{parent1, parent2},
		Author:             ident,
		Timestamp:          now.Unix(),
		AuthorTimezone:     tz,
		Committer:          ident,
		CommitterTimestamp: now.Unix(),
		CommitterTimezone:  tz,
		Message:            message,
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("merge commit: write: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("merge commit: read HEAD: %w", err)
	}
	if strings.HasPrefix(head, "refs/") {
		if err := r.UpdateRefCAS(head, commitHash, parent1); err != nil {
			return "", fmt.Errorf("merge commit: update ref %q: %w", head, err)
		}
	} else {
		if err := r.UpdateRefCAS("HEAD", commitHash, parent1); err != nil {
			return "", fmt.Errorf("merge commit: update detached HEAD: %w", err)
		}
	}

	r.invalidateStatusCache()

	return commitHash, nil
}

// readBlobData reads a blob from the store and returns its raw data.
func (r *Repo) readBlobData(h object.Hash) ([]byte, error) {
	blob, err := r.Store.ReadBlob(h)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", h, err)
	}
	return blob.Data, nil
}

// indexByPath creates a map from file path to TreeFileEntry.
func indexByPath(entries []TreeFileEntry) map[string]TreeFileEntry {
	m := make(map[string]TreeFileEntry, len(entries))
	for _, e := range entries {
		m[e.Path] = e
	}
	return m
}

// collectAllPaths returns a sorted, deduplicated list of all file paths
// across three file maps.
func collectAllPaths(base, ours, theirs map[string]TreeFileEntry) []string {
	seen := make(map[string]bool)
	for p := range base {
		seen[p] = true
	}
	for p := range ours {
		seen[p] = true
	}
	for p := range theirs {
		seen[p] = true
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
