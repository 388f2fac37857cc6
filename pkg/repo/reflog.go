package repo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/got/pkg/object"
	"github.com/odvcencio/got/pkg/vcserr"
)

// zeroHash is the reflog's placeholder for "no ref existed yet", the same
// role Git's own reflog gives an all-zero digest on a ref's first mutation.
const zeroHash object.Hash = "0000000000000000000000000000000000000000000000000000000000000000"

// ReflogEntry is one line of a ref's append-only mutation log (SPEC_FULL
// §3's `[EXPANSION]` Reflog): a single old-hash-to-new-hash transition,
// with the reason the mutation happened and when.
type ReflogEntry struct {
	Ref       string
	OldHash   object.Hash
	NewHash   object.Hash
	Timestamp int64
	Reason    string
}

// appendReflog records one ref transition under .got/logs/<ref>. Called by
// UpdateRefCAS after every successful write it makes (commit, branch
// create, merge and fast-forward); branch deletion and checkout's HEAD
// rewrite do not pass through it. The log lets an operator reconstruct how
// a ref arrived at its current value even though the object graph itself
// never records that.
func (r *Repo) appendReflog(ref string, oldHash, newHash object.Hash, reason string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if strings.TrimSpace(reason) == "" {
		reason = "update"
	}
	if strings.TrimSpace(string(oldHash)) == "" {
		oldHash = zeroHash
	}
	if strings.TrimSpace(string(newHash)) == "" {
		newHash = zeroHash
	}

	logPath := filepath.Join(r.GotDir, "logs", filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return &vcserr.IoError{Op: "reflog mkdir " + ref, Err: err}
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &vcserr.IoError{Op: "reflog open " + ref, Err: err}
	}
	defer f.Close()

	line := fmt.Sprintf("%s %s %d %s\n", oldHash, newHash, time.Now().Unix(), reason)
	if _, err := f.WriteString(line); err != nil {
		return &vcserr.IoError{Op: "reflog write " + ref, Err: err}
	}
	return nil
}

// ReadReflog returns ref's mutation history, newest entry first. ref may be
// "HEAD", a bare branch name ("main"), or a fully-qualified ref
// ("refs/heads/main"); it is resolved the same way branch.go's
// CurrentBranch resolves a symbolic HEAD. limit caps the number of entries
// returned; 0 or negative means unbounded. A ref with no reflog file yet
// (never mutated) returns an empty slice, not an error.
func (r *Repo) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	refName, err := r.reflogRefName(ref)
	if err != nil {
		return nil, err
	}

	logPath := filepath.Join(r.GotDir, "logs", filepath.FromSlash(refName))
	f, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &vcserr.IoError{Op: "reflog open " + refName, Err: err}
	}
	defer f.Close()

	var lines []ReflogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry, ok := parseReflogLine(refName, scanner.Text())
		if !ok {
			continue
		}
		lines = append(lines, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, &vcserr.IoError{Op: "reflog scan " + refName, Err: err}
	}

	entries := make([]ReflogEntry, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		entries = append(entries, lines[i])
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

// parseReflogLine decodes one "<old> <new> <unix-ts> <reason>" line. A
// malformed line (missing fields, unparseable timestamp) is skipped rather
// than aborting the whole read — the reflog is diagnostic, not the source
// of truth for any ref's current value.
func parseReflogLine(ref, line string) (ReflogEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return ReflogEntry{}, false
	}
	parts := strings.SplitN(line, " ", 4)
	if len(parts) < 4 {
		return ReflogEntry{}, false
	}
	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return ReflogEntry{}, false
	}
	return ReflogEntry{
		Ref:       ref,
		OldHash:   object.Hash(parts[0]),
		NewHash:   object.Hash(parts[1]),
		Timestamp: ts,
		Reason:    parts[3],
	}, true
}

// reflogRefName maps a user-facing ref argument to the fully-qualified name
// its log file is stored under, mirroring CurrentBranch's HEAD-dereference
// so ReadReflog and "got branch" agree on what "the current branch" means.
func (r *Repo) reflogRefName(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "HEAD" {
		if head, err := r.Head(); err == nil && strings.HasPrefix(head, "refs/") {
			return head, nil
		}
		return "HEAD", nil
	}
	if strings.HasPrefix(ref, "refs/") {
		return ref, nil
	}
	return "refs/heads/" + ref, nil
}
