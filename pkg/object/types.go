package object

// Hash is a 64-character lowercase hex-encoded SHA-256 digest. It is the
// address of every object in the store and the value carried by refs.
type Hash string

// ObjectType identifies the kind of object framed inside the store.
// Only these three variants are legal; a blob and a tree built from
// identical bytes never collide because the type is part of the framed
// envelope that gets hashed (Invariant H1).
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

const (
	// ModeDir marks a tree entry as a subdirectory.
	ModeDir = "040000"
	// ModeFile marks a tree entry as a regular, non-executable file.
	ModeFile = "100644"
	// ModeExec marks a tree entry as an executable file.
	ModeExec = "100755"
)

// Blob holds raw file bytes. No filename, no mode, no metadata: two files
// with identical bytes always share one blob regardless of location.
type Blob struct {
	Data []byte
}

// TreeEntry is one line of a tree object: a name, its mode, and the digest
// of the blob or subtree it points to.
type TreeEntry struct {
	Name string
	Mode string // ModeDir, ModeFile, or ModeExec
	Hash Hash
}

// IsDir reports whether the entry names a subdirectory.
func (e TreeEntry) IsDir() bool {
	return e.Mode == ModeDir
}

// TreeObj is an ordered sequence of entries representing one directory
// level. Entries are sorted by Name (byte-wise, not locale) at
// serialization time regardless of the order they were built in
// (Invariant T1).
type TreeObj struct {
	Entries []TreeEntry
}

// CommitObj links a tree snapshot to zero, one, or two parent commits,
// plus authorship metadata and a free-form message. Merge commits list
// the "ours" parent first, "theirs" second (Invariant C1).
type CommitObj struct {
	TreeHash           Hash
	Parents            []Hash
	Author             string
	Timestamp          int64
	AuthorTimezone     string
	Committer          string
	CommitterTimestamp int64
	CommitterTimezone  string
	Message            string
}
