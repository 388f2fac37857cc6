package object

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes: the blob content is exactly
// what gets framed and hashed, with no wrapper of its own.
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj. Entries are sorted by Name (byte-wise)
// before serialization so equivalent directory contents always produce
// byte-identical output regardless of build order (Invariant T1). Each
// entry is "MODE SP NAME NUL HASH_BIN" with no separator between entries.
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		mode := e.Mode
		if mode == "" {
			mode = ModeFile
		}
		buf.WriteString(mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		raw, err := hex.DecodeString(string(e.Hash))
		if err != nil || len(raw) != 32 {
			// A malformed hash means the caller built the entry wrong; write
			// 32 zero bytes rather than desynchronize the framing of later
			// entries.
			raw = make([]byte, 32)
		}
		buf.Write(raw)
	}
	return buf.Bytes()
}

// UnmarshalTree parses a TreeObj from its serialized form: read to the
// first SP for mode, to the following NUL for name, then 32 raw bytes for
// the digest, repeating until the buffer is exhausted.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	i := 0
	for i < len(data) {
		spIdx := bytes.IndexByte(data[i:], ' ')
		if spIdx < 0 {
			return nil, fmt.Errorf("unmarshal tree: truncated entry (no mode separator)")
		}
		mode := string(data[i : i+spIdx])
		i += spIdx + 1

		nulIdx := bytes.IndexByte(data[i:], 0)
		if nulIdx < 0 {
			return nil, fmt.Errorf("unmarshal tree: truncated entry (no name terminator)")
		}
		name := string(data[i : i+nulIdx])
		i += nulIdx + 1

		if i+32 > len(data) {
			return nil, fmt.Errorf("unmarshal tree: truncated entry (short digest)")
		}
		digest := Hash(hex.EncodeToString(data[i : i+32]))
		i += 32

		tr.Entries = append(tr.Entries, TreeEntry{Name: name, Mode: mode, Hash: digest})
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj: a header block (tree, parents,
// author, committer), a blank line, then the message, followed by a
// newline only when the message does not already end in one.
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s %d %s\n", c.Author, c.Timestamp, c.AuthorTimezone)

	committer, committerTs, committerTz := c.Committer, c.CommitterTimestamp, c.CommitterTimezone
	if committer == "" {
		committer, committerTs, committerTz = c.Author, c.Timestamp, c.AuthorTimezone
	}
	fmt.Fprintf(&buf, "committer %s %d %s\n", committer, committerTs, committerTz)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	if !strings.HasSuffix(c.Message, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form. Everything
// after the first blank line is the message, trimmed of exactly one
// trailing newline.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := strings.TrimSuffix(string(data[idx+2:]), "\n")

	c := &CommitObj{Message: message}
	sawTree := false
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
			sawTree = true
		case "parent":
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			ident, ts, tz, err := parseIdentLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author, c.Timestamp, c.AuthorTimezone = ident, ts, tz
		case "committer":
			ident, ts, tz, err := parseIdentLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer, c.CommitterTimestamp, c.CommitterTimezone = ident, ts, tz
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header key %q", key)
		}
	}
	if !sawTree {
		return nil, fmt.Errorf("unmarshal commit: missing tree line")
	}
	return c, nil
}

// parseIdentLine splits "<ident> <unix-secs> <±HHMM>" from the tail of an
// author/committer header value.
func parseIdentLine(val string) (ident string, ts int64, tz string, err error) {
	lastSpace := strings.LastIndex(val, " ")
	if lastSpace < 0 {
		return "", 0, "", fmt.Errorf("malformed ident line %q", val)
	}
	tz = val[lastSpace+1:]
	rest := val[:lastSpace]

	secondSpace := strings.LastIndex(rest, " ")
	if secondSpace < 0 {
		return "", 0, "", fmt.Errorf("malformed ident line %q", val)
	}
	ident = rest[:secondSpace]
	ts, err = strconv.ParseInt(rest[secondSpace+1:], 10, 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("bad timestamp in ident line %q: %w", val, err)
	}
	return ident, ts, tz, nil
}
