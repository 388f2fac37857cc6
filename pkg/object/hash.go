package object

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashBytes computes the raw SHA-256 hash of data and returns it as a
// lowercase hex-encoded Hash. No error conditions; pure function.
func HashBytes(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// Frame builds the "TYPE SP SIZE NUL CONTENT" envelope for content. SIZE is
// the decimal byte-length of content, never its character length: a 4-rune
// UTF-8 string like "café" frames with size 5.
func Frame(objType ObjectType, content []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", objType, len(content))
	framed := make([]byte, 0, len(header)+len(content))
	framed = append(framed, header...)
	framed = append(framed, content...)
	return framed
}

// HashFramed frames content under objType and returns both the digest of
// the framed buffer and the buffer itself, so the caller can write it to
// the object store without recomputing it.
func HashFramed(objType ObjectType, content []byte) (Hash, []byte) {
	framed := Frame(objType, content)
	return HashBytes(framed), framed
}
