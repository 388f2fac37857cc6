package object

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compress deflates data with zlib framing. The empty slice compresses to
// a small non-empty zlib stream, same as any other input.
func Compress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	// zlib.Writer.Write never fails against a bytes.Buffer sink.
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

// Decompress reverses Compress. It returns a wrapped error (not a panic)
// on truncated or non-zlib input so callers can surface it as Corrupted.
func Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}
