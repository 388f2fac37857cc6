package object

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := []byte("the quick brown fox jumps over the lazy dog, repeated: " + strings.Repeat("abc", 100))

	compressed := Compress(original)
	got, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(original))
	}
}

func TestCompressEmpty(t *testing.T) {
	compressed := Compress(nil)
	if len(compressed) == 0 {
		t.Errorf("Compress(nil) returned empty output, want a valid zlib stream")
	}
	got, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Decompress(Compress(nil)) = %v, want empty", got)
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	if _, err := Decompress([]byte("not a zlib stream")); err == nil {
		t.Errorf("Decompress(garbage) = nil error, want error")
	}
}
