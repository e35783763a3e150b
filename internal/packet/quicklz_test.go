package packet

import (
	"bytes"
	"testing"
)

func TestQuickLZRoundtrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		[]byte("clientinit nickname=foo version=1.2.3 platform=Linux|clientinit nickname=bar"),
		bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 50),
	}
	for _, src := range cases {
		compressed := Compress(src)
		got, err := Decompress(compressed)
		if err != nil {
			t.Fatalf("Decompress: %v", err)
		}
		if !bytes.Equal(got, src) {
			t.Fatalf("roundtrip mismatch: got %d bytes, want %d", len(got), len(src))
		}
	}
}

func TestQuickLZCompressesRepetitiveData(t *testing.T) {
	src := bytes.Repeat([]byte("abcdefgh"), 200)
	compressed := Compress(src)
	if len(compressed) >= len(src) {
		t.Fatalf("expected compression to shrink repetitive data: %d >= %d", len(compressed), len(src))
	}
}

func TestQuickLZDecompressRejectsBadDistance(t *testing.T) {
	bad := []byte{5, 0, 0, 0, 0x01, 0, 0, 0}
	if _, err := Decompress(bad); err == nil {
		t.Fatalf("expected error for out-of-range back-reference")
	}
}
