package crypto

import (
	"bytes"
	"testing"
)

func TestSumIsPrefixOfSum512(t *testing.T) {
	// Truncated digests must be prefixes of the full 512-bit digest, which
	// is what makes variable node widths cheap.
	full := Sum512([]byte("itsuku"), []byte("pow"))
	for _, size := range []int{1, 5, 10, 32, 64} {
		short := Sum(size, []byte("itsuku"), []byte("pow"))
		if !bytes.Equal(short, full[:size]) {
			t.Fatalf("Sum(%d) is not a prefix of Sum512", size)
		}
	}
}

func TestSumSplitInvariance(t *testing.T) {
	// Part boundaries must not affect the digest.
	a := Sum512([]byte("ab"), []byte("cd"))
	b := Sum512([]byte("abcd"))
	c := Sum512([]byte("a"), []byte("b"), []byte("c"), []byte("d"))
	if a != b || b != c {
		t.Fatal("digest depends on part boundaries")
	}
}

func TestSumInto(t *testing.T) {
	want := Sum(5, []byte("node"))
	dst := make([]byte, 5)
	SumInto(dst, []byte("node"))
	if !bytes.Equal(dst, want) {
		t.Fatal("SumInto differs from Sum")
	}
}

func TestStreamingMatchesOneShot(t *testing.T) {
	h := New(DigestSize)
	h.Write([]byte("omega"))
	h.Write([]byte("chain"))
	streamed := h.Sum(nil)

	oneShot := Sum512([]byte("omega"), []byte("chain"))
	if !bytes.Equal(streamed, oneShot[:]) {
		t.Fatal("streaming digest differs from one-shot")
	}
}
