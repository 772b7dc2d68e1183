// Package crypto wraps the BLAKE3 hash primitive used throughout the PoW
// scheme. Every digest in the protocol (memory seeds, compression outputs,
// Merkle nodes, walk steps, the final omega) comes from these helpers;
// substituting the primitive changes every byte of memory and every proof.
package crypto

import "lukechampine.com/blake3"

// DigestSize is the full digest width in bytes (512 bits).
const DigestSize = 64

// Sum512 returns the 64-byte BLAKE3 digest of the concatenation of parts.
func Sum512(parts ...[]byte) [DigestSize]byte {
	h := blake3.New(DigestSize, nil)
	for _, p := range parts {
		h.Write(p)
	}
	var out [DigestSize]byte
	h.Sum(out[:0])
	return out
}

// Sum returns the size-byte BLAKE3 digest of the concatenation of parts.
// BLAKE3 is an extendable-output function, so a truncated digest is the
// prefix of the full one.
func Sum(size int, parts ...[]byte) []byte {
	h := blake3.New(size, nil)
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// SumInto writes the len(dst)-byte BLAKE3 digest of the concatenation of
// parts into dst, without allocating.
func SumInto(dst []byte, parts ...[]byte) {
	h := blake3.New(len(dst), nil)
	for _, p := range parts {
		h.Write(p)
	}
	h.Sum(dst[:0])
}

// New returns a streaming hasher producing a size-byte digest, for call
// sites that feed input incrementally.
func New(size int) *blake3.Hasher {
	return blake3.New(size, nil)
}
