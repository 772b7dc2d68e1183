package memory

import "encoding/binary"

// Argon2Index derives a 64-bit antecedent seed from the previous element and
// the index of the element being computed, following the index mapping of
// RFC 9106 section 3.4.2. seed holds the first four bytes of the previous
// element, read little-endian as a 32-bit value. All arithmetic wraps
// modulo 2^64.
func Argon2Index(seed [4]byte, originalIndex uint64) uint64 {
	s := uint64(binary.LittleEndian.Uint32(seed[:]))
	x := (s * s) >> 32
	y := (originalIndex * x) >> 32
	return originalIndex - 1 - y
}

// PhiVariant maps (originalIndex, argon2Index) to an antecedent index in
// [0, originalIndex) under one of twelve selection rules. variant is taken
// modulo 12. For originalIndex 0 it returns 0. All intermediate products and
// sums wrap modulo 2^64; divisions are floor.
func PhiVariant(originalIndex, argon2Index, variant uint64) uint64 {
	i, phi := originalIndex, argon2Index
	if i == 0 {
		return 0
	}

	var index uint64
	switch variant % 12 {
	case 0:
		index = i - 1
	case 1:
		index = phi
	case 2:
		index = (phi + i) / 2
	case 3:
		index = 7 * i / 8
	case 4:
		index = (phi + 3*i) / 4
	case 5:
		index = (phi + 5*i) / 8
	case 6:
		index = 3 * i / 4
	case 7:
		index = i / 2
	case 8:
		index = i / 4
	case 9:
		index = 0
	case 10:
		index = 7 * phi / 8
	case 11:
		index = 7 * i / 8
	}

	return index % i
}
