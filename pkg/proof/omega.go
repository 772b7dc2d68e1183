package proof

import (
	"encoding/binary"
	"math/bits"

	"github.com/Le-Maz/itsuku/config"
	"github.com/Le-Maz/itsuku/pkg/challenge"
	"github.com/Le-Maz/itsuku/pkg/crypto"
	"github.com/Le-Maz/itsuku/pkg/memory"
)

// elementOracle resolves a flat memory index to an element. The prover backs
// it with full memory; the verifier backs it with the reconstructed leaves,
// where a miss means the proof under-disclosed antecedents.
type elementOracle func(index uint64) (memory.Element, bool)

// computeOmega runs the L-step walk for one nonce and returns the final
// omega digest together with the visited leaf indices.
//
// The walk starts from Y_0 = H(le64(nonce) || root || I). Each step selects
// the leaf from the first eight bytes of the previous digest, mixes the
// challenge into the element and hashes it onto the chain. Omega is the
// digest of the chain in reverse order, Y_L down to Y_1, followed by the
// challenge-mixed Y_0. ok is false when the oracle failed to resolve a
// selected leaf; visited then holds the indices up to and including the
// missing one.
func computeOmega(cfg config.Config, id *challenge.ID, root *[crypto.DigestSize]byte, total uint64, nonce uint64, at elementOracle) (omega [crypto.DigestSize]byte, visited []uint64, ok bool) {
	steps := cfg.SearchLength
	ys := make([][crypto.DigestSize]byte, steps+1)

	var nonceLE [8]byte
	binary.LittleEndian.PutUint64(nonceLE[:], nonce)
	ys[0] = crypto.Sum512(nonceLE[:], root[:], id.Bytes())

	visited = make([]uint64, 0, steps)
	for j := uint64(0); j < steps; j++ {
		index := binary.LittleEndian.Uint64(ys[j][:8]) % total
		visited = append(visited, index)

		element, found := at(index)
		if !found {
			return omega, visited, false
		}
		element.XorBytes(id.Bytes())
		elementBytes := element.Bytes()
		ys[j+1] = crypto.Sum512(ys[j][:], elementBytes[:])
	}

	h := crypto.New(crypto.DigestSize)
	for j := steps; j >= 1; j-- {
		h.Write(ys[j][:])
	}
	e0 := memory.ElementFromBytes(ys[0][:])
	e0.XorBytes(id.Bytes())
	e0Bytes := e0.Bytes()
	h.Write(e0Bytes[:])
	h.Sum(omega[:0])

	return omega, visited, true
}

// padRoot places the M-byte root in the low-order bytes of an omega-sized
// buffer, zero-filling the rest. The padding is part of the protocol and is
// reproduced identically by prover and verifier.
func padRoot(root []byte) [crypto.DigestSize]byte {
	var out [crypto.DigestSize]byte
	copy(out[:], root)
	return out
}

// LeadingZeros counts the most-significant zero bits across the
// concatenation b[0] || b[1] || ...
func LeadingZeros(b []byte) int {
	n := 0
	for _, x := range b {
		if x == 0 {
			n += 8
			continue
		}
		n += bits.LeadingZeros8(x)
		break
	}
	return n
}
