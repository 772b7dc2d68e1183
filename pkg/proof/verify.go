package proof

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Le-Maz/itsuku/pkg/crypto"
	"github.com/Le-Maz/itsuku/pkg/memory"
	"github.com/Le-Maz/itsuku/pkg/merkle"
)

// Verification failure kinds. For a proof whose config passes validation,
// Verify returns exactly one of these (or nil), each naming the first
// inconsistency found; a config that fails validation is reported as the
// wrapped validation error instead.
var (
	// ErrInvalidAntecedentCount reports a leaf whose antecedent list length
	// does not match its position class (one for seed elements, n for
	// compressed ones).
	ErrInvalidAntecedentCount = errors.New("antecedent count does not match the leaf's position class")
	// ErrMissingOpeningForLeaf reports a reconstructed leaf with no
	// corresponding node in the tree opening.
	ErrMissingOpeningForLeaf = errors.New("tree opening has no entry for a required leaf node")
	// ErrLeafHashMismatch reports a recomputed leaf hash that differs from
	// the disclosed one.
	ErrLeafHashMismatch = errors.New("recomputed leaf hash differs from the disclosed one")
	// ErrIntermediateHashMismatch reports an internal node recomputed during
	// ascent that differs from the disclosed one.
	ErrIntermediateHashMismatch = errors.New("recomputed intermediate hash differs from the disclosed one")
	// ErrMissingChildNode reports a sibling or path node required to ascend
	// that is absent from the tree opening.
	ErrMissingChildNode = errors.New("node required to ascend the tree is absent from the opening")
	// ErrMissingMerkleRoot reports a tree opening without node index 0.
	ErrMissingMerkleRoot = errors.New("tree opening has no root node")
	// ErrUnprovenLeafInPath reports a replayed walk that selects a leaf
	// absent from the disclosed antecedents.
	ErrUnprovenLeafInPath = errors.New("replayed walk selects a leaf with no disclosed antecedents")
	// ErrDifficultyNotMet reports an omega digest with fewer leading zero
	// bits than the difficulty demands.
	ErrDifficultyNotMet = errors.New("omega digest has too few leading zero bits")
	// ErrRequiredElementMissing reports a proof missing one of its required
	// components.
	ErrRequiredElementMissing = errors.New("proof is missing a required component")
)

// Verify checks the proof without access to the full memory or tree. It
// reconstructs the visited leaves from their antecedents, confirms them
// against the Merkle opening, re-derives every intermediate hash up to the
// root, replays the walk with the reconstructed leaves as its memory, and
// checks the leading-zero count of the resulting omega. A nil return means
// the proof is valid; any other return names the first failed check.
func (p *Proof) Verify() error {
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid proof config: %w", err)
	}
	if p.Challenge == nil || p.LeafAntecedents == nil || p.TreeOpening == nil {
		return ErrRequiredElementMissing
	}
	total := cfg.TotalElements()
	nodeSize := merkle.NodeWidth(cfg)

	// Stage 1: reconstruct the visited elements from their antecedents.
	elements := make(map[uint64]memory.Element, len(p.LeafAntecedents))
	for leaf, antecedents := range p.LeafAntecedents {
		if leaf%cfg.ChunkSize < cfg.AntecedentCount {
			if len(antecedents) != 1 {
				return ErrInvalidAntecedentCount
			}
			elements[leaf] = antecedents[0]
		} else {
			if uint64(len(antecedents)) != cfg.AntecedentCount {
				return ErrInvalidAntecedentCount
			}
			elements[leaf] = memory.Compress(antecedents, leaf, p.Challenge)
		}
	}

	// Stage 2: the reconstructed leaves must hash to the disclosed leaf
	// nodes.
	for leaf, element := range elements {
		elementBytes := element.Bytes()
		leafHash := crypto.Sum(nodeSize, elementBytes[:], p.Challenge.Bytes())

		disclosed, found := p.TreeOpening[total-1+leaf]
		if !found {
			return ErrMissingOpeningForLeaf
		}
		if !bytes.Equal(leafHash, disclosed) {
			return ErrLeafHashMismatch
		}
	}

	// Stage 3: ascend from every verified leaf to the root, confirming each
	// disclosed intermediate hash on the way.
	if _, found := p.TreeOpening[0]; !found {
		return ErrMissingMerkleRoot
	}
	for leaf := range elements {
		v := total - 1 + leaf
		for v != 0 {
			current, found := p.TreeOpening[v]
			if !found {
				return ErrMissingChildNode
			}
			sibling, found := p.TreeOpening[merkle.Sibling(v)]
			if !found {
				return ErrMissingChildNode
			}

			// Odd indices are left children.
			var parentHash []byte
			if v%2 == 1 {
				parentHash = crypto.Sum(nodeSize, current, sibling, p.Challenge.Bytes())
			} else {
				parentHash = crypto.Sum(nodeSize, sibling, current, p.Challenge.Bytes())
			}

			parent := merkle.Parent(v)
			disclosed, found := p.TreeOpening[parent]
			if !found {
				return ErrMissingChildNode
			}
			if !bytes.Equal(parentHash, disclosed) {
				return ErrIntermediateHashMismatch
			}
			v = parent
		}
	}

	// Stage 4: replay the walk with the reconstructed leaves as the memory
	// oracle and check the difficulty target.
	root := padRoot(p.TreeOpening[0])
	oracle := func(index uint64) (memory.Element, bool) {
		element, found := elements[index]
		return element, found
	}
	omega, _, ok := computeOmega(cfg, p.Challenge, &root, total, p.Nonce, oracle)
	if !ok {
		return ErrUnprovenLeafInPath
	}
	if LeadingZeros(omega[:]) < int(cfg.DifficultyBits) {
		return ErrDifficultyNotMet
	}
	return nil
}
