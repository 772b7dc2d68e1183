package proof

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/Le-Maz/itsuku/config"
	"github.com/Le-Maz/itsuku/pkg/challenge"
	"github.com/Le-Maz/itsuku/pkg/memory"
	"github.com/Le-Maz/itsuku/pkg/merkle"
)

// Binary proof format, all integers little-endian:
//
//	uint64 x5   config (chunk size, chunk count, antecedents, difficulty, L)
//	uint64      challenge length, followed by the challenge bytes verbatim
//	uint64      nonce
//	uint64      leaf entry count
//	  per entry (sorted by key):
//	    uint64  leaf index | uint32 element count | 64-byte elements
//	uint64      opening entry count
//	  per entry (sorted by key):
//	    uint64  node index | node hash (NodeWidth(config) bytes)
//
// Keys are sorted so that the encoding is deterministic; verification does
// not depend on the order.

const (
	maxChallengeLen = 1 << 20
	maxMapEntries   = 1 << 24
)

// MarshalBinary encodes the proof in the deterministic binary format above.
func (p *Proof) MarshalBinary() ([]byte, error) {
	if p.Challenge == nil || p.LeafAntecedents == nil || p.TreeOpening == nil {
		return nil, ErrRequiredElementMissing
	}

	var buf bytes.Buffer
	w := func(v any) {
		binary.Write(&buf, binary.LittleEndian, v)
	}

	w(p.Config.ChunkSize)
	w(p.Config.ChunkCount)
	w(p.Config.AntecedentCount)
	w(p.Config.DifficultyBits)
	w(p.Config.SearchLength)

	w(uint64(p.Challenge.Len()))
	buf.Write(p.Challenge.Bytes())

	w(p.Nonce)

	leafKeys := sortedKeys(p.LeafAntecedents)
	w(uint64(len(leafKeys)))
	for _, leaf := range leafKeys {
		antecedents := p.LeafAntecedents[leaf]
		w(leaf)
		w(uint32(len(antecedents)))
		for i := range antecedents {
			elementBytes := antecedents[i].Bytes()
			buf.Write(elementBytes[:])
		}
	}

	nodeKeys := sortedKeys(p.TreeOpening)
	w(uint64(len(nodeKeys)))
	for _, node := range nodeKeys {
		w(node)
		buf.Write(p.TreeOpening[node])
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a proof encoded by MarshalBinary. The decoded
// proof owns all of its data; the input slice may be reused afterwards.
func (p *Proof) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	read := func(v any) error {
		return binary.Read(r, binary.LittleEndian, v)
	}

	var cfg config.Config
	for _, field := range []*uint64{
		&cfg.ChunkSize, &cfg.ChunkCount, &cfg.AntecedentCount,
		&cfg.DifficultyBits, &cfg.SearchLength,
	} {
		if err := read(field); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("decoded config: %w", err)
	}

	var challengeLen uint64
	if err := read(&challengeLen); err != nil {
		return fmt.Errorf("read challenge length: %w", err)
	}
	if challengeLen > maxChallengeLen {
		return fmt.Errorf("challenge length %d exceeds limit", challengeLen)
	}
	challengeBytes := make([]byte, challengeLen)
	if _, err := io.ReadFull(r, challengeBytes); err != nil {
		return fmt.Errorf("read challenge: %w", err)
	}

	var nonce uint64
	if err := read(&nonce); err != nil {
		return fmt.Errorf("read nonce: %w", err)
	}

	var leafCount uint64
	if err := read(&leafCount); err != nil {
		return fmt.Errorf("read leaf count: %w", err)
	}
	if leafCount > maxMapEntries {
		return fmt.Errorf("leaf entry count %d exceeds limit", leafCount)
	}
	leafAntecedents := make(map[uint64][]memory.Element, leafCount)
	var elementBytes [memory.ElementSize]byte
	for i := uint64(0); i < leafCount; i++ {
		var leaf uint64
		var elementCount uint32
		if err := read(&leaf); err != nil {
			return fmt.Errorf("read leaf %d index: %w", i, err)
		}
		if err := read(&elementCount); err != nil {
			return fmt.Errorf("read leaf %d element count: %w", i, err)
		}
		if uint64(elementCount) > cfg.AntecedentCount && elementCount != 1 {
			return fmt.Errorf("leaf %d element count %d exceeds antecedent count", i, elementCount)
		}
		antecedents := make([]memory.Element, elementCount)
		for k := range antecedents {
			if _, err := io.ReadFull(r, elementBytes[:]); err != nil {
				return fmt.Errorf("read leaf %d element %d: %w", i, k, err)
			}
			antecedents[k] = memory.ElementFromBytes(elementBytes[:])
		}
		leafAntecedents[leaf] = antecedents
	}

	nodeSize := merkle.NodeWidth(cfg)
	var nodeCount uint64
	if err := read(&nodeCount); err != nil {
		return fmt.Errorf("read opening count: %w", err)
	}
	if nodeCount > maxMapEntries {
		return fmt.Errorf("opening entry count %d exceeds limit", nodeCount)
	}
	treeOpening := make(map[uint64][]byte, nodeCount)
	for i := uint64(0); i < nodeCount; i++ {
		var node uint64
		if err := read(&node); err != nil {
			return fmt.Errorf("read opening %d index: %w", i, err)
		}
		hash := make([]byte, nodeSize)
		if _, err := io.ReadFull(r, hash); err != nil {
			return fmt.Errorf("read opening %d hash: %w", i, err)
		}
		treeOpening[node] = hash
	}

	if r.Len() != 0 {
		return fmt.Errorf("%d trailing bytes after proof", r.Len())
	}

	p.Config = cfg
	p.Challenge = challenge.New(challengeBytes)
	p.Nonce = nonce
	p.LeafAntecedents = leafAntecedents
	p.TreeOpening = treeOpening
	return nil
}

// sortedKeys returns the map's keys in ascending order.
func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
