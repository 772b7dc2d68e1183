// Package config holds the parameters governing a single proof-of-work
// instance. A Config is a plain value: copy it freely, never mutate one that
// a Memory or Tree was built from.
package config

import "fmt"

// Config describes one Itsuku PoW instance.
type Config struct {
	// ChunkSize (l) is the number of 64-byte elements per memory chunk.
	ChunkSize uint64
	// ChunkCount (P) is the number of chunks; total memory is P*l elements.
	ChunkCount uint64
	// AntecedentCount (n) is the number of in-chunk predecessors compressed
	// into each non-seed element. Must satisfy 1 <= n <= l.
	AntecedentCount uint64
	// DifficultyBits (d) is the required number of leading zero bits in the
	// final omega digest.
	DifficultyBits uint64
	// SearchLength (L) is the number of memory reads in the nonce-driven walk.
	SearchLength uint64
}

// Default returns the reference parameters: l = 2^15, P = 2^10, n = 4,
// d = 24, L = 9.
func Default() Config {
	return Config{
		ChunkSize:       1 << 15,
		ChunkCount:      1 << 10,
		AntecedentCount: 4,
		DifficultyBits:  24,
		SearchLength:    9,
	}
}

// TotalElements returns T = P*l, the flat memory size in elements.
func (c Config) TotalElements() uint64 {
	return c.ChunkCount * c.ChunkSize
}

// NodeCount returns the number of Merkle tree nodes, 2T-1.
func (c Config) NodeCount() uint64 {
	return 2*c.TotalElements() - 1
}

// Validate checks the structural invariants every other package relies on.
func (c Config) Validate() error {
	if c.ChunkSize == 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if c.ChunkCount == 0 {
		return fmt.Errorf("chunk count must be positive")
	}
	if c.AntecedentCount < 1 || c.AntecedentCount > c.ChunkSize {
		return fmt.Errorf("antecedent count %d outside [1, %d]", c.AntecedentCount, c.ChunkSize)
	}
	if c.SearchLength < 1 {
		return fmt.Errorf("search length must be at least 1")
	}
	if c.TotalElements() < 2 {
		return fmt.Errorf("total element count %d below minimum 2", c.TotalElements())
	}
	return nil
}
