// Package memory implements the challenge-keyed memory array of the PoW
// scheme: P chunks of l elements each, filled by a per-chunk recurrence
// whose first n elements are hash-seeded and whose remaining elements
// compress n in-chunk antecedents.
package memory

import (
	"context"
	"encoding/binary"
	"runtime"
	"sync"
	"time"

	"github.com/Le-Maz/itsuku/config"
	"github.com/Le-Maz/itsuku/logger"
	"github.com/Le-Maz/itsuku/pkg/challenge"
	"github.com/Le-Maz/itsuku/pkg/crypto"
)

// Memory is the full two-dimensional element array. It is populated exactly
// once by BuildAll and read-only afterwards, so concurrent reads during
// search and tree building are race-free.
type Memory struct {
	cfg    config.Config
	chunks [][]Element
}

// New allocates a zeroed Memory of cfg.ChunkCount chunks with
// cfg.ChunkSize elements each.
func New(cfg config.Config) *Memory {
	chunks := make([][]Element, cfg.ChunkCount)
	for c := range chunks {
		chunks[c] = make([]Element, cfg.ChunkSize)
	}
	return &Memory{cfg: cfg, chunks: chunks}
}

// Config returns the configuration the memory was allocated for.
func (m *Memory) Config() config.Config {
	return m.cfg
}

// Get returns the element at flat index i. Index i resides in chunk
// i / ChunkSize at offset i % ChunkSize.
func (m *Memory) Get(i uint64) Element {
	return m.chunks[i/m.cfg.ChunkSize][i%m.cfg.ChunkSize]
}

// BuildAll fills every chunk. Chunks are independent and are built by a
// worker pool; within a chunk the recurrence is strictly sequential. The
// context is checked between chunks, so cancellation leaves the memory
// partially built and unusable.
func (m *Memory) BuildAll(ctx context.Context, id *challenge.ID) error {
	start := time.Now()

	numWorkers := runtime.NumCPU()
	if numWorkers > len(m.chunks) {
		numWorkers = len(m.chunks)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	work := make(chan uint64, len(m.chunks))
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range work {
				if ctx.Err() != nil {
					return
				}
				m.buildChunk(c, id)
			}
		}()
	}
	for c := uint64(0); c < m.cfg.ChunkCount; c++ {
		work <- c
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	l := logger.Logger()
	l.Debug().
		Uint64("chunks", m.cfg.ChunkCount).
		Uint64("elements", m.cfg.TotalElements()).
		Dur("took", time.Since(start)).
		Msg("memory built")
	return nil
}

// buildChunk fills chunk c: the first n elements are seeded from
// H(le64(m) || le64(c) || I), the rest compress n antecedents selected by
// the indexing primitives.
func (m *Memory) buildChunk(c uint64, id *challenge.ID) {
	cfg := m.cfg
	chunk := m.chunks[c]

	var le [16]byte
	binary.LittleEndian.PutUint64(le[8:], c)
	for e := uint64(0); e < cfg.AntecedentCount; e++ {
		binary.LittleEndian.PutUint64(le[:8], e)
		sum := crypto.Sum512(le[:8], le[8:], id.Bytes())
		chunk[e] = ElementFromBytes(sum[:])
	}

	indices := make([]uint64, cfg.AntecedentCount)
	antecedents := make([]Element, cfg.AntecedentCount)
	for e := cfg.AntecedentCount; e < cfg.ChunkSize; e++ {
		antecedentIndices(cfg, chunk, e, indices)
		for k, a := range indices {
			antecedents[k] = chunk[a]
		}
		chunk[e] = Compress(antecedents, c*cfg.ChunkSize+e, id)
	}
}

// antecedentIndices computes the n in-chunk antecedent indices of element
// elementIndex into buf. All indices are strictly below elementIndex.
func antecedentIndices(cfg config.Config, chunk []Element, elementIndex uint64, buf []uint64) {
	var seed [4]byte
	binary.LittleEndian.PutUint32(seed[:], uint32(chunk[elementIndex-1][0]))
	phi := Argon2Index(seed, elementIndex)

	for k := range buf {
		buf[k] = PhiVariant(elementIndex, phi, uint64(k)) % cfg.ChunkSize
	}
}

// Compress is the compression function Phi: it folds the antecedents, the
// global element position g and the challenge into one new element.
//
// Even-positioned antecedents are summed lane-wise and tagged with g in
// lane 0; odd-positioned antecedents are summed lane-wise and XORed with
// the challenge bytes. The output is the 512-bit hash of both halves.
// Verification reconstructs disclosed leaves with the same function, so any
// change here is a protocol change.
func Compress(antecedents []Element, g uint64, id *challenge.ID) Element {
	var even, odd Element
	for k := range antecedents {
		if k%2 == 0 {
			even.Add(&antecedents[k])
		} else {
			odd.Add(&antecedents[k])
		}
	}
	even[0] ^= g
	odd.XorBytes(id.Bytes())

	evenBytes := even.Bytes()
	oddBytes := odd.Bytes()
	sum := crypto.Sum512(evenBytes[:], oddBytes[:])
	return ElementFromBytes(sum[:])
}

// Trace returns the antecedents needed to reconstruct the element at
// leafIndex. Seed elements carry no antecedents, so the element itself is
// returned as a single-entry list; for compressed elements the n antecedent
// elements are returned in variant order.
func (m *Memory) Trace(leafIndex uint64) []Element {
	cfg := m.cfg
	c := leafIndex / cfg.ChunkSize
	offset := leafIndex % cfg.ChunkSize

	if offset < cfg.AntecedentCount {
		return []Element{m.chunks[c][offset]}
	}

	chunk := m.chunks[c]
	indices := make([]uint64, cfg.AntecedentCount)
	antecedentIndices(cfg, chunk, offset, indices)

	antecedents := make([]Element, cfg.AntecedentCount)
	for k, a := range indices {
		antecedents[k] = chunk[a]
	}
	return antecedents
}
