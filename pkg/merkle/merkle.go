// Package merkle implements the commitment tree over the PoW memory: a
// complete binary tree stored as a flat node array, with every node
// truncated to the same width derived from difficulty and search length.
package merkle

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Le-Maz/itsuku/config"
	"github.com/Le-Maz/itsuku/logger"
	"github.com/Le-Maz/itsuku/pkg/challenge"
	"github.com/Le-Maz/itsuku/pkg/crypto"
	"github.com/Le-Maz/itsuku/pkg/memory"
)

// memoryCost is the memory-cost constant c_x in the node width formula.
const memoryCost = 1.0

// NodeWidth returns M, the truncated node hash width in bytes:
//
//	M = ceil((d + log2(1 + (c_x*L + ceil(L/2))) + 6) / 8)
//
// This sizes nodes just wide enough that collision probability in an L-step
// walk stays negligible at difficulty d.
func NodeWidth(cfg config.Config) int {
	l := float64(cfg.SearchLength)
	paths := memoryCost*l + math.Ceil(l/2)
	bits := float64(cfg.DifficultyBits) + math.Log2(1+paths) + 6
	return int(math.Ceil(bits / 8))
}

// Tree is a complete binary Merkle tree over the memory elements, stored as
// one flat byte buffer of 2T-1 nodes of NodeWidth bytes each. Node 0 is the
// root; the children of node k are 2k+1 and 2k+2; leaves occupy indices
// T-1 .. 2T-2 and correspond one-to-one with memory elements 0 .. T-1.
type Tree struct {
	cfg      config.Config
	nodeSize int
	nodes    []byte
}

// New allocates a zeroed tree sized for cfg.
func New(cfg config.Config) *Tree {
	nodeSize := NodeWidth(cfg)
	return &Tree{
		cfg:      cfg,
		nodeSize: nodeSize,
		nodes:    make([]byte, cfg.NodeCount()*uint64(nodeSize)),
	}
}

// Config returns the configuration the tree was allocated for.
func (t *Tree) Config() config.Config {
	return t.cfg
}

// NodeSize returns the node width M in bytes.
func (t *Tree) NodeSize() int {
	return t.nodeSize
}

// Node returns the stored hash of the node at index. The returned slice
// aliases the tree's buffer; callers must copy it before holding on to it.
func (t *Tree) Node(index uint64) []byte {
	off := index * uint64(t.nodeSize)
	return t.nodes[off : off+uint64(t.nodeSize)]
}

// Root returns the root node hash (index 0).
func (t *Tree) Root() []byte {
	return t.Node(0)
}

// ComputeLeaves fills every leaf node with H(element || I) truncated to the
// node width. Leaves are independent and hashed by a worker pool over
// contiguous spans.
func (t *Tree) ComputeLeaves(id *challenge.ID, mem *memory.Memory) {
	start := time.Now()
	total := t.cfg.TotalElements()

	numWorkers := uint64(runtime.NumCPU())
	if numWorkers > total {
		numWorkers = total
	}
	span := (total + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := uint64(0); w < numWorkers; w++ {
		lo, hi := w*span, (w+1)*span
		if hi > total {
			hi = total
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				element := mem.Get(i)
				elementBytes := element.Bytes()
				crypto.SumInto(t.Node(total-1+i), elementBytes[:], id.Bytes())
			}
		}()
	}
	wg.Wait()

	l := logger.Logger()
	l.Debug().
		Uint64("leaves", total).
		Dur("took", time.Since(start)).
		Msg("merkle leaves hashed")
}

// ComputeIntermediates fills every internal node with H(left || right || I)
// truncated to the node width, descending from the last parent to the root.
// ComputeLeaves must have run first.
func (t *Tree) ComputeIntermediates(id *challenge.ID) {
	start := time.Now()
	total := t.cfg.TotalElements()

	for p := int64(total) - 2; p >= 0; p-- {
		left, right := childrenOf(uint64(p))
		crypto.SumInto(t.Node(uint64(p)), t.Node(left), t.Node(right), id.Bytes())
	}

	l := logger.Logger()
	l.Debug().
		Uint64("nodes", total-1).
		Dur("took", time.Since(start)).
		Msg("merkle intermediates hashed")
}

// Trace inserts into opening the authentication path of the node at index:
// the node itself and each of its ancestors up to the root, plus the sibling
// of every non-root node on that path. Hash bytes are copied, so the opening
// stays valid after the tree is discarded.
func (t *Tree) Trace(index uint64, opening map[uint64][]byte) {
	v := index
	for v != 0 {
		s := Sibling(v)
		opening[v] = cloneNode(t.Node(v))
		opening[s] = cloneNode(t.Node(s))
		v = Parent(v)
	}
	opening[0] = cloneNode(t.Node(0))
}

// childrenOf returns the node indices of the two children of parent index.
func childrenOf(index uint64) (left, right uint64) {
	return 2*index + 1, 2*index + 2
}

// Sibling returns the index of the other child of v's parent. v must not
// be the root: even nodes are right children with the sibling at v-1, odd
// nodes are left children with the sibling at v+1.
func Sibling(v uint64) uint64 {
	if v%2 == 0 {
		return v - 1
	}
	return v + 1
}

// Parent returns the index of v's parent. v must not be the root.
func Parent(v uint64) uint64 {
	return (v - 1) / 2
}

func cloneNode(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
