// Package proof implements the nonce search, the proof bundle it produces,
// and the verification procedure that replays the search's walk from the
// disclosed antecedents and Merkle opening alone.
package proof

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Le-Maz/itsuku/config"
	"github.com/Le-Maz/itsuku/logger"
	"github.com/Le-Maz/itsuku/pkg/challenge"
	"github.com/Le-Maz/itsuku/pkg/memory"
	"github.com/Le-Maz/itsuku/pkg/merkle"
)

// Proof is a complete PoW solution. It owns its maps and the elements and
// hashes they reference; the challenge is shared immutably with the rest of
// the system.
type Proof struct {
	Config    config.Config
	Challenge *challenge.ID
	// Nonce is the winning 64-bit nonce.
	Nonce uint64
	// LeafAntecedents maps each visited leaf index to the antecedent
	// elements that reconstruct it: a single seed element, or the n
	// compression inputs.
	LeafAntecedents map[uint64][]memory.Element
	// TreeOpening maps Merkle node indices to their truncated hashes: every
	// visited leaf node, every ancestor of those leaves up to and including
	// the root, and the sibling of each non-root node on those paths.
	TreeOpening map[uint64][]byte
}

// errWinner stops the remaining search workers once one of them has
// published a proof.
var errWinner = errors.New("proof found")

// Search scans nonces until one produces an omega digest with the required
// number of leading zero bits, using one worker per CPU. It returns the
// assembled proof, or (nil, nil) if the nonce domain is exhausted, or the
// context error if cancelled. Memory and tree must be fully built.
func Search(ctx context.Context, cfg config.Config, id *challenge.ID, mem *memory.Memory, tree *merkle.Tree) (*Proof, error) {
	return SearchWithWorkers(ctx, cfg, id, mem, tree, runtime.NumCPU())
}

// SearchWithWorkers is Search with an explicit worker count. Worker w of W
// scans the nonces w+1, w+1+W, w+1+2W, ...; with a single worker the
// schedule is the monotone sequence 1, 2, 3, ... The per-nonce omega
// computation is identical for every partitioning, so a proof found by any
// schedule verifies the same. The first worker to find a proof publishes it
// and stops the rest.
func SearchWithWorkers(ctx context.Context, cfg config.Config, id *challenge.ID, mem *memory.Memory, tree *merkle.Tree, workers int) (*Proof, error) {
	if workers < 1 {
		workers = 1
	}
	start := time.Now()
	total := cfg.TotalElements()
	root := padRoot(tree.Root())
	oracle := func(i uint64) (memory.Element, bool) {
		return mem.Get(i), true
	}

	var (
		mu     sync.Mutex
		winner *Proof
	)

	g, gctx := errgroup.WithContext(ctx)
	stride := uint64(workers)
	for w := 0; w < workers; w++ {
		first := uint64(w) + 1
		g.Go(func() error {
			for nonce := first; ; nonce += stride {
				if err := gctx.Err(); err != nil {
					return err
				}
				omega, visited, _ := computeOmega(cfg, id, &root, total, nonce, oracle)
				if LeadingZeros(omega[:]) >= int(cfg.DifficultyBits) {
					p := assemble(cfg, id, nonce, visited, mem, tree)
					mu.Lock()
					if winner == nil {
						winner = p
					}
					mu.Unlock()
					return errWinner
				}
				if nonce > math.MaxUint64-stride {
					// This worker's nonce subrange is exhausted.
					return nil
				}
			}
		})
	}
	err := g.Wait()

	mu.Lock()
	found := winner
	mu.Unlock()
	if found != nil {
		l := logger.Logger()
		l.Info().
			Uint64("nonce", found.Nonce).
			Int("workers", workers).
			Dur("took", time.Since(start)).
			Msg("proof found")
		return found, nil
	}
	if err != nil && !errors.Is(err, errWinner) {
		return nil, err
	}
	return nil, nil
}

// assemble builds the proof bundle for a winning nonce: the antecedent list
// of every visited leaf plus the Merkle opening covering them.
func assemble(cfg config.Config, id *challenge.ID, nonce uint64, visited []uint64, mem *memory.Memory, tree *merkle.Tree) *Proof {
	total := cfg.TotalElements()
	leafAntecedents := make(map[uint64][]memory.Element, len(visited))
	treeOpening := make(map[uint64][]byte)

	for _, leaf := range visited {
		if _, done := leafAntecedents[leaf]; done {
			continue
		}
		leafAntecedents[leaf] = mem.Trace(leaf)
		tree.Trace(total-1+leaf, treeOpening)
	}

	return &Proof{
		Config:          cfg,
		Challenge:       id,
		Nonce:           nonce,
		LeafAntecedents: leafAntecedents,
		TreeOpening:     treeOpening,
	}
}
