// Package itsuku implements an Itsuku-style memory-hard proof-of-work: a
// prover fills a large challenge-keyed memory, commits to it with a Merkle
// tree, and searches for a nonce whose pseudo-random walk over the memory
// ends in a digest with enough leading zero bits. The resulting proof is
// compact and verified from the disclosed antecedents and Merkle opening
// alone, at a small fraction of the prover's cost.
//
// The subpackages expose every phase separately; this package wires them
// into the standard prover pipeline.
package itsuku

import (
	"context"
	"fmt"
	"time"

	"github.com/Le-Maz/itsuku/config"
	"github.com/Le-Maz/itsuku/logger"
	"github.com/Le-Maz/itsuku/pkg/challenge"
	"github.com/Le-Maz/itsuku/pkg/memory"
	"github.com/Le-Maz/itsuku/pkg/merkle"
	"github.com/Le-Maz/itsuku/pkg/proof"
)

// Solve runs the full prover pipeline for one challenge: build memory, build
// the commitment tree, then search nonces with one worker per CPU. The found
// proof is re-verified before it is returned. Returns (nil, nil) when the
// nonce domain is exhausted without a solution. The context cancels the
// pipeline between chunks and at nonce boundaries.
func Solve(ctx context.Context, cfg config.Config, id *challenge.ID) (*proof.Proof, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := logger.Logger()
	log.Info().
		Uint64("elements", cfg.TotalElements()).
		Uint64("chunks", cfg.ChunkCount).
		Uint64("chunkSize", cfg.ChunkSize).
		Uint64("difficulty", cfg.DifficultyBits).
		Uint64("searchLength", cfg.SearchLength).
		Msg("starting solve")
	start := time.Now()

	mem := memory.New(cfg)
	if err := mem.BuildAll(ctx, id); err != nil {
		return nil, fmt.Errorf("build memory: %w", err)
	}

	tree := merkle.New(cfg)
	tree.ComputeLeaves(id, mem)
	tree.ComputeIntermediates(id)

	p, err := proof.Search(ctx, cfg, id, mem, tree)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if p == nil {
		return nil, nil
	}

	// The search only emits winning nonces, but re-verifying is cheap
	// relative to the search and catches any prover-side corruption.
	if err := p.Verify(); err != nil {
		return nil, fmt.Errorf("found proof failed verification: %w", err)
	}

	log.Info().Dur("took", time.Since(start)).Msg("solve finished")
	return p, nil
}
