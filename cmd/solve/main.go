// Command solve searches for an Itsuku proof-of-work solution and prints a
// machine-readable summary of the verified proof to stdout. Progress and
// configuration go to stderr. Exit status is 0 only for a verified solution.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/Le-Maz/itsuku"
	"github.com/Le-Maz/itsuku/config"
	"github.com/Le-Maz/itsuku/pkg/challenge"
	"github.com/Le-Maz/itsuku/pkg/memory"
	"github.com/Le-Maz/itsuku/pkg/merkle"
	"github.com/Le-Maz/itsuku/pkg/proof"
)

const randomChallengeLen = 64

func main() {
	app := &cli.App{
		Name:  "solve",
		Usage: "search for an Itsuku proof-of-work solution",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Aliases: []string{"i"}, Usage: "challenge ID (I) as a hex string"},
			&cli.BoolFlag{Name: "random", Aliases: []string{"r"}, Usage: "generate a random 64-byte challenge ID"},
			&cli.Uint64Flag{Name: "difficulty", Aliases: []string{"d"}, Usage: "required leading zero bits (d)"},
			&cli.Uint64Flag{Name: "length", Aliases: []string{"l"}, Usage: "search length (L)"},
			&cli.Uint64Flag{Name: "chunks", Aliases: []string{"c"}, Usage: "chunk count (P)"},
			&cli.Uint64Flag{Name: "chunk-size", Aliases: []string{"s"}, Usage: "elements per chunk (l)"},
			&cli.Uint64Flag{Name: "antecedents", Aliases: []string{"a"}, Usage: "antecedent count (n)"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "search worker count (default: one per CPU)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the binary proof to this file"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := config.Default()
	if c.IsSet("difficulty") {
		cfg.DifficultyBits = c.Uint64("difficulty")
	}
	if c.IsSet("length") {
		cfg.SearchLength = c.Uint64("length")
	}
	if c.IsSet("chunks") {
		cfg.ChunkCount = c.Uint64("chunks")
	}
	if c.IsSet("chunk-size") {
		cfg.ChunkSize = c.Uint64("chunk-size")
	}
	if c.IsSet("antecedents") {
		cfg.AntecedentCount = c.Uint64("antecedents")
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
	}

	id, err := resolveChallenge(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var p *proof.Proof
	if c.IsSet("workers") {
		p, err = solveWithWorkers(ctx, cfg, id, c.Int("workers"))
	} else {
		p, err = itsuku.Solve(ctx, cfg, id)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("solve: %v", err), 1)
	}
	if p == nil {
		return cli.Exit("no proof found", 1)
	}

	if out := c.String("out"); out != "" {
		encoded, err := p.MarshalBinary()
		if err != nil {
			return cli.Exit(fmt.Sprintf("encode proof: %v", err), 1)
		}
		if err := os.WriteFile(out, encoded, 0o644); err != nil {
			return cli.Exit(fmt.Sprintf("write proof: %v", err), 1)
		}
	}

	printSummary(p)
	return nil
}

// resolveChallenge builds the challenge ID from --id or --random.
func resolveChallenge(c *cli.Context) (*challenge.ID, error) {
	if c.Bool("random") {
		b := make([]byte, randomChallengeLen)
		if _, err := rand.Read(b); err != nil {
			return nil, cli.Exit(fmt.Sprintf("generate challenge: %v", err), 1)
		}
		return challenge.New(b), nil
	}
	hexID := c.String("id")
	if hexID == "" {
		return nil, cli.Exit("a challenge ID is required: use --id or --random", 1)
	}
	b, err := hex.DecodeString(hexID)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid challenge hex: %v", err), 1)
	}
	return challenge.New(b), nil
}

// solveWithWorkers mirrors itsuku.Solve with an explicit search worker
// count.
func solveWithWorkers(ctx context.Context, cfg config.Config, id *challenge.ID, workers int) (*proof.Proof, error) {
	mem := memory.New(cfg)
	if err := mem.BuildAll(ctx, id); err != nil {
		return nil, err
	}
	tree := merkle.New(cfg)
	tree.ComputeLeaves(id, mem)
	tree.ComputeIntermediates(id)
	p, err := proof.SearchWithWorkers(ctx, cfg, id, mem, tree, workers)
	if err != nil || p == nil {
		return nil, err
	}
	if err := p.Verify(); err != nil {
		return nil, fmt.Errorf("found proof failed verification: %w", err)
	}
	return p, nil
}

// printSummary writes the machine-readable solution summary to stdout.
func printSummary(p *proof.Proof) {
	fmt.Println("STATUS: SUCCESS")
	fmt.Printf("NONCE: %d\n", p.Nonce)
	fmt.Printf("ROOT_HASH: %s\n", hex.EncodeToString(p.TreeOpening[0]))
	fmt.Printf("CHALLENGE_ID: %s\n", hex.EncodeToString(p.Challenge.Bytes()))
	fmt.Printf("SEARCH_LENGTH: %d\n", p.Config.SearchLength)
	fmt.Printf("MERKLE_PROOF_NODE_SIZE: %d\n", merkle.NodeWidth(p.Config))
	fmt.Printf("MERKLE_PROOF_NODES_COUNT: %d\n", len(p.TreeOpening))
	fmt.Printf("LEAF_COUNT: %d\n", len(p.LeafAntecedents))
}
