package merkle

import (
	"bytes"
	"context"
	"testing"

	"github.com/Le-Maz/itsuku/config"
	"github.com/Le-Maz/itsuku/logger"
	"github.com/Le-Maz/itsuku/pkg/challenge"
	"github.com/Le-Maz/itsuku/pkg/crypto"
	"github.com/Le-Maz/itsuku/pkg/memory"
)

func init() {
	logger.Disable()
}

func testConfig() config.Config {
	return config.Config{
		ChunkSize:       8,
		ChunkCount:      2,
		AntecedentCount: 4,
		DifficultyBits:  8,
		SearchLength:    9,
	}
}

func testChallenge() *challenge.ID {
	b := make([]byte, 64)
	for i := range b {
		b[i] = byte(i)
	}
	return challenge.New(b)
}

func buildTree(t *testing.T, cfg config.Config, id *challenge.ID) (*Tree, *memory.Memory) {
	t.Helper()
	mem := memory.New(cfg)
	if err := mem.BuildAll(context.Background(), id); err != nil {
		t.Fatalf("build memory: %v", err)
	}
	tree := New(cfg)
	tree.ComputeLeaves(id, mem)
	tree.ComputeIntermediates(id)
	return tree, mem
}

func TestNodeWidth(t *testing.T) {
	cases := []struct {
		difficulty uint64
		length     uint64
		want       int
	}{
		{24, 9, 5},
		{70, 9, 10},
	}

	for _, c := range cases {
		cfg := config.Config{DifficultyBits: c.difficulty, SearchLength: c.length}
		if got := NodeWidth(cfg); got != c.want {
			t.Fatalf("NodeWidth(d=%d, L=%d) = %d, want %d", c.difficulty, c.length, got, c.want)
		}
	}
}

func TestTreeShape(t *testing.T) {
	cfg := testConfig()
	tree := New(cfg)

	if got := cfg.NodeCount(); got != 31 {
		t.Fatalf("node count %d, want 31", got)
	}
	if got := len(tree.nodes); got != 31*tree.nodeSize {
		t.Fatalf("buffer size %d, want %d", got, 31*tree.nodeSize)
	}
	if got := len(tree.Node(30)); got != tree.nodeSize {
		t.Fatalf("node slice width %d, want %d", got, tree.nodeSize)
	}
}

func TestTreeDeterminism(t *testing.T) {
	id := testChallenge()
	a, _ := buildTree(t, testConfig(), id)
	b, _ := buildTree(t, testConfig(), id)

	if !bytes.Equal(a.nodes, b.nodes) {
		t.Fatal("trees differ between identical builds")
	}
}

func TestRootDependsOnChallenge(t *testing.T) {
	a, _ := buildTree(t, testConfig(), testChallenge())
	b, _ := buildTree(t, testConfig(), challenge.New([]byte("other")))

	if bytes.Equal(a.Root(), b.Root()) {
		t.Fatal("root identical under different challenges")
	}
}

func TestIntermediatesHashChildren(t *testing.T) {
	id := testChallenge()
	tree, _ := buildTree(t, testConfig(), id)

	// Spot-check the linkage for every internal node.
	total := testConfig().TotalElements()
	for p := uint64(0); p < total-1; p++ {
		left, right := childrenOf(p)
		want := make([]byte, tree.nodeSize)
		crypto.SumInto(want, tree.Node(left), tree.Node(right), id.Bytes())
		if !bytes.Equal(tree.Node(p), want) {
			t.Fatalf("node %d does not hash its children", p)
		}
	}
}

func TestTraceSingleLeaf(t *testing.T) {
	cfg := testConfig()
	id := testChallenge()
	tree, _ := buildTree(t, cfg, id)
	total := cfg.TotalElements()

	leafNode := total - 1 + 3
	opening := make(map[uint64][]byte)
	tree.Trace(leafNode, opening)

	// Path for leaf 3 in a 16-leaf tree: 4 path nodes, 4 siblings, root.
	if len(opening) != 9 {
		t.Fatalf("opening size %d, want 9", len(opening))
	}
	if _, found := opening[0]; !found {
		t.Fatal("root missing from opening")
	}

	// Every entry must match the tree, and every non-root path node must
	// have its sibling present.
	for index, hash := range opening {
		if !bytes.Equal(hash, tree.Node(index)) {
			t.Fatalf("opening node %d differs from the tree", index)
		}
	}
	for v := leafNode; v != 0; v = Parent(v) {
		if _, found := opening[Sibling(v)]; !found {
			t.Fatalf("sibling of path node %d missing", v)
		}
	}
}

func TestTraceCopiesHashes(t *testing.T) {
	cfg := testConfig()
	tree, _ := buildTree(t, cfg, testChallenge())

	opening := make(map[uint64][]byte)
	tree.Trace(cfg.TotalElements()-1, opening)

	root := append([]byte(nil), opening[0]...)
	tree.nodes[0] ^= 0xff
	if !bytes.Equal(root, opening[0]) {
		t.Fatal("opening aliases the tree buffer")
	}
}
