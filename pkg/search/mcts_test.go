package search

import (
	"context"
	"testing"
	"time"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iterations(n uint) Options {
	return Options{Iterations: lang.Some(n)}
}

// walk applies fn to every node in the tree.
func walk(n *node, fn func(*node)) {
	fn(n)
	n.mu.Lock()
	children := append([]*node(nil), n.children...)
	n.mu.Unlock()
	for _, c := range children {
		walk(c, fn)
	}
}

// assertAtRest checks the universal tree invariants after a search: no
// virtual loss outstanding, child counts within the widening cap, and
// parent visits covering the children.
func assertAtRest(t *testing.T, m *MCTS) {
	t.Helper()

	require.NotNil(t, m.root)
	walk(m.root, func(n *node) {
		assert.Equal(t, int32(0), n.vloss.Load(), "virtual loss at rest")

		n.mu.Lock()
		children := append([]*node(nil), n.children...)
		n.mu.Unlock()

		assert.LessOrEqual(t, len(children), maxChildren(n.visits.Load(), m.cfg.PWK, m.cfg.PWAlpha),
			"progressive widening bound")

		var sum uint32
		for _, c := range children {
			sum += c.visits.Load()
		}
		assert.GreaterOrEqual(t, n.visits.Load(), sum, "visits below children sum")
	})
}

func TestSearchEmpty5x5(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(5)
	m := New(DefaultConfig())

	mv, err := m.Search(ctx, b, board.Black, iterations(100))
	require.NoError(t, err)

	assert.False(t, mv.Pass)
	assert.GreaterOrEqual(t, mv.X, 0)
	assert.GreaterOrEqual(t, mv.Y, 0)
	assert.Less(t, mv.X, 5)
	assert.Less(t, mv.Y, 5)
	assert.Equal(t, board.Empty, b.Get(mv.X, mv.Y))

	assertAtRest(t, m)
}

func TestSelfPlayReroot(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(5)
	m := New(DefaultConfig())

	color := board.Black
	for ply := 0; ply < 6; ply++ {
		mv, err := m.Search(ctx, b, color, iterations(80))
		require.NoError(t, err)

		require.True(t, m.Reroot(mv), "ply %v: reroot %v", ply, mv)
		require.True(t, b.Apply(mv), "ply %v: apply %v", ply, mv)
		assert.Equal(t, b.Hash(), m.RootHash(), "ply %v", ply)

		color = color.Opponent()
	}
}

func TestSearchStressThreaded(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(9)
	require.True(t, b.Place(4, 4, board.Black))
	require.True(t, b.Place(3, 4, board.White))
	require.True(t, b.Place(5, 4, board.White))

	cfg := DefaultConfig()
	cfg.Threads = 4
	cfg.PlayoutDepth = 100
	m := New(cfg)

	mv, err := m.Search(ctx, b, board.Black, iterations(2000))
	require.NoError(t, err)

	if !mv.Pass {
		assert.Equal(t, board.Empty, b.Get(mv.X, mv.Y))
	}
	assertAtRest(t, m)
}

func TestVirtualLossBiasAtRoot(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(5)
	m := New(DefaultConfig())

	_, err := m.Search(ctx, b, board.Black, iterations(200))
	require.NoError(t, err)
	require.GreaterOrEqual(t, m.RootChildrenCount(), 3)

	require.True(t, m.ApplyVirtualLossToChild(0, 5))
	assert.Equal(t, 5, m.ChildVirtualLoss(0))
	assert.NotEqual(t, 0, m.ChooseChildIndexAtRoot())

	require.True(t, m.RevertVirtualLossFromChild(0, 5))
	assert.Equal(t, 0, m.ChildVirtualLoss(0))

	// Saturating revert.
	require.True(t, m.RevertVirtualLossFromChild(0, 7))
	assert.Equal(t, 0, m.ChildVirtualLoss(0))

	// Out-of-range child indices are rejected.
	assert.False(t, m.ApplyVirtualLossToChild(1000, 1))
	assert.Equal(t, -1, m.ChildVisits(1000))
	assert.Equal(t, -1, m.ChildVirtualLoss(1000))
}

func TestRerootTTAssisted(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(5)
	m := New(DefaultConfig())

	mv, err := m.Search(ctx, b, board.Black, iterations(100))
	require.NoError(t, err)

	post := b.Clone()
	require.True(t, post.Apply(mv))

	require.True(t, m.Reroot(mv))
	assert.Equal(t, post.Hash(), m.RootHash())
}

func TestRerootUntriedPromotion(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(5)
	cfg := DefaultConfig()
	m := New(cfg)

	// A shallow search leaves most root moves untried.
	_, err := m.Search(ctx, b, board.Black, iterations(2))
	require.NoError(t, err)

	var untried board.Move
	found := false
	m.root.mu.Lock()
	for _, um := range m.root.untried {
		if !um.Pass {
			untried, found = um, true
			break
		}
	}
	m.root.mu.Unlock()
	require.True(t, found)

	post := b.Clone()
	require.True(t, post.Apply(untried))

	require.True(t, m.Reroot(untried))
	assert.Equal(t, post.Hash(), m.RootHash())
}

func TestRerootUnreachableMove(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(5)
	m := New(DefaultConfig())

	assert.False(t, m.Reroot(board.NewMove(2, 2, board.Black)), "no tree yet")

	_, err := m.Search(ctx, b, board.Black, iterations(50))
	require.NoError(t, err)

	// A white move is never reachable from a black-to-play root.
	assert.False(t, m.Reroot(board.NewMove(2, 2, board.White)))
}

func TestSearchDeterministicSingleThread(t *testing.T) {
	ctx := context.Background()

	run := func() board.Move {
		b := board.NewBoard(5)
		m := New(DefaultConfig())
		mv, err := m.Search(ctx, b, board.Black, iterations(150))
		require.NoError(t, err)
		return mv
	}

	first := run()
	assert.True(t, first.Equals(run()), "single-threaded replay diverged")
}

func TestSearchNoLegalMovesReturnsPass(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(5)
	m := New(DefaultConfig())

	// Zero iterations: no children are ever expanded.
	mv, err := m.Search(ctx, b, board.Black, iterations(0))
	require.NoError(t, err)
	assert.True(t, mv.Pass)
	assert.Equal(t, board.Black, mv.Color)
}

func TestSearchDeadline(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(9)
	m := New(DefaultConfig())

	start := time.Now()
	opt := Options{Deadline: lang.Some(50 * time.Millisecond)}
	mv, err := m.Search(ctx, b, board.Black, opt)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, mv.Pass || b.Get(mv.X, mv.Y) == board.Empty)
	assertAtRest(t, m)
}

func TestSearchCancellation(t *testing.T) {
	b := board.NewBoard(9)
	m := New(DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context stops before any iteration; the result is pass.
	mv, err := m.Search(ctx, b, board.Black, iterations(1000000))
	require.NoError(t, err)
	assert.True(t, mv.Pass)
}

func TestLaunchAndHalt(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(9)
	cfg := DefaultConfig()
	m := New(cfg)

	h, out := m.Launch(ctx, b, board.Black, iterations(100000))
	time.Sleep(20 * time.Millisecond)

	res := h.Halt()
	assert.True(t, res.Move.Pass || b.Get(res.Move.X, res.Move.Y) == board.Empty)

	// The channel closes after the final result.
	for range out {
	}
	assertAtRest(t, m)
}

// brokenOracle returns malformed policies to exercise the uniform fallback.
type brokenOracle struct{}

func (brokenOracle) Policy(b *board.Board, legal []board.Move) []float64 {
	return []float64{-1}
}

func (brokenOracle) Value(b *board.Board) float64 {
	return 0.5
}

func TestBrokenOracleFallsBackToUniform(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(5)
	m := New(DefaultConfig())
	m.SetOracle(brokenOracle{})

	mv, err := m.Search(ctx, b, board.Black, iterations(100))
	require.NoError(t, err)

	assert.True(t, mv.Pass || b.Get(mv.X, mv.Y) == board.Empty)
	assertAtRest(t, m)
}

// uniformOracle removes all prior signal.
type uniformOracle struct{}

func (uniformOracle) Policy(b *board.Board, legal []board.Move) []float64 {
	out := make([]float64, len(legal))
	for i := range out {
		out[i] = 1 / float64(len(legal))
	}
	return out
}

func (uniformOracle) Value(b *board.Board) float64 {
	return 0.5
}

func TestUniformOracleZeroPriorWeight(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(5)
	cfg := DefaultConfig()
	cfg.PriorWeight = 0
	m := New(cfg)
	m.SetOracle(uniformOracle{})

	_, err := m.Search(ctx, b, board.Black, iterations(400))
	require.NoError(t, err)

	// With no prior signal, UCT alone must still spread visits over several
	// root children.
	count := m.RootChildrenCount()
	require.Greater(t, count, 3)
	visited := 0
	for i := 0; i < count; i++ {
		if m.ChildVisits(i) > 0 {
			visited++
		}
	}
	assert.Greater(t, visited, 3)
	assertAtRest(t, m)
}

func TestTreeReuseAcrossSearches(t *testing.T) {
	ctx := context.Background()

	b := board.NewBoard(5)
	m := New(DefaultConfig())

	_, err := m.Search(ctx, b, board.Black, iterations(50))
	require.NoError(t, err)
	root := m.root
	visits := root.visits.Load()

	// Same position and color: the tree is reused and statistics accumulate.
	_, err = m.Search(ctx, b, board.Black, iterations(50))
	require.NoError(t, err)
	assert.Same(t, root, m.root)
	assert.Greater(t, m.root.visits.Load(), visits)

	// Different color: fresh tree.
	_, err = m.Search(ctx, b, board.White, iterations(10))
	require.NoError(t, err)
	assert.NotSame(t, root, m.root)
}
