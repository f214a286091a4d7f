package search

import (
	"testing"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualLossSaturatesAtZero(t *testing.T) {
	n := &node{}

	n.reserveVLoss()
	n.reserveVLoss()
	assert.Equal(t, int32(2), n.vloss.Load())

	n.releaseVLoss()
	n.releaseVLoss()
	assert.Equal(t, int32(0), n.vloss.Load())

	// A stray extra release must not go negative.
	n.releaseVLoss()
	assert.Equal(t, int32(0), n.vloss.Load())
}

func TestRecordResult(t *testing.T) {
	n := &node{}
	assert.Equal(t, 0.0, n.q())

	n.recordResult(1)
	n.recordResult(0)
	n.recordResult(1)

	assert.Equal(t, uint32(3), n.visits.Load())
	assert.InDelta(t, 2.0/3, n.q(), 1e-9)
}

func TestMaxChildren(t *testing.T) {
	tests := []struct {
		visits   uint32
		k, alpha float64
		expected int
	}{
		{0, 1.0, 0.5, 1},
		{3, 1.0, 0.5, 2},
		{15, 1.0, 0.5, 4},
		{99, 1.0, 0.5, 10},
		{0, 0.1, 0.5, 1}, // never below one
		{99, 2.0, 0.5, 20},
		{99, 1.0, 1.0, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, maxChildren(tt.visits, tt.k, tt.alpha),
			"visits=%v k=%v alpha=%v", tt.visits, tt.k, tt.alpha)
	}
}

func TestSelectChildGatesOnWidening(t *testing.T) {
	b := board.NewBoard(5)
	n := newNode(b, board.Black, board.NewPass(board.White), 0)
	n.setUntried(b.LegalMoves(board.Black), nil)

	// Untried moves and no children: must widen, not descend.
	child, widen := n.selectChild(1.4, 0.5, 1.0, 0.5)
	assert.Nil(t, child)
	assert.True(t, widen)

	// One child and cap 1 at zero visits: descend into the child.
	c := newNode(b, board.White, board.NewMove(2, 2, board.Black), 1)
	c.parent = n
	n.children = append(n.children, c)
	child, widen = n.selectChild(1.4, 0.5, 1.0, 0.5)
	assert.False(t, widen)
	require.NotNil(t, child)
	assert.Same(t, c, child)
}

func TestSelectChildPrefersLowVirtualLoss(t *testing.T) {
	b := board.NewBoard(5)
	n := newNode(b, board.Black, board.NewPass(board.White), 0)
	n.visits.Store(100)

	// Two statistically identical children.
	for i := 0; i < 2; i++ {
		c := newNode(b, board.White, board.NewMove(i, 0, board.Black), 0.5)
		c.visits.Store(50)
		c.valueSum = 25
		c.parent = n
		n.children = append(n.children, c)
	}

	// Tie breaks on the lower index.
	child, _ := n.selectChild(1.4, 0.5, 1.0, 0.5)
	assert.Same(t, n.children[0], child)

	// Virtual loss on the first child diverts selection to the second.
	n.children[0].vloss.Store(25)
	child, _ = n.selectChild(1.4, 0.5, 1.0, 0.5)
	assert.Same(t, n.children[1], child)
}
