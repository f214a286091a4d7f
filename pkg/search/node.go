package search

import (
	"math"
	"sync"

	"github.com/aeddk-bnh/go/pkg/board"
	"go.uber.org/atomic"
)

// node is a search tree node. Nodes are heap-allocated and never relocated
// while reachable: parents own their children, children hold a non-owning
// back-pointer, and the coordinator never destroys nodes during a search,
// so backpropagation may walk parent pointers freely.
type node struct {
	state  *board.Board // immutable after creation
	toPlay board.Color  // color to move at this node
	move   board.Move   // move that produced state from the parent
	prior  float64      // oracle prior for that move, fixed at creation

	parent *node

	// visits and vloss are read during selection without synchronization;
	// virtual loss exists precisely to tolerate the resulting slack.
	visits atomic.Uint32
	vloss  atomic.Int32

	// mu guards valueSum and all structural mutation of children, untried
	// and untriedPriors.
	mu            sync.Mutex
	valueSum      float64
	children      []*node
	untried       []board.Move
	untriedPriors []float64
}

func newNode(state *board.Board, toPlay board.Color, move board.Move, prior float64) *node {
	return &node{
		state:  state,
		toPlay: toPlay,
		move:   move,
		prior:  prior,
	}
}

// setUntried installs the untried move list and its prior weights.
func (n *node) setUntried(moves []board.Move, priors []float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.untried = moves
	n.untriedPriors = priors
}

// reserveVLoss marks a worker in flight beneath this node.
func (n *node) reserveVLoss() {
	n.vloss.Inc()
}

// releaseVLoss undoes one reservation, saturating at zero.
func (n *node) releaseVLoss() {
	if n.vloss.Dec() < 0 {
		n.vloss.Store(0)
	}
}

// recordResult merges one simulation result, Black's perspective.
func (n *node) recordResult(z float64) {
	n.visits.Inc()
	n.mu.Lock()
	n.valueSum += z
	n.mu.Unlock()
}

// q returns the mean value of the node, zero when unvisited.
func (n *node) q() float64 {
	v := n.visits.Load()
	n.mu.Lock()
	sum := n.valueSum
	n.mu.Unlock()
	if v == 0 {
		return 0
	}
	return sum / float64(v)
}

// maxChildren is the progressive-widening cap for the node's current visit
// count: max(1, floor(k*(visits+1)^alpha)).
func maxChildren(visits uint32, k, alpha float64) int {
	limit := int(math.Floor(k * math.Pow(float64(visits)+1, alpha)))
	if limit < 1 {
		return 1
	}
	return limit
}

// selectChild picks the child maximising Q + U + P under the given
// constants, or returns nil with widen=true when the node should expand
// instead (untried moves remain and the widening budget permits), or nil
// with widen=false at a childless terminus.
func (n *node) selectChild(cExplore, cPrior, pwK, pwAlpha float64) (child *node, widen bool) {
	visits := n.visits.Load()

	n.mu.Lock()
	if len(n.untried) > 0 && len(n.children) < maxChildren(visits, pwK, pwAlpha) {
		n.mu.Unlock()
		return nil, true
	}
	children := n.children
	n.mu.Unlock()

	if len(children) == 0 {
		return nil, false
	}

	logParent := math.Log(float64(visits) + 1)
	best := -1
	bestScore := math.Inf(-1)
	for i, c := range children {
		cv := float64(c.visits.Load())
		den := cv + float64(c.vloss.Load()) + 1
		score := c.q() +
			cExplore*math.Sqrt(logParent/den) +
			cPrior*c.prior/(1+cv)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return children[best], false
}

// takeUntried removes and returns the untried move at index i with its
// prior. Caller must hold n.mu.
func (n *node) takeUntried(i int) (board.Move, float64) {
	m, p := n.untried[i], n.untriedPriors[i]
	n.untried = append(n.untried[:i], n.untried[i+1:]...)
	n.untriedPriors = append(n.untriedPriors[:i], n.untriedPriors[i+1:]...)
	return m, p
}

// findUntried returns the index of a move-equal untried entry, or -1.
// Caller must hold n.mu.
func (n *node) findUntried(mv board.Move) int {
	for i, m := range n.untried {
		if m.Equals(mv) {
			return i
		}
	}
	return -1
}
