package search

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/aeddk-bnh/go/pkg/eval"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

// MCTS is the search coordinator. It owns the tree root and the sharded
// transposition table, spawns workers against an iteration or time budget,
// and supports tree reuse across successive searches via Reroot. The tree
// and table are co-owned by the workers for the duration of a Search call;
// no other method may mutate them while one runs.
type MCTS struct {
	cfg    Config
	oracle eval.Oracle

	root *node
	tt   *shardedTT
	mu   sync.Mutex

	// master RNG; seeds per-worker RNGs and the root noise.
	rng   *rand.Rand
	rngMu sync.Mutex
}

func New(cfg Config) *MCTS {
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	if cfg.TTShards < 1 {
		cfg.TTShards = 64
	}
	return &MCTS{
		cfg:    cfg,
		oracle: eval.Heuristic{},
		tt:     newShardedTT(cfg.TTShards),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// SetOracle replaces the prior/value oracle. Must not be called while a
// search runs.
func (m *MCTS) SetOracle(o eval.Oracle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oracle = o
}

// Search runs MCTS from the given position and returns the most-visited
// root move. Ties break on higher mean value, then on lower child index.
// If no child was ever expanded, it returns pass. The root is reused when
// the position and color match the current tree; otherwise the tree is
// rebuilt. Cancelling the context stops workers within one iteration each;
// the partial result is valid.
func (m *MCTS) Search(ctx context.Context, state *board.Board, toPlay board.Color, opt Options) (board.Move, error) {
	res, err := m.search(ctx, state, toPlay, opt)
	return res.Move, err
}

func (m *MCTS) search(ctx context.Context, state *board.Board, toPlay board.Color, opt Options) (Result, error) {
	if state == nil || !toPlay.IsStone() {
		return Result{}, errors.Errorf("invalid search position: %v to play", toPlay)
	}
	start := time.Now()

	m.mu.Lock()
	if m.root == nil || m.root.state.Hash() != state.Hash() || m.root.toPlay != toPlay {
		m.root = m.newRoot(state, toPlay)
	}
	root := m.root
	m.tt.Clear()
	m.tt.Insert(root.state.Hash(), root)
	m.mu.Unlock()

	iterations := m.cfg.Iterations
	if v, ok := opt.Iterations.V(); ok {
		iterations = int(v)
	}
	budget := atomic.NewInt64(int64(iterations))

	var deadline time.Time
	var timed bool
	if d, ok := opt.Deadline.V(); ok {
		deadline, timed = start.Add(d), true
	}

	workers := make([]*worker, m.cfg.Threads)
	m.rngMu.Lock()
	for i := range workers {
		workers[i] = &worker{m: m, rng: rand.New(rand.NewSource(m.rng.Int63()))}
	}
	m.rngMu.Unlock()

	var merr *multierror.Error
	if len(workers) == 1 {
		merr = multierror.Append(merr, workers[0].run(ctx, root, budget, deadline, timed))
	} else {
		errs := make([]error, len(workers))
		var wg sync.WaitGroup
		for i, w := range workers {
			wg.Add(1)
			go func(i int, w *worker) {
				defer wg.Done()
				errs[i] = w.run(ctx, root, budget, deadline, timed)
			}(i, w)
		}
		wg.Wait()
		merr = multierror.Append(merr, errs...)
	}
	if err := merr.ErrorOrNil(); err != nil {
		// Abandoned iterations never fail the search; the tree is consistent
		// between iterations.
		logw.Errorf(ctx, "Abandoned %v iteration(s): %v", merr.Len(), err)
	}

	res := m.result(toPlay)
	res.Time = time.Since(start)
	logw.Debugf(ctx, "Searched %v: %v", state, res)
	return res, nil
}

// newRoot builds a fresh root for the position, with root noise applied to
// the untried priors if configured.
func (m *MCTS) newRoot(state *board.Board, toPlay board.Color) *node {
	root := newNode(state.Clone(), toPlay, board.NewPass(toPlay.Opponent()), 0)

	legal := root.state.LegalMoves(toPlay)
	priors, err := eval.Sanitize(m.oracle.Policy(root.state, legal), len(legal))
	if err != nil {
		priors = eval.Uniform(len(legal))
	}
	if m.cfg.Noise.Enabled() {
		m.rngMu.Lock()
		seed := m.rng.Uint64()
		m.rngMu.Unlock()
		priors = m.cfg.Noise.Apply(priors, seed)
	}
	root.setUntried(legal, priors)
	return root
}

// result selects the final move from the root children.
func (m *MCTS) result(toPlay board.Color) Result {
	root := m.root

	root.mu.Lock()
	children := root.children
	root.mu.Unlock()

	if len(children) == 0 {
		return Result{Move: board.NewPass(toPlay)}
	}

	best := 0
	bestVisits, bestValue := children[0].visits.Load(), children[0].q()
	for i, c := range children[1:] {
		v, q := c.visits.Load(), c.q()
		if v > bestVisits || (v == bestVisits && q > bestValue) {
			best, bestVisits, bestValue = i+1, v, q
		}
	}
	return Result{
		Move:   children[best].move,
		Visits: bestVisits,
		Value:  children[best].q(),
		Nodes:  len(children),
	}
}

// Reroot advances the tree one ply to the child produced by the given move,
// enabling reuse on the next Search. It tries the transposition table first
// (validating that the hit is a direct child of the root), then a scan by
// move equality, then materializes the move from the root's untried list.
// Returns false if the move is unreachable; the caller should then discard
// its expectations of reuse.
func (m *MCTS) Reroot(mv board.Move) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.root == nil {
		return false
	}
	root := m.root

	// TT-assisted: hash the post-move position and validate parentage.
	if post := root.state.Clone(); post.Apply(mv) {
		if found := m.tt.Get(post.Hash()); found != nil {
			root.mu.Lock()
			for i, c := range root.children {
				if c == found {
					m.splice(i)
					root.mu.Unlock()
					return true
				}
			}
			root.mu.Unlock()
		}
	}

	// Fallback: match by move fields.
	root.mu.Lock()
	for i, c := range root.children {
		if c.move.Equals(mv) {
			m.splice(i)
			root.mu.Unlock()
			return true
		}
	}

	// Not expanded yet: promote the untried move to a fresh root.
	if i := root.findUntried(mv); i >= 0 {
		move, prior := root.takeUntried(i)
		root.mu.Unlock()

		child, err := m.materialize(root, move, prior)
		if err != nil {
			return false
		}
		m.root = child
		m.tt.Insert(child.state.Hash(), child)
		return true
	}
	root.mu.Unlock()
	return false
}

// splice makes the i'th root child the new root. Caller holds root.mu.
func (m *MCTS) splice(i int) {
	child := m.root.children[i]
	m.root.children = append(m.root.children[:i], m.root.children[i+1:]...)
	child.parent = nil
	m.root = child
}

// materialize builds the child node reached by mv from parent, including
// its untried move list and priors. The child is not attached.
func (m *MCTS) materialize(parent *node, mv board.Move, prior float64) (*node, error) {
	state := parent.state.Clone()
	if !state.Apply(mv) {
		return nil, errors.Errorf("adapter rejected legal move %v", mv)
	}
	next := mv.Color.Opponent()

	child := newNode(state, next, mv, prior)
	legal := state.LegalMoves(next)
	priors, err := eval.Sanitize(m.oracle.Policy(state, legal), len(legal))
	if err != nil {
		priors = eval.Uniform(len(legal))
	}
	child.setUntried(legal, priors)
	return child, nil
}

// RootHash returns the zobrist hash of the root position, or 0 if no tree
// is installed.
func (m *MCTS) RootHash() board.ZobristHash {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.root == nil {
		return 0
	}
	return m.root.state.Hash()
}

// RootChildrenCount returns the number of expanded root children.
func (m *MCTS) RootChildrenCount() int {
	if root := m.rootNode(); root != nil {
		root.mu.Lock()
		defer root.mu.Unlock()
		return len(root.children)
	}
	return 0
}

// ChildVisits returns the visit count of the i'th root child, or -1.
func (m *MCTS) ChildVisits(i int) int {
	if c := m.rootChild(i); c != nil {
		return int(c.visits.Load())
	}
	return -1
}

// ChildVirtualLoss returns the virtual-loss counter of the i'th root child,
// or -1.
func (m *MCTS) ChildVirtualLoss(i int) int {
	if c := m.rootChild(i); c != nil {
		return int(c.vloss.Load())
	}
	return -1
}

// ApplyVirtualLossToChild adds virtual loss to the i'th root child.
func (m *MCTS) ApplyVirtualLossToChild(i, loss int) bool {
	if c := m.rootChild(i); c != nil {
		c.vloss.Add(int32(loss))
		return true
	}
	return false
}

// RevertVirtualLossFromChild removes virtual loss from the i'th root child,
// saturating at zero.
func (m *MCTS) RevertVirtualLossFromChild(i, loss int) bool {
	if c := m.rootChild(i); c != nil {
		if c.vloss.Sub(int32(loss)) < 0 {
			c.vloss.Store(0)
		}
		return true
	}
	return false
}

// ChooseChildIndexAtRoot returns the root child index with the highest
// virtual-loss-aware UCT score, with the virtual-loss effect amplified so
// that in-flight children are visibly penalized: the exploration
// denominator is visits+1+10*vloss and vloss is subtracted from the score.
// Unlike live selection, the prior term is not included. Returns -1 without
// a root.
func (m *MCTS) ChooseChildIndexAtRoot() int {
	root := m.rootNode()
	if root == nil {
		return -1
	}

	root.mu.Lock()
	children := root.children
	root.mu.Unlock()

	logParent := math.Log1p(float64(root.visits.Load()))
	best := -1
	bestScore := math.Inf(-1)
	for i, c := range children {
		vl := float64(c.vloss.Load())
		den := float64(c.visits.Load()) + 1 + vl*10
		score := c.q() + m.cfg.Exploration*math.Sqrt(logParent/den) - vl
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

func (m *MCTS) rootNode() *node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root
}

func (m *MCTS) rootChild(i int) *node {
	root := m.rootNode()
	if root == nil || i < 0 {
		return nil
	}
	root.mu.Lock()
	defer root.mu.Unlock()
	if i >= len(root.children) {
		return nil
	}
	return root.children[i]
}
