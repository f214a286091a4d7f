package search

import (
	"context"
	"math/rand"
	"time"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/aeddk-bnh/go/pkg/eval"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/seekerror/stdlib/pkg/util/contextx"
	"go.uber.org/atomic"
)

// worker runs search iterations against the shared tree. Workers are
// symmetric: they share only the tree and the transposition table, and each
// carries its own RNG seeded once by the coordinator.
type worker struct {
	m   *MCTS
	rng *rand.Rand
}

// run executes iterations until the budget or deadline is exhausted or the
// context is cancelled. Stopping conditions are observed at the top of each
// iteration, never mid-iteration. Per-iteration failures abandon that
// iteration only; they are joined and returned for logging.
func (w *worker) run(ctx context.Context, root *node, budget *atomic.Int64, deadline time.Time, timed bool) error {
	var merr *multierror.Error
	for {
		if contextx.IsCancelled(ctx) {
			break
		}
		if timed {
			if !time.Now().Before(deadline) {
				break
			}
		} else if budget.Dec() < 0 {
			break
		}

		if err := w.iterate(root); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

// iterate performs one select → expand → simulate → backpropagate cycle.
// Virtual loss is reserved on every node as it joins the descent path and
// released exactly once on the way back up the parent chain, including when
// the iteration is abandoned.
func (w *worker) iterate(root *node) error {
	cfg := &w.m.cfg

	// Selection: descend while the node has children and has exhausted its
	// progressive-widening budget, reserving virtual loss along the path.
	cur := root
	cur.reserveVLoss()
	for {
		child, widen := cur.selectChild(cfg.Exploration, cfg.PriorWeight, cfg.PWK, cfg.PWAlpha)
		if widen || child == nil {
			break
		}
		child.reserveVLoss()
		cur = child
	}

	// Expansion: attach at most one new leaf, drawn from the untried moves
	// weighted by prior. The widening cap is re-checked under the mutex:
	// concurrent workers may race past the selection check, and the cap must
	// hold even then.
	leaf := cur
	leaf.mu.Lock()
	if len(leaf.untried) > 0 && len(leaf.children) < maxChildren(leaf.visits.Load(), cfg.PWK, cfg.PWAlpha) {
		mv, prior := leaf.takeUntried(w.draw(leaf.untriedPriors))
		child, err := w.m.materialize(leaf, mv, prior)
		if err != nil {
			leaf.mu.Unlock()
			abandon(leaf)
			return err
		}
		child.parent = leaf
		leaf.children = append(leaf.children, child)
		leaf.mu.Unlock()

		w.m.tt.Insert(child.state.Hash(), child)
		child.reserveVLoss()
		leaf = child
	} else {
		leaf.mu.Unlock()
	}

	// Simulation.
	z, err := w.simulate(leaf)
	if err != nil {
		abandon(leaf)
		return err
	}

	// Backpropagation up the parent chain: release the reservation, then
	// merge the result. The result is Black's perspective at every ply.
	for n := leaf; n != nil; n = n.parent {
		n.releaseVLoss()
		n.recordResult(z)
	}
	return nil
}

// simulate estimates the leaf value in [0,1] from Black's perspective: a
// bounded prior-weighted playout scored by the configured rules, or the
// oracle value when configured.
func (w *worker) simulate(leaf *node) (float64, error) {
	cfg := &w.m.cfg
	if cfg.UseValue {
		return w.m.oracle.Value(leaf.state), nil
	}
	if leaf.state.Terminal() {
		return w.score(leaf.state), nil
	}

	sim := leaf.state.Clone()
	color := leaf.toPlay
	passes := 0
	for d := 0; d < cfg.PlayoutDepth; d++ {
		legal := sim.LegalMoves(color)
		priors, _ := eval.Sanitize(w.m.oracle.Policy(sim, legal), len(legal))

		mv := legal[w.draw(priors)]
		if mv.Pass {
			sim.Pass(color)
			passes++
		} else {
			if !sim.Place(mv.X, mv.Y, color) {
				return 0, errors.Errorf("adapter rejected legal move %v in playout", mv)
			}
			passes = 0
		}
		if passes >= 2 {
			break
		}
		color = color.Opponent()
	}
	return w.score(sim), nil
}

func (w *worker) score(b *board.Board) float64 {
	black, white := b.Score(w.m.cfg.Rules, w.m.cfg.Komi)
	if black > white {
		return 1
	}
	return 0
}

// draw samples an index by cumulative sum over the weights against a
// uniform draw in [0, total). Falls back to a uniform pick on zero mass.
func (w *worker) draw(weights []float64) int {
	var total float64
	for _, p := range weights {
		total += p
	}
	if total <= 0 {
		return w.rng.Intn(len(weights))
	}

	r := w.rng.Float64() * total
	var cum float64
	for i, p := range weights {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(weights) - 1
}

// abandon releases the virtual losses held by an aborted iteration, from
// the deepest reserved node up, without backpropagating any result.
func abandon(leaf *node) {
	for n := leaf; n != nil; n = n.parent {
		n.releaseVLoss()
	}
}
