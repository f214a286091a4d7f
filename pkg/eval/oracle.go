// Package eval contains position evaluation capabilities for the search:
// move priors and scalar values.
package eval

import (
	"math"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/pkg/errors"
)

// Oracle provides a prior distribution over legal moves and a scalar value
// for a position. Values are from Black's perspective in [0,1]. A real
// policy/value network plugs in here; the default is a cheap heuristic.
type Oracle interface {
	// Policy returns one non-negative weight per legal move, summing to 1,
	// in the same order as the legal list.
	Policy(b *board.Board, legal []board.Move) []float64
	// Value returns the position value in [0,1] from Black's perspective.
	Value(b *board.Board) float64
}

// Heuristic is the default oracle: moves are scored by closeness to the
// board center plus twice the number of occupied 8-adjacent intersections,
// and the position value is neutral.
type Heuristic struct{}

func (Heuristic) Policy(b *board.Board, legal []board.Move) []float64 {
	out := make([]float64, len(legal))
	var total float64
	for i, m := range legal {
		s := moveScore(b, m) + 1
		out[i] = s
		total += s
	}
	if total <= 0 {
		return Uniform(len(legal))
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func (Heuristic) Value(b *board.Board) float64 {
	return 0.5
}

// moveScore is the raw heuristic weight: 0 for pass, otherwise
// (N - distance to center) + 2 * occupied 8-neighborhood.
func moveScore(b *board.Board, m board.Move) float64 {
	if m.Pass {
		return 0
	}
	n := b.Size()
	cx, cy := float64(n-1)/2, float64(n-1)/2
	dx, dy := float64(m.X)-cx, float64(m.Y)-cy
	center := float64(n) - math.Sqrt(dx*dx+dy*dy)

	var adj int
	for ddy := -1; ddy <= 1; ddy++ {
		for ddx := -1; ddx <= 1; ddx++ {
			if ddx == 0 && ddy == 0 {
				continue
			}
			nx, ny := m.X+ddx, m.Y+ddy
			if b.Inside(nx, ny) && b.Get(nx, ny) != board.Empty {
				adj++
			}
		}
	}
	return center + 2*float64(adj)
}

// Uniform returns the uniform distribution over n moves.
func Uniform(n int) []float64 {
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 / float64(n)
	}
	return out
}

// Sanitize validates an oracle policy for n legal moves and normalizes it.
// A malformed policy (wrong length, negative or non-finite weight, zero
// mass) is replaced by the uniform distribution and reported.
func Sanitize(policy []float64, n int) ([]float64, error) {
	if len(policy) != n {
		return Uniform(n), errors.Errorf("policy length %v != %v legal moves", len(policy), n)
	}

	var total float64
	for _, p := range policy {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return Uniform(n), errors.Errorf("invalid policy weight: %v", p)
		}
		total += p
	}
	if total <= 0 {
		return Uniform(n), errors.New("policy has zero mass")
	}

	out := make([]float64, n)
	for i, p := range policy {
		out[i] = p / total
	}
	return out, nil
}
