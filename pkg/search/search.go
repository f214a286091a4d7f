// Package search implements parallel Monte-Carlo Tree Search with tree
// reuse, progressive widening, virtual-loss leaf parallelism and a sharded
// transposition table.
package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/aeddk-bnh/go/pkg/eval"
	"github.com/seekerror/stdlib/pkg/lang"
)

// ErrHalted is an error indicating that the search was halted.
var ErrHalted = errors.New("search halted")

// Config holds static search parameters. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// Iterations is the default cap on total iterations across all workers.
	Iterations int
	// PlayoutDepth is the maximum ply per rollout.
	PlayoutDepth int
	// Exploration is the UCT exploration constant.
	Exploration float64
	// PriorWeight scales the prior term in selection.
	PriorWeight float64
	// PWK and PWAlpha bound a node's child count to k*(visits+1)^alpha.
	PWK     float64
	PWAlpha float64
	// Threads is the worker count. One runs iterations inline on the
	// calling goroutine; results are then deterministic for a fixed seed.
	Threads int
	// TTShards is the shard count of the transposition table.
	TTShards int
	// Rules and Komi select the scoring applied to rollout terminals.
	Rules board.Ruleset
	Komi  float64
	// UseValue replaces rollouts with the oracle's value at the leaf.
	UseValue bool
	// Noise mixes Dirichlet noise into the root priors. Default off.
	Noise eval.Noise
	// Seed initializes the master RNG that seeds each worker.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Iterations:   1000,
		PlayoutDepth: 200,
		Exploration:  1.4,
		PriorWeight:  0.5,
		PWK:          1.0,
		PWAlpha:      0.5,
		Threads:      1,
		TTShards:     64,
		Rules:        board.Chinese,
		Komi:         6.5,
		Seed:         0xC0FFEE,
	}
}

func (c Config) String() string {
	return fmt.Sprintf("{iter=%v, depth=%v, c=%v, prior=%v, pw=%v^%v, threads=%v, shards=%v, komi=%v}",
		c.Iterations, c.PlayoutDepth, c.Exploration, c.PriorWeight, c.PWK, c.PWAlpha, c.Threads, c.TTShards, c.Komi)
}

// Options hold dynamic search options for a particular search.
type Options struct {
	// Iterations, if set, overrides the configured iteration cap.
	Iterations lang.Optional[uint]
	// Deadline, if set, bounds the search by wall time instead of
	// iterations. Workers observe it at the top of each iteration.
	Deadline lang.Optional[time.Duration]
}

func (o Options) String() string {
	var ret []string
	if v, ok := o.Iterations.V(); ok {
		ret = append(ret, fmt.Sprintf("iterations=%v", v))
	}
	if v, ok := o.Deadline.V(); ok {
		ret = append(ret, fmt.Sprintf("deadline=%v", v))
	}
	return fmt.Sprintf("[%v]", strings.Join(ret, ", "))
}

// Result is the outcome of a search: the selected move and root statistics.
type Result struct {
	Move   board.Move
	Visits uint32  // visits of the selected child
	Value  float64 // mean value of the selected child, Black's perspective
	Nodes  int     // root children considered
	Time   time.Duration
}

func (r Result) String() string {
	return fmt.Sprintf("move=%v visits=%v value=%.3f nodes=%v time=%v", r.Move, r.Visits, r.Value, r.Nodes, r.Time)
}
