package search

import (
	"context"
	"sync"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/seekerror/stdlib/pkg/util/contextx"
	"github.com/seekerror/stdlib/pkg/util/iox"
)

// Handle is an interface for managing a launched search. The caller is
// expected to spin off searches with exclusive (cloned) boards and halt or
// abandon them when no longer needed. This design keeps stopping conditions
// and re-synchronization trivial.
type Handle interface {
	// Halt stops the search, if running, and returns its result. Idempotent.
	Halt() Result
}

// Launch runs a search asynchronously. The result channel yields the final
// result and is then closed. Halting stops the workers within one iteration
// each and returns the result of the iterations completed so far.
func (m *MCTS) Launch(ctx context.Context, state *board.Board, toPlay board.Color, opt Options) (Handle, <-chan Result) {
	out := make(chan Result, 1)
	h := &handle{
		done: iox.NewAsyncCloser(),
		quit: iox.NewAsyncCloser(),
	}
	go h.process(ctx, m, state, toPlay, opt, out)

	return h, out
}

type handle struct {
	done, quit iox.AsyncCloser

	res Result
	mu  sync.Mutex
}

func (h *handle) process(ctx context.Context, m *MCTS, state *board.Board, toPlay board.Color, opt Options, out chan Result) {
	defer h.done.Close()
	defer close(out)

	wctx, cancel := contextx.WithQuitCancel(ctx, h.quit.Closed())
	defer cancel()

	res, err := m.search(wctx, state, toPlay, opt)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.res = res
	h.mu.Unlock()

	out <- res
}

func (h *handle) Halt() Result {
	h.quit.Close()
	<-h.done.Closed()

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.res
}
