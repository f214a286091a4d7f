// Package engine encapsulates game-playing logic on top of the search:
// game state, move handling and analysis lifecycle.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/aeddk-bnh/go/pkg/search"
	"github.com/pkg/errors"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
)

var version = build.NewVersion(0, 4, 1)

// Engine encapsulates a game of Go and the MCTS machinery that plays it.
type Engine struct {
	name, author string

	cfg  search.Config
	mcts *search.MCTS

	game    *Game
	history []*Game

	active search.Handle
	mu     sync.Mutex
}

func New(ctx context.Context, name, author string, size int, cfg search.Config) *Engine {
	e := &Engine{
		name:   name,
		author: author,
		cfg:    cfg,
		mcts:   search.New(cfg),
		game:   NewGame(size, cfg.Rules, cfg.Komi),
	}

	logw.Infof(ctx, "Initialized engine: %v, size=%v, config=%v", e.Name(), size, cfg)
	return e
}

// Name returns the engine name and version.
func (e *Engine) Name() string {
	return fmt.Sprintf("%v %v", e.name, version)
}

// Author returns the author.
func (e *Engine) Author() string {
	return e.author
}

// Game returns the live game. Callers must not mutate it directly.
func (e *Engine) Game() *Game {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.game
}

// Reset starts a new game of the given size, discarding the search tree.
func (e *Engine) Reset(ctx context.Context, size int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if size < 2 || size > 25 {
		return errors.Errorf("invalid board size: %v", size)
	}
	e.haltIfActive(ctx)

	e.game = NewGame(size, e.cfg.Rules, e.cfg.Komi)
	e.history = nil
	e.mcts = search.New(e.cfg)

	logw.Infof(ctx, "New game: %vx%v, komi=%v", size, size, e.cfg.Komi)
	return nil
}

// Restore replaces the current game, discarding the search tree. Used when
// loading a game record.
func (e *Engine) Restore(ctx context.Context, g *Game) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltIfActive(ctx)
	e.game = g
	e.history = nil
	e.mcts = search.New(e.cfg)

	logw.Infof(ctx, "Restored game: %v", g.Board())
}

// Move plays the given move for the current player, usually an opponent
// move, and advances the search tree to the matching subtree.
func (e *Engine) Move(ctx context.Context, mv board.Move) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltIfActive(ctx)

	snapshot := e.game.Clone()
	if !e.game.Apply(mv) {
		return errors.Errorf("illegal move: %v", mv)
	}
	e.history = append(e.history, snapshot)

	if !e.mcts.Reroot(mv) {
		logw.Debugf(ctx, "No subtree for %v; tree discarded", mv)
	}
	logw.Infof(ctx, "Move %v: %v", mv, e.game.Board())
	return nil
}

// TakeBack undoes the latest move.
func (e *Engine) TakeBack(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltIfActive(ctx)

	if len(e.history) == 0 {
		return errors.New("no move to take back")
	}
	e.game = e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]

	logw.Infof(ctx, "Takeback: %v", e.game.Board())
	return nil
}

// Genmove searches for a move for the current player, plays it and advances
// the tree. Returns the move played.
func (e *Engine) Genmove(ctx context.Context, opt search.Options) (board.Move, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltIfActive(ctx)

	if e.game.IsOver() {
		return board.Move{}, errors.New("game is over")
	}

	mv, err := e.mcts.Search(ctx, e.game.Board(), e.game.CurrentPlayer(), opt)
	if err != nil {
		return board.Move{}, err
	}

	snapshot := e.game.Clone()
	if !e.game.Apply(mv) {
		return board.Move{}, errors.Errorf("search returned illegal move: %v", mv)
	}
	e.history = append(e.history, snapshot)

	if !e.mcts.Reroot(mv) {
		logw.Debugf(ctx, "No subtree for %v; tree discarded", mv)
	}
	logw.Infof(ctx, "Genmove %v: %v", mv, e.game.Board())
	return mv, nil
}

// Analyze launches a search for the current position without playing the
// result. The channel yields the final result.
func (e *Engine) Analyze(ctx context.Context, opt search.Options) (<-chan search.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return nil, errors.New("search already active")
	}
	if e.game.IsOver() {
		return nil, errors.New("game is over")
	}

	logw.Infof(ctx, "Analyze %v, opt=%v", e.game.Board(), opt)

	handle, out := e.mcts.Launch(ctx, e.game.Board().Clone(), e.game.CurrentPlayer(), opt)
	e.active = handle
	return out, nil
}

// Halt stops the active analysis and returns its result.
func (e *Engine) Halt(ctx context.Context) (search.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return search.Result{}, errors.New("no active search")
	}
	res := e.active.Halt()
	e.active = nil

	logw.Infof(ctx, "Search halted: %v", res)
	return res, nil
}

func (e *Engine) haltIfActive(ctx context.Context) {
	if e.active != nil {
		res := e.active.Halt()
		e.active = nil
		logw.Debugf(ctx, "Active search halted: %v", res)
	}
}
