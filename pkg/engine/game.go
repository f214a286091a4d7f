package engine

import (
	"github.com/aeddk-bnh/go/pkg/board"
)

// Game tracks a single game: the board, whose turn it is, and the end
// conditions (two consecutive passes, resignation). Not thread-safe.
type Game struct {
	b      *board.Board
	toMove board.Color

	passes   int
	resigned bool
	winner   board.Color

	rules board.Ruleset
	komi  float64
}

func NewGame(size int, rules board.Ruleset, komi float64) *Game {
	return &Game{
		b:      board.NewBoard(size),
		toMove: board.Black,
		rules:  rules,
		komi:   komi,
	}
}

// Clone returns an independent copy, used for takeback history.
func (g *Game) Clone() *Game {
	fork := *g
	fork.b = g.b.Clone()
	return &fork
}

func (g *Game) Board() *board.Board {
	return g.b
}

func (g *Game) CurrentPlayer() board.Color {
	return g.toMove
}

func (g *Game) Rules() board.Ruleset {
	return g.rules
}

func (g *Game) Komi() float64 {
	return g.komi
}

// Play places a stone for the current player, if legal.
func (g *Game) Play(x, y int) bool {
	if g.IsOver() {
		return false
	}
	if !g.b.Place(x, y, g.toMove) {
		return false
	}
	g.passes = 0
	g.toMove = g.toMove.Opponent()
	return true
}

// Pass passes for the current player. The game ends on the second
// consecutive pass and the winner is decided by scoring.
func (g *Game) Pass() bool {
	if g.IsOver() {
		return false
	}
	g.b.Pass(g.toMove)
	g.passes++
	if g.passes >= 2 {
		g.finalize()
	}
	g.toMove = g.toMove.Opponent()
	return true
}

// Apply plays the given move for its color, which must be the current
// player's.
func (g *Game) Apply(m board.Move) bool {
	if m.Color != g.toMove {
		return false
	}
	if m.Pass {
		return g.Pass()
	}
	return g.Play(m.X, m.Y)
}

// Resign ends the game; the player about to move wins.
func (g *Game) Resign() {
	if g.IsOver() {
		return
	}
	g.resigned = true
	g.winner = g.toMove
}

func (g *Game) IsOver() bool {
	return g.resigned || g.passes >= 2 || g.winner != board.Empty
}

// Winner returns the winning color, or Empty while undecided.
func (g *Game) Winner() board.Color {
	return g.winner
}

// Score returns (black, white) under the game's rules and komi.
func (g *Game) Score() (float64, float64) {
	return g.b.Score(g.rules, g.komi)
}

func (g *Game) finalize() {
	if g.resigned || g.winner != board.Empty {
		return
	}
	black, white := g.Score()
	if black > white {
		g.winner = board.Black
	} else {
		g.winner = board.White
	}
}
