// Package board contains the Go board representation: capture logic,
// suicide and positional-superko legality, zobrist hashing and scoring.
package board

import (
	"fmt"
	"strings"
)

// Board represents an NxN Go board with its move and hash history. A move is
// applied with Place or Pass; legality (occupancy, suicide, positional
// superko) is decided before the grid is touched, so a rejected move leaves
// the board unchanged. Not thread-safe; use Clone for exclusive copies.
type Board struct {
	n    int
	grid []Color
	zt   *ZobristTable

	hash    ZobristHash
	history []ZobristHash
	moves   []Move
}

var neighbors = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func NewBoard(n int) *Board {
	b := &Board{
		n:    n,
		grid: make([]Color, n*n),
		zt:   NewZobristTable(n),
	}
	b.history = append(b.history, b.hash)
	return b
}

// Clone returns an independent deep copy sharing only the zobrist table.
func (b *Board) Clone() *Board {
	fork := &Board{
		n:       b.n,
		grid:    make([]Color, len(b.grid)),
		zt:      b.zt,
		hash:    b.hash,
		history: make([]ZobristHash, len(b.history)),
		moves:   make([]Move, len(b.moves)),
	}
	copy(fork.grid, b.grid)
	copy(fork.history, b.history)
	copy(fork.moves, b.moves)
	return fork
}

func (b *Board) Size() int {
	return b.n
}

func (b *Board) Inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.n && y < b.n
}

func (b *Board) index(x, y int) int {
	return y*b.n + x
}

func (b *Board) Get(x, y int) Color {
	return b.grid[b.index(x, y)]
}

// Set overwrites a single intersection, bypassing the rules. Intended for
// test setup and SGF handicap stones. The hash is kept coherent; the move
// and superko history are not touched.
func (b *Board) Set(x, y int, c Color) {
	idx := b.index(x, y)
	b.hash = b.zt.Toggle(b.hash, idx, b.grid[idx])
	b.grid[idx] = c
	b.hash = b.zt.Toggle(b.hash, idx, c)
}

func (b *Board) Hash() ZobristHash {
	return b.hash
}

func (b *Board) History() []ZobristHash {
	return b.history
}

func (b *Board) Moves() []Move {
	return b.moves
}

// LastMove returns the most recent move, if any.
func (b *Board) LastMove() (Move, bool) {
	if len(b.moves) == 0 {
		return Move{}, false
	}
	return b.moves[len(b.moves)-1], true
}

// Terminal reports whether the game has ended by two consecutive passes.
func (b *Board) Terminal() bool {
	k := len(b.moves)
	return k >= 2 && b.moves[k-1].Pass && b.moves[k-2].Pass
}

// IsLegal reports whether the given placement would be accepted: the point
// is empty and the move is neither suicide nor a positional-superko repeat.
func (b *Board) IsLegal(x, y int, c Color) bool {
	_, _, ok := b.simulate(x, y, c)
	return ok
}

// LegalMoves enumerates the legal placements for the color in row-major
// order, with pass appended as the last element. Pass is always legal.
func (b *Board) LegalMoves(c Color) []Move {
	var moves []Move
	for y := 0; y < b.n; y++ {
		for x := 0; x < b.n; x++ {
			if b.grid[b.index(x, y)] == Empty && b.IsLegal(x, y, c) {
				moves = append(moves, NewMove(x, y, c))
			}
		}
	}
	return append(moves, NewPass(c))
}

// Place plays a stone, removing captured opponent groups. Returns false and
// leaves the board unchanged if the move is illegal.
func (b *Board) Place(x, y int, c Color) bool {
	grid, hash, ok := b.simulate(x, y, c)
	if !ok {
		return false
	}

	b.grid = grid
	b.hash = hash
	b.history = append(b.history, hash)
	b.moves = append(b.moves, NewMove(x, y, c))
	return true
}

// Pass records a pass. The grid is unchanged but the position repeats in the
// history and the move is recorded.
func (b *Board) Pass(c Color) {
	b.history = append(b.history, b.hash)
	b.moves = append(b.moves, NewPass(c))
}

// Apply plays the given move, pass or placement.
func (b *Board) Apply(m Move) bool {
	if m.Pass {
		b.Pass(m.Color)
		return true
	}
	return b.Place(m.X, m.Y, m.Color)
}

// simulate computes the grid and hash after the placement without modifying
// the board, deciding occupancy, capture, suicide and superko.
func (b *Board) simulate(x, y int, c Color) ([]Color, ZobristHash, bool) {
	if !b.Inside(x, y) || !c.IsStone() {
		return nil, 0, false
	}
	idx := b.index(x, y)
	if b.grid[idx] != Empty {
		return nil, 0, false
	}

	grid := make([]Color, len(b.grid))
	copy(grid, b.grid)
	grid[idx] = c

	// Remove adjacent enemy groups left without liberties.
	for _, d := range neighbors {
		nx, ny := x+d[0], y+d[1]
		if !b.Inside(nx, ny) {
			continue
		}
		nidx := b.index(nx, ny)
		if grid[nidx] == c.Opponent() && !b.groupHasLiberty(grid, nx, ny) {
			b.removeGroup(grid, nx, ny)
		}
	}

	// Suicide.
	if !b.groupHasLiberty(grid, x, y) {
		return nil, 0, false
	}

	// Positional superko: the resulting position must be new.
	hash := b.zt.Hash(grid)
	for _, h := range b.history {
		if h == hash {
			return nil, 0, false
		}
	}
	return grid, hash, true
}

// groupHasLiberty reports whether the group at (x,y) has at least one
// adjacent empty point.
func (b *Board) groupHasLiberty(grid []Color, x, y int) bool {
	c := grid[b.index(x, y)]
	if c == Empty {
		return true
	}

	seen := make([]bool, len(grid))
	stack := []int{b.index(x, y)}
	seen[stack[0]] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cx, cy := cur%b.n, cur/b.n
		for _, d := range neighbors {
			nx, ny := cx+d[0], cy+d[1]
			if !b.Inside(nx, ny) {
				continue
			}
			nidx := b.index(nx, ny)
			if grid[nidx] == Empty {
				return true
			}
			if grid[nidx] == c && !seen[nidx] {
				seen[nidx] = true
				stack = append(stack, nidx)
			}
		}
	}
	return false
}

// removeGroup clears the group at (x,y) from the grid.
func (b *Board) removeGroup(grid []Color, x, y int) {
	c := grid[b.index(x, y)]
	stack := []int{b.index(x, y)}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if grid[cur] != c {
			continue
		}
		grid[cur] = Empty
		cx, cy := cur%b.n, cur/b.n
		for _, d := range neighbors {
			nx, ny := cx+d[0], cy+d[1]
			if b.Inside(nx, ny) && grid[b.index(nx, ny)] == c {
				stack = append(stack, b.index(nx, ny))
			}
		}
	}
}

func (b *Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.n; y++ {
		for x := 0; x < b.n; x++ {
			sb.WriteString(b.Get(x, y).String())
		}
		if y < b.n-1 {
			sb.WriteString("/")
		}
	}
	return fmt.Sprintf("go[%vx%v %v 0x%x]", b.n, b.n, sb.String(), b.hash)
}
