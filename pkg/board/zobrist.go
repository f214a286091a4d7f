package board

import "math/rand"

// ZobristHash is a position hash over the occupied intersections. It is
// intended for positional-superko detection and transposition keying:
// identical positions hash to the same value with overwhelming probability.
//
// See also: https://research.cs.wisc.edu/techreports/1970/TR88.pdf.
type ZobristHash uint64

// zobristSeed is fixed so that equal positions hash identically across
// processes and test runs.
const zobristSeed = -7046029254386353131 // int64 bit pattern of 0x9e3779b97f4a7c15

// ZobristTable is a pseudo-randomized table for computing a position hash
// on an NxN board.
type ZobristTable struct {
	n      int
	points [][2]ZobristHash // [y*n+x][Black-1, White-1]
}

func NewZobristTable(n int) *ZobristTable {
	ret := &ZobristTable{
		n:      n,
		points: make([][2]ZobristHash, n*n),
	}

	r := rand.New(rand.NewSource(zobristSeed))
	for i := range ret.points {
		ret.points[i][0] = ZobristHash(r.Uint64()) // Black
		ret.points[i][1] = ZobristHash(r.Uint64()) // White
	}
	return ret
}

// Hash computes the zobrist hash for the given grid.
func (z *ZobristTable) Hash(grid []Color) ZobristHash {
	var hash ZobristHash
	for i, c := range grid {
		if c.IsStone() {
			hash ^= z.points[i][c-Black]
		}
	}
	return hash
}

// Toggle flips the hash contribution of a single stone. Adding and removing
// a stone are the same operation.
func (z *ZobristTable) Toggle(h ZobristHash, idx int, c Color) ZobristHash {
	if !c.IsStone() {
		return h
	}
	return h ^ z.points[idx][c-Black]
}
