package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Move represents a stone placement or a pass for a given color. A pass
// carries the coordinates (-1,-1). Moves compare by value on all fields.
type Move struct {
	X, Y  int
	Color Color
	Pass  bool
}

// NewMove returns a placement move at (x,y).
func NewMove(x, y int, c Color) Move {
	return Move{X: x, Y: y, Color: c}
}

// NewPass returns a pass move for the given color.
func NewPass(c Color) Move {
	return Move{X: -1, Y: -1, Color: c, Pass: true}
}

func (m Move) Equals(o Move) bool {
	return m.X == o.X && m.Y == o.Y && m.Color == o.Color && m.Pass == o.Pass
}

// ParseMove parses a move in Go coordinate notation, such as "D4" or "pass".
// Column letters skip 'I' per Go convention. Rows are 1-indexed from the top.
func ParseMove(str string, size int, c Color) (Move, error) {
	s := strings.TrimSpace(strings.ToUpper(str))
	if s == "" {
		return Move{}, errors.New("empty move")
	}
	if strings.EqualFold(s, "PASS") {
		return NewPass(c), nil
	}

	col := s[0]
	if col < 'A' || col > 'Z' || col == 'I' {
		return Move{}, errors.Errorf("invalid column: '%v'", str)
	}
	x := int(col - 'A')
	if col > 'I' {
		x--
	}

	y, err := strconv.Atoi(s[1:])
	if err != nil {
		return Move{}, errors.Wrapf(err, "invalid row: '%v'", str)
	}
	y-- // rows are 1-indexed

	if x < 0 || y < 0 || x >= size || y >= size {
		return Move{}, errors.Errorf("move off the board: '%v'", str)
	}
	return NewMove(x, y, c), nil
}

func (m Move) String() string {
	if m.Pass {
		return fmt.Sprintf("%v pass", m.Color)
	}
	col := byte('A' + m.X)
	if col >= 'I' {
		col++
	}
	return fmt.Sprintf("%v %c%v", m.Color, col, m.Y+1)
}

// FormatMoves prints a move list as a single line.
func FormatMoves(moves []Move) string {
	var ret []string
	for _, m := range moves {
		ret = append(ret, m.String())
	}
	return strings.Join(ret, " ")
}
