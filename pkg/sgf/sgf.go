// Package sgf reads and writes game records in Smart Game Format. Only the
// main line is handled; variations are ignored.
package sgf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/pkg/errors"
)

// Node is one move of the main line with its optional comment.
type Node struct {
	Move    board.Move
	Comment string
}

// Game is a parsed game record.
type Game struct {
	Size        int
	Komi        float64
	PlayerBlack string
	PlayerWhite string
	Result      string
	Nodes       []Node
}

// FromBoard builds a record from a board's move history.
func FromBoard(b *board.Board, komi float64) *Game {
	g := &Game{
		Size: b.Size(),
		Komi: komi,
	}
	for _, m := range b.Moves() {
		g.Nodes = append(g.Nodes, Node{Move: m})
	}
	return g
}

// Board replays the record onto a fresh board.
func (g *Game) Board() (*board.Board, error) {
	size := g.Size
	if size == 0 {
		size = 19
	}
	b := board.NewBoard(size)
	for i, n := range g.Nodes {
		if !b.Apply(n.Move) {
			return nil, errors.Errorf("illegal move %v at node %v", n.Move, i)
		}
	}
	return b, nil
}

// Parse reads an SGF string. Recognized properties: SZ, KM, PB, PW, RE, B,
// W and per-move C. Unknown properties are skipped.
func Parse(content string) (*Game, error) {
	g := &Game{Size: 19}

	i := 0
	for i < len(content) {
		if content[i] == ')' {
			// The first closing parenthesis ends the main line; later
			// variations are skipped.
			break
		}
		if content[i] != ';' {
			i++
			continue
		}
		i++

		// Parse all properties of this node.
		var moveColor byte
		var moveVal, comment string
		hasMove := false
		for i < len(content) && content[i] != ';' && content[i] != '(' && content[i] != ')' {
			if unicode.IsSpace(rune(content[i])) {
				i++
				continue
			}

			j := i
			for j < len(content) && content[j] >= 'A' && content[j] <= 'Z' {
				j++
			}
			prop := content[i:j]
			i = j
			if i >= len(content) || content[i] != '[' {
				if prop == "" {
					i++ // skip stray character
				}
				continue
			}

			// Bracketed value with escaping.
			i++
			raw, rest, err := readValue(content[i:])
			if err != nil {
				return nil, errors.Wrapf(err, "property %v", prop)
			}
			i = len(content) - len(rest)

			val := unescape(raw)
			switch prop {
			case "B", "W":
				moveColor, moveVal, hasMove = prop[0], val, true
			case "C":
				comment = val
			case "SZ":
				size, err := strconv.Atoi(strings.TrimSpace(val))
				if err != nil {
					return nil, errors.Wrapf(err, "invalid SZ")
				}
				g.Size = size
			case "KM":
				komi, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid KM")
				}
				g.Komi = komi
			case "PB":
				g.PlayerBlack = val
			case "PW":
				g.PlayerWhite = val
			case "RE":
				g.Result = val
			}
		}

		if hasMove {
			c := board.Black
			if moveColor == 'W' {
				c = board.White
			}
			mv, err := decodeMove(moveVal, c)
			if err != nil {
				return nil, err
			}
			g.Nodes = append(g.Nodes, Node{Move: mv, Comment: comment})
		}
	}
	return g, nil
}

// Encode writes the record as a single-tree SGF string.
func (g *Game) Encode() string {
	var sb strings.Builder
	sb.WriteString("(\n")
	fmt.Fprintf(&sb, ";GM[1]FF[4]SZ[%v]KM[%v]", g.Size, g.Komi)
	if g.PlayerBlack != "" {
		fmt.Fprintf(&sb, "PB[%v]", escape(g.PlayerBlack))
	}
	if g.PlayerWhite != "" {
		fmt.Fprintf(&sb, "PW[%v]", escape(g.PlayerWhite))
	}
	if g.Result != "" {
		fmt.Fprintf(&sb, "RE[%v]", escape(g.Result))
	}
	for _, n := range g.Nodes {
		sb.WriteString(";")
		if n.Move.Color == board.White {
			sb.WriteString("W")
		} else {
			sb.WriteString("B")
		}
		if n.Move.Pass {
			sb.WriteString("[]")
		} else {
			fmt.Fprintf(&sb, "[%c%c]", coordLetter(n.Move.X), coordLetter(n.Move.Y))
		}
		if n.Comment != "" {
			fmt.Fprintf(&sb, "C[%v]", escape(n.Comment))
		}
	}
	sb.WriteString(")\n")
	return sb.String()
}

// ReadFile parses a record from disk.
func ReadFile(path string) (*Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %v", path)
	}
	return Parse(string(data))
}

// WriteFile writes the record to disk.
func WriteFile(path string, g *Game) error {
	if err := os.WriteFile(path, []byte(g.Encode()), 0644); err != nil {
		return errors.Wrapf(err, "write %v", path)
	}
	return nil
}

// readValue consumes an escaped bracketed value up to the closing ']',
// returning the raw value and the remainder after the bracket.
func readValue(s string) (string, string, error) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++ // skip escaped character
		case ']':
			return s[:i], s[i+1:], nil
		}
	}
	return "", "", errors.New("unterminated property value")
}

func decodeMove(val string, c board.Color) (board.Move, error) {
	if val == "" {
		return board.NewPass(c), nil
	}
	if len(val) < 2 {
		return board.Move{}, errors.Errorf("invalid move value: '%v'", val)
	}
	x, y := int(val[0]-'a'), int(val[1]-'a')
	if x < 0 || y < 0 || x >= 26 || y >= 26 {
		return board.Move{}, errors.Errorf("invalid move value: '%v'", val)
	}
	return board.NewMove(x, y, c), nil
}

func coordLetter(v int) byte {
	return byte('a' + v)
}

func escape(in string) string {
	var sb strings.Builder
	for _, c := range in {
		switch c {
		case '\\', ']', ';':
			sb.WriteByte('\\')
			sb.WriteRune(c)
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

func unescape(in string) string {
	var sb strings.Builder
	for i := 0; i < len(in); i++ {
		c := in[i]
		if c == '\\' && i+1 < len(in) {
			i++
			switch in[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(in[i])
			}
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
