package sgf_test

import (
	"path/filepath"
	"testing"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/aeddk-bnh/go/pkg/sgf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimple(t *testing.T) {
	g, err := sgf.Parse("(;GM[1]FF[4]SZ[9]KM[6.5];B[cc];W[dd];B[])")
	require.NoError(t, err)

	assert.Equal(t, 9, g.Size)
	assert.Equal(t, 6.5, g.Komi)
	require.Equal(t, 3, len(g.Nodes))

	assert.True(t, g.Nodes[0].Move.Equals(board.NewMove(2, 2, board.Black)))
	assert.True(t, g.Nodes[1].Move.Equals(board.NewMove(3, 3, board.White)))
	assert.True(t, g.Nodes[2].Move.Equals(board.NewPass(board.Black)))
}

func TestParseMetadata(t *testing.T) {
	g, err := sgf.Parse("(;SZ[19]KM[7.5]PB[Shusaku]PW[Gennan]RE[B+2];B[qd])")
	require.NoError(t, err)

	assert.Equal(t, "Shusaku", g.PlayerBlack)
	assert.Equal(t, "Gennan", g.PlayerWhite)
	assert.Equal(t, "B+2", g.Result)
	assert.Equal(t, 7.5, g.Komi)
	assert.Equal(t, 19, g.Size)
}

func TestParseComments(t *testing.T) {
	g, err := sgf.Parse(`(;SZ[9];B[cc]C[good move];W[dd]C[answer \] bracket])`)
	require.NoError(t, err)

	require.Equal(t, 2, len(g.Nodes))
	assert.Equal(t, "good move", g.Nodes[0].Comment)
	assert.Equal(t, "answer ] bracket", g.Nodes[1].Comment)
}

func TestParseErrors(t *testing.T) {
	for _, bad := range []string{
		"(;SZ[x])",
		"(;KM[abc])",
		"(;B[c)",  // unterminated value
		"(;B[z])", // truncated coordinate
	} {
		_, err := sgf.Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	g := &sgf.Game{
		Size:        9,
		Komi:        6.5,
		PlayerBlack: "b]layer", // needs escaping
		PlayerWhite: "white\nplayer",
		Result:      "W+0.5",
		Nodes: []sgf.Node{
			{Move: board.NewMove(2, 2, board.Black), Comment: "open; center"},
			{Move: board.NewMove(6, 6, board.White)},
			{Move: board.NewPass(board.Black)},
		},
	}

	parsed, err := sgf.Parse(g.Encode())
	require.NoError(t, err)

	assert.Equal(t, g.Size, parsed.Size)
	assert.Equal(t, g.Komi, parsed.Komi)
	assert.Equal(t, g.PlayerBlack, parsed.PlayerBlack)
	assert.Equal(t, g.PlayerWhite, parsed.PlayerWhite)
	assert.Equal(t, g.Result, parsed.Result)
	require.Equal(t, len(g.Nodes), len(parsed.Nodes))
	for i := range g.Nodes {
		assert.True(t, parsed.Nodes[i].Move.Equals(g.Nodes[i].Move), "node %v", i)
		assert.Equal(t, g.Nodes[i].Comment, parsed.Nodes[i].Comment, "node %v", i)
	}
}

func TestBoardReplay(t *testing.T) {
	g, err := sgf.Parse("(;SZ[5];B[cc];W[bb];B[])")
	require.NoError(t, err)

	b, err := g.Board()
	require.NoError(t, err)
	assert.Equal(t, 5, b.Size())
	assert.Equal(t, board.Black, b.Get(2, 2))
	assert.Equal(t, board.White, b.Get(1, 1))
	assert.Equal(t, 3, len(b.Moves()))

	// Occupied point during replay is an error.
	g2, err := sgf.Parse("(;SZ[5];B[cc];W[cc])")
	require.NoError(t, err)
	_, err = g2.Board()
	assert.Error(t, err)
}

func TestFromBoard(t *testing.T) {
	b := board.NewBoard(5)
	require.True(t, b.Place(2, 2, board.Black))
	b.Pass(board.White)

	g := sgf.FromBoard(b, 6.5)
	assert.Equal(t, 5, g.Size)
	require.Equal(t, 2, len(g.Nodes))

	replayed, err := g.Board()
	require.NoError(t, err)
	assert.Equal(t, b.Hash(), replayed.Hash())
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sgf")

	g := sgf.FromBoard(board.NewBoard(5), 6.5)
	g.Nodes = append(g.Nodes, sgf.Node{Move: board.NewMove(0, 0, board.Black)})
	require.NoError(t, sgf.WriteFile(path, g))

	read, err := sgf.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, g.Size, read.Size)
	require.Equal(t, 1, len(read.Nodes))
	assert.True(t, read.Nodes[0].Move.Equals(board.NewMove(0, 0, board.Black)))

	_, err = sgf.ReadFile(filepath.Join(t.TempDir(), "missing.sgf"))
	assert.Error(t, err)
}
