// Package console implements an interactive console driver for playing
// against the engine and inspecting searches.
package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aeddk-bnh/go/pkg/board"
	"github.com/aeddk-bnh/go/pkg/engine"
	"github.com/aeddk-bnh/go/pkg/search"
	"github.com/aeddk-bnh/go/pkg/sgf"
	"github.com/muesli/termenv"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/seekerror/stdlib/pkg/util/iox"
)

const ProtocolName = "console"

// Driver implements a console driver for interactive play and debugging.
type Driver struct {
	iox.AsyncCloser

	e   *engine.Engine
	out chan<- string

	profile termenv.Profile
}

func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{
		AsyncCloser: iox.NewAsyncCloser(),
		e:           e,
		out:         out,
		profile:     termenv.ColorProfile(),
	}
	go d.process(ctx, in)

	return d, out
}

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.Close()
	defer close(d.out)

	logw.Infof(ctx, "Console protocol initialized")

	d.out <- fmt.Sprintf("engine %v (%v)", d.e.Name(), d.e.Author())
	d.printBoard()

	for {
		select {
		case line, ok := <-in:
			if !ok {
				logw.Infof(ctx, "Input stream broken. Exiting")
				return
			}

			parts := strings.Fields(strings.TrimSpace(line))
			if len(parts) == 0 {
				break
			}

			cmd := strings.ToLower(parts[0])
			args := parts[1:]

			switch cmd {
			case "new", "n":
				// new [<size>]

				size := d.e.Game().Board().Size()
				if len(args) > 0 {
					size, _ = strconv.Atoi(args[0])
				}
				if err := d.e.Reset(ctx, size); err != nil {
					d.out <- fmt.Sprintf("invalid size: %v", err)
					break
				}
				d.printBoard()

			case "pass":
				d.move(ctx, board.NewPass(d.e.Game().CurrentPlayer()))

			case "resign":
				d.e.Game().Resign()
				d.out <- fmt.Sprintf("%v wins by resignation", stone(d.e.Game().Winner()))

			case "mcts", "m":
				// mcts [<iterations>]: engine plays by iteration budget.

				var opt search.Options
				if len(args) > 0 {
					iters, _ := strconv.Atoi(args[0])
					opt.Iterations = lang.Some(uint(iters))
				}
				d.genmove(ctx, opt)

			case "mctst", "t":
				// mctst [<seconds>]: engine plays by time budget.

				secs := 2.0
				if len(args) > 0 {
					secs, _ = strconv.ParseFloat(args[0], 64)
				}
				if secs <= 0 {
					secs = 2.0
				}
				opt := search.Options{Deadline: lang.Some(time.Duration(secs * float64(time.Second)))}
				d.genmove(ctx, opt)

			case "analyze", "a":
				// analyze [<iterations>]: search without playing.

				var opt search.Options
				if len(args) > 0 {
					iters, _ := strconv.Atoi(args[0])
					opt.Iterations = lang.Some(uint(iters))
				}
				out, err := d.e.Analyze(ctx, opt)
				if err != nil {
					d.out <- fmt.Sprintf("analyze failed: %v", err)
					break
				}
				go func() {
					for res := range out {
						d.out <- res.String()
					}
				}()

			case "halt", "stop":
				if res, err := d.e.Halt(ctx); err == nil {
					d.out <- res.String()
				}

			case "undo", "u":
				if err := d.e.TakeBack(ctx); err != nil {
					d.out <- "nothing to undo"
					break
				}
				d.printBoard()

			case "score":
				black, white := d.e.Game().Score()
				d.out <- fmt.Sprintf("black %v, white %v (%v, komi %v)",
					black, white, d.e.Game().Rules(), d.e.Game().Komi())

			case "save":
				if len(args) == 0 {
					d.out <- "usage: save <path>"
					break
				}
				g := sgf.FromBoard(d.e.Game().Board(), d.e.Game().Komi())
				if err := sgf.WriteFile(args[0], g); err != nil {
					d.out <- fmt.Sprintf("save failed: %v", err)
					break
				}
				d.out <- fmt.Sprintf("saved %v", args[0])

			case "load":
				if len(args) == 0 {
					d.out <- "usage: load <path>"
					break
				}
				if err := d.load(ctx, args[0]); err != nil {
					d.out <- fmt.Sprintf("load failed: %v", err)
					break
				}
				d.printBoard()

			case "print", "p":
				d.printBoard()

			case "help", "?":
				d.out <- "commands: <coord> | pass | resign | mcts [iters] | mctst [sec] | analyze [iters] | halt | undo | score | save <path> | load <path> | new [size] | print | quit"

			case "quit", "exit", "q":
				return

			default:
				// Assume a coordinate move if not a recognized command.

				game := d.e.Game()
				mv, err := board.ParseMove(cmd, game.Board().Size(), game.CurrentPlayer())
				if err != nil {
					d.out <- fmt.Sprintf("invalid input: '%v'", line)
					break
				}
				d.move(ctx, mv)
			}

		case <-d.Closed():
			logw.Infof(ctx, "Driver closed")
			return
		}
	}
}

func (d *Driver) move(ctx context.Context, mv board.Move) {
	if err := d.e.Move(ctx, mv); err != nil {
		d.out <- fmt.Sprintf("illegal move: %v", mv)
		return
	}
	d.printBoard()
	d.maybeGameOver()
}

func (d *Driver) genmove(ctx context.Context, opt search.Options) {
	mv, err := d.e.Genmove(ctx, opt)
	if err != nil {
		d.out <- fmt.Sprintf("genmove failed: %v", err)
		return
	}
	d.printBoard()
	d.out <- fmt.Sprintf("engine plays %v", mv)
	d.maybeGameOver()
}

func (d *Driver) maybeGameOver() {
	game := d.e.Game()
	if !game.IsOver() {
		return
	}
	black, white := game.Score()
	d.out <- fmt.Sprintf("game over: %v wins (black %v, white %v)", stone(game.Winner()), black, white)
}

func (d *Driver) load(ctx context.Context, path string) error {
	g, err := sgf.ReadFile(path)
	if err != nil {
		return err
	}
	b, err := g.Board()
	if err != nil {
		return err
	}

	game := engine.NewGame(b.Size(), d.e.Game().Rules(), g.Komi)
	for _, m := range b.Moves() {
		if !game.Apply(m) {
			// Records may have out-of-turn moves (handicap); replay raw.
			if !game.Board().Apply(m) {
				return fmt.Errorf("unplayable record: %v", m)
			}
		}
	}
	d.e.Restore(ctx, game)
	return nil
}

const columns = "ABCDEFGHJKLMNOPQRSTUVWXYZ" // 'I' skipped per Go convention

func (d *Driver) printBoard() {
	game := d.e.Game()
	b := game.Board()
	n := b.Size()

	var last board.Move
	hasLast := false
	if m, ok := b.LastMove(); ok && !m.Pass {
		last, hasLast = m, true
	}

	var head strings.Builder
	head.WriteString("   ")
	for x := 0; x < n; x++ {
		head.WriteString(" ")
		head.WriteByte(columns[x])
		head.WriteString(" ")
	}

	d.out <- ""
	d.out <- head.String()
	for y := 0; y < n; y++ {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%2d ", y+1)
		for x := 0; x < n; x++ {
			marked := hasLast && last.X == x && last.Y == y
			sb.WriteString(" ")
			sb.WriteString(d.printStone(b.Get(x, y), marked))
			sb.WriteString(" ")
		}
		d.out <- sb.String()
	}
	d.out <- ""
	d.out <- fmt.Sprintf("%v to move, hash: 0x%x", stone(game.CurrentPlayer()), b.Hash())
}

func (d *Driver) printStone(c board.Color, marked bool) string {
	var s termenv.Style
	switch c {
	case board.Black:
		s = termenv.String("●").Foreground(d.profile.Color("0"))
	case board.White:
		s = termenv.String("○").Foreground(d.profile.Color("7"))
	default:
		s = termenv.String("·").Foreground(d.profile.Color("8"))
	}
	if marked {
		s = s.Bold().Underline()
	}
	return s.String()
}

func stone(c board.Color) string {
	switch c {
	case board.Black:
		return "black"
	case board.White:
		return "white"
	default:
		return "nobody"
	}
}
