package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aeddk-bnh/go/pkg/engine"
	"github.com/aeddk-bnh/go/pkg/engine/console"
	"github.com/aeddk-bnh/go/pkg/search"
	"github.com/seekerror/logw"
)

var (
	size       = flag.Int("size", 9, "Board size")
	komi       = flag.Float64("komi", 6.5, "Komi added to White's score")
	iterations = flag.Int("iterations", 1000, "Default search iterations")
	threads    = flag.Int("threads", 1, "Search worker threads")
	playout    = flag.Int("playout", 200, "Maximum rollout depth")
	seed       = flag.Int64("seed", 0xC0FFEE, "Master RNG seed")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: bnh [options]

BNH is a console Go engine based on parallel Monte-Carlo Tree Search.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	cfg := search.DefaultConfig()
	cfg.Iterations = *iterations
	cfg.Threads = *threads
	cfg.PlayoutDepth = *playout
	cfg.Komi = *komi
	cfg.Seed = *seed

	e := engine.New(ctx, "bnh", "aeddk", *size, cfg)

	in := engine.ReadStdinLines(ctx)
	driver, out := console.NewDriver(ctx, e, in)
	go engine.WriteStdoutLines(ctx, out)

	<-driver.Closed()
	logw.Infof(ctx, "Bye")
}
