// Command retrofox processes, renders and plays audio files with the
// RetroFoX effects, GRU amp models and the subtractive synth.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/cwbudde/algo-retrofox/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
