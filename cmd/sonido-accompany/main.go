// Package main is the entry point for the sonido-accompany CLI.
//
// Usage:
//
//	sonido-accompany [flags] <command> [args]
//
// Commands:
//
//	import  - Decode a vocal recording and store it with its rhythm and tempo
//	render  - Render a stored vocal with a piano accompaniment to WAV
//	key     - Print the fitted key and note sequence of a stored vocal
//	play    - Play a WAV file or a stored bundle
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-accompany/cmd/sonido-accompany/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
