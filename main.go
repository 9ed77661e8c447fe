// main is the entry point for the commitmap CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/commitmap/cmd"
	"github.com/huangsam/commitmap/internal/contract"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx)
	stop()
	cmd.Shutdown()

	if err != nil {
		_, _ = contract.FailColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
