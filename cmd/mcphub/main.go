// Package main is the entry point for the mcphub CLI.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Cognitive-Stack/mcphub/cmd/mcphub/commands"
	"github.com/Cognitive-Stack/mcphub/internal/logging"
)

func main() {
	// replaced once flags are parsed
	slog.SetDefault(logging.Default())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(commands.ReportError(os.Stderr, err))
	}
}
