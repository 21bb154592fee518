package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pseudomuto/metatree/pkg/cmd"
)

// NB: These are set with -ldflags during release builds.
var (
	version string
	commit  string
	date    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cmd.New(cmd.Version{
		Version:   version,
		Commit:    commit,
		Timestamp: date,
	})

	if err := app.Run(ctx, os.Args); err != nil {
		slog.Error("Error running command", "err", err)
		stop()
		os.Exit(1)
	}
}
