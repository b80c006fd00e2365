package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/example/expressions/cli"
	"github.com/example/expressions/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Run(ctx, cli.StdStreams(), os.Exit, os.Args[1:]...); err != nil {
		log.Error("run failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}
