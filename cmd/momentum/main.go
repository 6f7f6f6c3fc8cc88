package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/momentum/adapter/cli"
	"github.com/felixgeelhaar/momentum/internal/app"
	"github.com/felixgeelhaar/momentum/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	container, err := app.NewContainer(ctx, app.Options{})
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer func() { _ = container.Close() }()

	cli.SetLogger(container.Logger)
	cli.SetContainer(container)
	cli.Execute()
}
