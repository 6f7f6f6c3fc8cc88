// The worker consumes queued feedback events from RabbitMQ and applies them
// to the adaptive weight model.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/momentum/internal/app"
	"github.com/felixgeelhaar/momentum/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/momentum/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting momentum worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	container, err := app.NewContainer(ctx, app.Options{UseRabbitMQ: true})
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer func() { _ = container.Close() }()

	registry := eventbus.NewConsumerRegistry(container.Logger)
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:     container.Config.RabbitMQURL,
		Logger:  container.Logger,
		Metrics: container.Metrics,
	}, registry)
	if err != nil {
		logger.Error("failed to connect consumer to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer func() { _ = consumer.Close() }()

	consumer.RegisterConsumer(container.FeedbackSubscriber)

	logger.Info("worker consuming events",
		"queue", eventbus.DefaultConsumerQueueName,
		"exchange", eventbus.ExchangeName,
	)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("momentum worker stopped")
}
