package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/momentum/pkg/observability"
)

// DefaultConsumerQueueName is the queue the worker consumes from.
const DefaultConsumerQueueName = "momentum.consumer"

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	Logger    *slog.Logger
	Metrics   observability.Metrics
}

// RabbitMQConsumer pulls events off a durable queue and routes them through
// a ConsumerRegistry. Messages are acked only after dispatch succeeds;
// handler failures are requeued for retry.
type RabbitMQConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queue     string
	exchange  string
	registry  *ConsumerRegistry
	logger    *slog.Logger
	metrics   observability.Metrics
	mu        sync.Mutex
	running   bool
	closeChan chan struct{}
}

// NewRabbitMQConsumer dials the broker and declares the queue.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}

	conn, ch, err := dialAndDeclare(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, err
	}

	if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.QueueName, err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected",
		"queue", cfg.QueueName,
		"exchange", cfg.Exchange,
	)

	return &RabbitMQConsumer{
		conn:      conn,
		channel:   ch,
		queue:     cfg.QueueName,
		exchange:  cfg.Exchange,
		registry:  registry,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		closeChan: make(chan struct{}),
	}, nil
}

// RegisterConsumer subscribes a consumer and binds its routing keys to the
// queue so the broker starts delivering them.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	for _, key := range consumer.EventTypes() {
		if err := c.bind(key); err != nil {
			c.logger.Error("queue bind failed", "routing_key", key, "error", err)
		}
	}
}

func (c *RabbitMQConsumer) bind(routingKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.channel.QueueBind(c.queue, routingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", c.queue, routingKey, err)
	}
	c.logger.Debug("queue bound", "queue", c.queue, "routing_key", routingKey)
	return nil
}

// Start consumes until the context is cancelled or Close is called.
// Deliveries are processed one at a time.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}

	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.Info("consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer context cancelled, stopping")
			return ctx.Err()

		case <-c.closeChan:
			c.logger.Info("consumer close requested, stopping")
			return nil

		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed unexpectedly")
			}
			c.settle(ctx, msg)
		}
	}
}

// settle dispatches one delivery and acks or nacks it based on the outcome.
func (c *RabbitMQConsumer) settle(ctx context.Context, msg amqp.Delivery) {
	if err := c.processMessage(ctx, msg); err != nil {
		c.logger.Error("message processing failed",
			"routing_key", msg.RoutingKey,
			"error", err,
		)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.logger.Error("nack failed", "error", nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("ack failed", "error", ackErr)
	}
}

func (c *RabbitMQConsumer) processMessage(ctx context.Context, msg amqp.Delivery) error {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(msg.Body, event); err != nil {
		// Malformed body, ack and discard rather than retry forever.
		c.logger.Error("undecodable event body",
			"routing_key", msg.RoutingKey,
			"error", err,
		)
		return nil
	}

	if event.RoutingKey == "" {
		event.RoutingKey = msg.RoutingKey
	}

	dispatchCtx := observability.WithCorrelationID(ctx, event.Metadata.CorrelationID)
	if event.Metadata.UserID != "" {
		dispatchCtx = observability.WithUserID(dispatchCtx, event.Metadata.UserID)
	}

	start := time.Now()
	err := c.registry.Dispatch(dispatchCtx, event)
	duration := time.Since(start)
	c.metrics.Counter(observability.MetricEventsConsumed, 1)

	if err != nil {
		c.logger.Error("event dispatch failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return err
	}

	c.logger.Debug("event processed",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// Close stops the consume loop and closes the connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	close(c.closeChan)
	c.running = false

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return err
		}
	}

	c.logger.Info("RabbitMQ consumer closed")
	return nil
}
