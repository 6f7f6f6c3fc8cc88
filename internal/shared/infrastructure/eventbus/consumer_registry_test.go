package eventbus_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/momentum/internal/shared/infrastructure/eventbus"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestConsumerRegistry_Register(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(testLogger())

	consumer := &mockConsumer{
		eventTypes: []string{"prioritization.feedback.requested", "prioritization.tasks.prioritized"},
	}
	registry.Register(consumer)

	assert.Len(t, registry.GetConsumers("prioritization.feedback.requested"), 1)
	assert.Len(t, registry.GetConsumers("prioritization.tasks.prioritized"), 1)
	assert.Empty(t, registry.GetConsumers("unknown.event"))
	assert.ElementsMatch(t,
		[]string{"prioritization.feedback.requested", "prioritization.tasks.prioritized"},
		registry.GetAllEventTypes(),
	)
	assert.Equal(t, 2, registry.ConsumerCount())
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	t.Run("delivers to all consumers for the type", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(testLogger())

		first := &mockConsumer{eventTypes: []string{"prioritization.feedback.requested"}}
		second := &mockConsumer{eventTypes: []string{"prioritization.feedback.requested"}}
		registry.Register(first)
		registry.Register(second)

		event := &eventbus.ConsumedEvent{
			EventID:    uuid.New(),
			RoutingKey: "prioritization.feedback.requested",
		}
		err := registry.Dispatch(context.Background(), event)
		require.NoError(t, err)

		assert.Len(t, first.events, 1)
		assert.Len(t, second.events, 1)
	})

	t.Run("no consumers is not an error", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(testLogger())

		err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{
			RoutingKey: "unknown.event",
		})
		assert.NoError(t, err)
	})

	t.Run("one failing consumer does not stop the rest", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(testLogger())

		failing := &mockConsumer{
			eventTypes: []string{"prioritization.feedback.requested"},
			err:        errors.New("handler failed"),
		}
		healthy := &mockConsumer{eventTypes: []string{"prioritization.feedback.requested"}}
		registry.Register(failing)
		registry.Register(healthy)

		err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{
			EventID:    uuid.New(),
			RoutingKey: "prioritization.feedback.requested",
		})

		assert.Error(t, err)
		assert.Len(t, healthy.events, 1)
	})
}
