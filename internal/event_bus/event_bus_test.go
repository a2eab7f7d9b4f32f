package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testType EventType = "test.event"

func TestPublish_DeliversToSubscribers(t *testing.T) {
	bus := NewEventBus()

	var received []any
	bus.Subscribe(testType, func(e Event) error {
		received = append(received, e.Data)
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), testType, "payload")))
	assert.Equal(t, []any{"payload"}, received)
}

func TestPublish_IgnoresOtherTypes(t *testing.T) {
	bus := NewEventBus()

	var calls int
	bus.Subscribe(testType, func(e Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), EventType("other"), nil)))
	assert.Zero(t, calls)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()

	var calls int
	unsubscribe := bus.Subscribe(testType, func(e Event) error {
		calls++
		return nil
	})
	unsubscribe()

	require.NoError(t, bus.Publish(NewEvent(context.Background(), testType, nil)))
	assert.Zero(t, calls)
}

func TestSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	t.Run("matching payload type", func(t *testing.T) {
		var received []AccountRemoved
		SubscribeTyped[AccountRemoved](bus, TypeAccountRemoved,
			func(e EventT[AccountRemoved]) error {
				received = append(received, e.Data)
				return nil
			})

		err := bus.Publish(NewEvent(context.Background(), TypeAccountRemoved, AccountRemoved{AccountID: "acc-1"}))
		require.NoError(t, err)
		require.Len(t, received, 1)
		assert.Equal(t, "acc-1", received[0].AccountID)
	})

	t.Run("mismatched payload type is skipped", func(t *testing.T) {
		var calls int
		SubscribeTyped[EventDismissed](bus, testType,
			func(e EventT[EventDismissed]) error {
				calls++
				return nil
			})

		require.NoError(t, bus.Publish(NewEvent(context.Background(), testType, "not a dismissal")))
		assert.Zero(t, calls)
	})
}

func TestPublish_CollectsHandlerErrors(t *testing.T) {
	bus := NewEventBus()

	var secondCalled bool
	bus.Subscribe(testType, func(e Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(testType, func(e Event) error {
		secondCalled = true
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), testType, nil))
	assert.Error(t, err)
	assert.True(t, secondCalled, "a failing handler must not block the rest")
}

func TestPublish_RecoversHandlerPanics(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(testType, func(e Event) error {
		panic("handler exploded")
	})

	err := bus.Publish(NewEvent(context.Background(), testType, nil))
	assert.Error(t, err)
}

func TestPublish_CancelledContext(t *testing.T) {
	bus := NewEventBus()

	var calls int
	bus.Subscribe(testType, func(e Event) error {
		calls++
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(NewEvent(ctx, testType, nil))
	assert.Error(t, err)
	assert.Zero(t, calls)
}
