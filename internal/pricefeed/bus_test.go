package pricefeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	t.Parallel()
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish(Event{Type: "quotes", Data: "payload"})

	evt := <-a
	assert.Equal(t, "quotes", evt.Type)
	evt = <-b
	assert.Equal(t, "quotes", evt.Type)

	bus.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)

	// Publishing after unsubscribe only reaches the remaining subscriber.
	bus.Publish(Event{Type: "quotes"})
	evt, open = <-b, true
	require.True(t, open)
	assert.Equal(t, "quotes", evt.Type)

	bus.Unsubscribe(b)
	// Double unsubscribe must not panic on the closed channel.
	bus.Unsubscribe(b)
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	t.Parallel()
	bus := NewBus()
	ch := bus.Subscribe()
	// Fill the buffer and one more; Publish must never block.
	for i := 0; i < 150; i++ {
		bus.Publish(Event{Type: "quotes"})
	}
	assert.Equal(t, 100, len(ch))
	bus.Unsubscribe(ch)
}
