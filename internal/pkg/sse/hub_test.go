package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyKeySubscribers(t *testing.T) {
	hub := NewHub()
	mine, cleanupMine := hub.Subscribe("c1:e1")
	other, cleanupOther := hub.Subscribe("c1:e2")
	defer cleanupOther()

	hub.Publish("c1:e1", Event{Event: "notification", Data: "hello"})

	select {
	case ev := <-mine:
		assert.Equal(t, "c1:e1", ev.Key)
		assert.Equal(t, "hello", ev.Data)
	default:
		t.Fatal("expected an event")
	}
	assert.Len(t, other, 0)

	cleanupMine()
	cleanupMine()
	assert.Equal(t, 0, hub.SubscriberCount("c1:e1"))
	_, open := <-mine
	require.False(t, open)
}

func TestHub_FullSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe("k")
	defer cleanup()

	for i := 0; i < 100; i++ {
		hub.Publish("k", Event{Event: "tick"})
	}
	assert.Equal(t, 1, hub.SubscriberCount("k"))
}
