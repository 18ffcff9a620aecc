package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishQueuesEncodedEvent(t *testing.T) {
	h := NewHub(nil)

	h.Publish(Event{Type: "stock_update", Action: "delta_applied", Data: map[string]int{"balance_after": 7}})

	select {
	case msg := <-h.Broadcast:
		var got Event
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, "stock_update", got.Type)
		assert.Equal(t, "delta_applied", got.Action)
		assert.False(t, got.SentAt.IsZero())
	default:
		t.Fatal("expected a queued message")
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	h := NewHub(nil)
	for i := 0; i < cap(h.Broadcast)+5; i++ {
		h.Publish(Event{Type: "stock_update"})
	}
	assert.Len(t, h.Broadcast, cap(h.Broadcast))
}

func TestNilHubPublish(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(Event{Type: "x"}) })
}

func TestRunStopsOnCancel(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	h.Publish(Event{Type: "stock_update"})
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, h.ClientCount())
}

func TestJoinAndLeaveAfterStop(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	// unknown connections are ignored while running
	h.Leave(nil)

	cancel()
	<-stopped

	returned := make(chan bool)
	go func() {
		ok := h.Join(nil)
		h.Leave(nil)
		returned <- ok
	}()

	select {
	case ok := <-returned:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("join or leave blocked on a stopped hub")
	}
}
