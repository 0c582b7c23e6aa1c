package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"voice-faq-be/internal/pkg/logger"
	"voice-faq-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastToLocalMonitors(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 4)}
	b := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 4)}
	require.True(t, hub.add(a))
	require.True(t, hub.add(b))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(events.BaseEvent{
		Type:       events.FunctionCallDispatched,
		Data:       map[string]interface{}{"call_id": "abc123"},
		OccurredAt: time.Now(),
	})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send:
			var msg map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, events.FunctionCallDispatched, msg["type"])
			assert.Equal(t, "abc123", msg["data"].(map[string]interface{})["call_id"])
		case <-time.After(time.Second):
			t.Fatal("monitor did not receive event")
		}
	}

	hub.remove(a)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	_, open := <-a.Send
	assert.False(t, open)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 1)}
	require.True(t, hub.add(slow))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	evt := events.BaseEvent{Type: events.FunctionCallDispatched, Data: map[string]interface{}{}}
	hub.Broadcast(evt)
	hub.Broadcast(evt)

	assert.Len(t, slow.Send, 1)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHubStopsOnCancel(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	c := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 1)}
	require.True(t, hub.add(c))
	cancel()

	_, open := <-c.Send
	assert.False(t, open)
	assert.False(t, hub.add(&Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 1)}))
	hub.remove(c)
}
