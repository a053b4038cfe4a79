package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	msgs    [][]byte
	failing bool
	closed  bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	c.msgs = append(c.msgs, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHubBroadcastsPublishedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	good := &fakeConn{}
	bad := &fakeConn{failing: true}
	hub.Register <- good
	hub.Register <- bad

	evt := events.Event{Kind: events.KindProductCreated, ProductID: uuid.New(), ProductName: "Widget"}
	require.NoError(t, hub.Publish(ctx, evt))

	require.Eventually(t, func() bool { return good.received() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, bad.isClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())

	var decoded events.Event
	require.NoError(t, json.Unmarshal(good.msgs[0], &decoded))
	assert.Equal(t, evt.ProductID, decoded.ProductID)

	hub.Unregister <- good
	require.Eventually(t, good.isClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubPublishDropsWhenQueueFull(t *testing.T) {
	hub := NewHub()
	for i := 0; i < broadcastBuffer+5; i++ {
		require.NoError(t, hub.Publish(context.Background(), events.Event{Kind: events.KindStockMoved}))
	}
	assert.Len(t, hub.Broadcast, broadcastBuffer)
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	conn := &fakeConn{}
	hub.Join(conn)
	cancel()
	<-done

	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, hub.ClientCount())

	// After shutdown joining closes the connection and leaving returns at once
	late := &fakeConn{}
	hub.Join(late)
	hub.Leave(late)
	assert.True(t, late.isClosed())
}
