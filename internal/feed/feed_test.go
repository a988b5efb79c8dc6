package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/comandas-pos/pos/internal/feed"
	"github.com/comandas-pos/pos/internal/order"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_LegacyShape(t *testing.T) {
	m, err := feed.Decode([]byte(`{"action":"create","pedido":{"id":5,"numero_pedido":2,"cliente":"ANA","total":"1000"}}`))
	require.NoError(t, err)
	assert.Equal(t, "pedidos", m.Source)
	id, ok := m.EntityID()
	require.True(t, ok)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, "ANA", m.Order.Customer)
}

func TestDecode_RevisedShapes(t *testing.T) {
	m, err := feed.Decode([]byte(`{"source":"productos","action":"update","id":3,"producto":{"id":3,"nombre":"Flan","precio_unitario":"100","disponible":false}}`))
	require.NoError(t, err)
	assert.Equal(t, "productos", m.Source)
	assert.False(t, m.Product.Available)

	m, err = feed.Decode([]byte(`{"source":"pedidos","action":"delete","id":9}`))
	require.NoError(t, err)
	id, _ := m.EntityID()
	assert.Equal(t, int64(9), id)
}

func TestDecode_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad json":       `{`,
		"unknown action": `{"action":"upsert","pedido":{"id":1}}`,
		"unknown source": `{"source":"cobros","action":"create","id":1}`,
		"no entity":      `{"source":"pedidos","action":"update"}`,
		"update by id":   `{"source":"pedidos","action":"update","id":1}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := feed.Decode([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func mustDecode(t *testing.T, raw string) feed.Message {
	t.Helper()
	m, err := feed.Decode([]byte(raw))
	require.NoError(t, err)
	return m
}

func TestBoard_AppliesInArrivalOrder(t *testing.T) {
	b := feed.NewBoard()
	b.Apply(mustDecode(t, `{"action":"create","pedido":{"id":1,"numero_pedido":1,"fecha_pedido":"2025-03-14","estado":"PENDIENTE"}}`))
	b.Apply(mustDecode(t, `{"action":"create","pedido":{"id":2,"numero_pedido":2,"fecha_pedido":"2025-03-14","estado":"PENDIENTE"}}`))
	b.Apply(mustDecode(t, `{"source":"pedidos","action":"update","id":1,"pedido":{"id":1,"numero_pedido":1,"fecha_pedido":"2025-03-14","estado":"LISTO"}}`))
	b.Apply(mustDecode(t, `{"source":"pedidos","action":"delete","id":2}`))

	orders := b.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "LISTO", orders[0].Status)

	// Delete of an unknown order is harmless.
	b.Apply(mustDecode(t, `{"source":"pedidos","action":"delete","id":42}`))
	assert.Len(t, b.Orders(), 1)
}

func TestBoard_Replace(t *testing.T) {
	b := feed.NewBoard()
	b.Apply(mustDecode(t, `{"action":"create","pedido":{"id":1}}`))
	b.Replace([]order.Order{{ID: 7, Number: 2}, {ID: 8, Number: 1}}, nil)

	orders := b.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, int64(8), orders[0].ID)
	_, ok := b.Order(1)
	assert.False(t, ok)
}

func TestConsumer_ReconnectsAndResyncs(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)
		msg := `{"source":"pedidos","action":"create","id":1,"pedido":{"id":1,"numero_pedido":1}}`
		if n > 1 {
			msg = `{"source":"pedidos","action":"update","id":1,"pedido":{"id":1,"numero_pedido":1,"estado":"LISTO"}}`
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(msg))
		if n == 1 {
			// Drop the first connection to force a reconnect.
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	board := feed.NewBoard()
	c := feed.NewConsumer("ws"+strings.TrimPrefix(srv.URL, "http"), func() string { return "tok" }, board)
	c.NewBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(10 * time.Millisecond) }

	var resyncs atomic.Int32
	c.Resync = func(ctx context.Context) error {
		resyncs.Add(1)
		return nil
	}
	var mu sync.Mutex
	var seen []string
	updated := make(chan struct{})
	c.OnMessage = func(m feed.Message) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, m.Action)
		if m.Action == "update" {
			close(updated)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	select {
	case <-updated:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reconnect")
	}
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	assert.GreaterOrEqual(t, resyncs.Load(), int32(2))
	o, ok := board.Order(1)
	require.True(t, ok)
	assert.Equal(t, "LISTO", o.Status)
	mu.Lock()
	assert.Equal(t, []string{"create", "update"}, seen)
	mu.Unlock()
}

func TestConsumer_GivesUpWhenPolicyStops(t *testing.T) {
	c := feed.NewConsumer("ws://127.0.0.1:1/ws", nil, feed.NewBoard())
	c.NewBackOff = func() backoff.BackOff { return &backoff.StopBackOff{} }
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up")
}
