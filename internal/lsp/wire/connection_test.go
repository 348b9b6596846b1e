package wire

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// pipePair returns two Connections wired together over an in-memory net.Pipe,
// standing in for a real process transport in tests.
func pipePair(t *testing.T) (*Connection, *Connection) {
	t.Helper()
	a, b := net.Pipe()

	connA := NewConnection(a, zap.NewNop())
	connB := NewConnection(b, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	connA.Listen(ctx)
	connB.Listen(ctx)

	return connA, connB
}

func TestConnection_CallRoundTrip(t *testing.T) {
	client, server := pipePair(t)

	server.OnRequest("ping", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		return "pong", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out string
	err := client.Call(ctx, "ping", map[string]string{}, &out)
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestConnection_NotifyReachesHandler(t *testing.T) {
	client, server := pipePair(t)

	received := make(chan string, 1)
	server.OnNotification("didThing", func(ctx context.Context, raw json.RawMessage) {
		received <- string(raw)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, client.Notify(ctx, "didThing", map[string]string{"x": "y"}))

	select {
	case msg := <-received:
		assert.Contains(t, msg, "\"x\":\"y\"")
	case <-time.After(time.Second):
		t.Fatal("notification not received")
	}
}

func TestConnection_UnknownMethod_MethodNotFound(t *testing.T) {
	client, _ := pipePair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out interface{}
	err := client.Call(ctx, "nonexistent/method", map[string]string{}, &out)
	assert.Error(t, err)
}

func TestConnection_Close_Idempotent(t *testing.T) {
	client, _ := pipePair(t)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
}
