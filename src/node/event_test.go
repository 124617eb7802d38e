package node

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventChannelOrder(t *testing.T) {
	events := NewEventChannel()

	for i := 0; i < 100; i++ {
		require.NoError(t, events.Send(i))
	}

	assert.Equal(t, 100, events.Len())

	for i := 0; i < 100; i++ {
		ev, ok := events.TryRecv()
		require.True(t, ok)
		assert.Equal(t, i, ev)
	}

	_, ok := events.TryRecv()
	assert.False(t, ok)
}

func TestEventChannelRecvWaits(t *testing.T) {
	events := NewEventChannel()

	go func() {
		time.Sleep(20 * time.Millisecond)
		events.Send("hello")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ev, err := events.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", ev)
}

func TestEventChannelRecvContext(t *testing.T) {
	events := NewEventChannel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := events.Recv(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestEventChannelClose(t *testing.T) {
	events := NewEventChannel()
	require.NoError(t, events.Send(1))

	events.Close()

	assert.Equal(t, ErrEventReceiverClosed, events.Send(2))
	assert.Equal(t, 0, events.Len())

	_, err := events.Recv(context.Background())
	assert.Equal(t, ErrEventReceiverClosed, err)
}
