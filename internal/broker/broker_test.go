package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBrokerDelivers(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	require.NoError(t, b.Subscribe(ctx, "topic", func(p []byte) { got = append(got, string(p)) }))
	require.NoError(t, b.Subscribe(ctx, "other", func(p []byte) { t.Error("wrong topic delivered") }))

	require.NoError(t, b.Publish(ctx, "topic", []byte("one")))
	require.NoError(t, b.Publish(ctx, "topic", []byte("two")))

	assert.Equal(t, []string{"one", "two"}, got)
}

func TestMemoryBrokerUnsubscribesOnCancel(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	require.NoError(t, b.Subscribe(ctx, "topic", func([]byte) { calls++ }))
	cancel()

	require.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.handlers["topic"]) == 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(context.Background(), "topic", []byte("x")))
	assert.Equal(t, 0, calls)
}
