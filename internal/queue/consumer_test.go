package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConsumerDeliver(t *testing.T) {
	var got RecomputeRequested
	c := NewConsumer("amqp://unused", 0, func(_ context.Context, ev RecomputeRequested) error {
		got = ev
		return nil
	}, zap.NewNop())

	err := c.deliver(context.Background(), []byte(`{"event_id":"6f1c1a52-3f5e-4a7f-9a36-2b1a3c1f0e11","reason":"updated","requested_at":"2025-07-08T18:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "6f1c1a52-3f5e-4a7f-9a36-2b1a3c1f0e11", got.EventID)
	assert.Equal(t, "updated", got.Reason)
	assert.Equal(t, time.Date(2025, time.July, 8, 18, 0, 0, 0, time.UTC), got.RequestedAt)
	assert.Equal(t, 50, c.prefetch)
}

func TestConsumerDeliver_BadPayload(t *testing.T) {
	called := false
	c := NewConsumer("amqp://unused", 10, func(context.Context, RecomputeRequested) error {
		called = true
		return nil
	}, zap.NewNop())

	assert.Error(t, c.deliver(context.Background(), []byte(`not json`)))
	assert.False(t, called)
}

func TestConsumerDeliver_HandlerError(t *testing.T) {
	boom := errors.New("boom")
	c := NewConsumer("amqp://unused", 10, func(context.Context, RecomputeRequested) error { return boom }, zap.NewNop())
	assert.ErrorIs(t, c.deliver(context.Background(), []byte(`{"event_id":"x"}`)), boom)
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
}
