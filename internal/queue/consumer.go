package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one decoded recompute request.
type HandlerFunc func(ctx context.Context, ev RecomputeRequested) error

const maxBackoff = 30 * time.Second

// Consumer drains the recompute queue and hands each message to a handler.
type Consumer struct {
	url      string
	prefetch int
	handle   HandlerFunc
	log      *zap.Logger
}

// NewConsumer returns a Consumer for the broker at url.
func NewConsumer(url string, prefetch int, handle HandlerFunc, log *zap.Logger) *Consumer {
	if prefetch <= 0 {
		prefetch = 50
	}
	return &Consumer{url: url, prefetch: prefetch, handle: handle, log: log}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker connection drops. A message that fails to
// decode or process is rejected without requeue so it cannot loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("recompute-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("recompute-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.log.Warn("recompute-consumer: set QoS failed", zap.Error(err))
	}
	if err := declareRecomputeQueue(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(RecomputeQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.deliver(ctx, d.Body); err != nil {
				c.log.Error("recompute-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, body []byte) error {
	var ev RecomputeRequested
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return c.handle(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
