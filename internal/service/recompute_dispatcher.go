package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/metrics"
	"github.com/iliyamo/showtime-matcher/internal/queue"
)

// DefaultRecomputeTimeout bounds one detached recompute run.
const DefaultRecomputeTimeout = 30 * time.Second

// Recomputer rebuilds an event's slot aggregates.
type Recomputer interface {
	Recompute(ctx context.Context, eventID uuid.UUID)
}

// RecomputeTrigger submits a recompute without waiting for it. The caller
// gets no completion signal; the summary becomes visible later.
type RecomputeTrigger interface {
	Trigger(eventID uuid.UUID, reason string)
}

// InlineDispatcher runs recomputes on background goroutines of this
// process.
type InlineDispatcher struct {
	recomputer Recomputer
	timeout    time.Duration
	wg         sync.WaitGroup
}

// NewInlineDispatcher returns an InlineDispatcher. timeout <= 0 selects
// DefaultRecomputeTimeout.
func NewInlineDispatcher(r Recomputer, timeout time.Duration) *InlineDispatcher {
	if timeout <= 0 {
		timeout = DefaultRecomputeTimeout
	}
	return &InlineDispatcher{recomputer: r, timeout: timeout}
}

// Trigger starts a recompute detached from any request context.
func (d *InlineDispatcher) Trigger(eventID uuid.UUID, _ string) {
	metrics.RecomputeDispatches.WithLabelValues("inline").Inc()
	d.spawn(eventID)
}

func (d *InlineDispatcher) spawn(eventID uuid.UUID) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.recomputer.Recompute(ctx, eventID)
	}()
}

// Wait blocks until every recompute started so far has finished. It is
// used on shutdown.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}

// RecomputePublisher publishes recompute requests to the broker.
type RecomputePublisher interface {
	PublishRecomputeRequested(ctx context.Context, ev queue.RecomputeRequested) error
}

// QueueDispatcher hands recomputes to the broker so any instance can run
// them. When publishing fails the recompute runs in-process instead.
type QueueDispatcher struct {
	publisher RecomputePublisher
	fallback  *InlineDispatcher
	log       *zap.Logger
	now       func() time.Time
	timeout   time.Duration
}

// NewQueueDispatcher returns a QueueDispatcher that falls back to fallback.
func NewQueueDispatcher(p RecomputePublisher, fallback *InlineDispatcher, log *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{
		publisher: p,
		fallback:  fallback,
		log:       log,
		now:       time.Now,
		timeout:   5 * time.Second,
	}
}

// Trigger publishes a RecomputeRequested message in the background.
func (d *QueueDispatcher) Trigger(eventID uuid.UUID, reason string) {
	ev := queue.RecomputeRequested{
		EventID:     eventID.String(),
		Reason:      reason,
		RequestedAt: d.now().UTC(),
	}
	d.fallback.wg.Add(1)
	go func() {
		defer d.fallback.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.publisher.PublishRecomputeRequested(ctx, ev); err != nil {
			d.log.Warn("recompute publish failed, running in-process",
				zap.String("event_id", ev.EventID), zap.Error(err))
			metrics.RecomputeDispatches.WithLabelValues("fallback").Inc()
			d.fallback.spawn(eventID)
			return
		}
		metrics.RecomputeDispatches.WithLabelValues("queue").Inc()
	}()
}

// Wait blocks until pending publishes and fallback recomputes finish.
func (d *QueueDispatcher) Wait() {
	d.fallback.Wait()
}

// HandleRecomputeRequested adapts a Recomputer to the queue consumer.
func HandleRecomputeRequested(r Recomputer) queue.HandlerFunc {
	return func(ctx context.Context, ev queue.RecomputeRequested) error {
		id, err := uuid.Parse(ev.EventID)
		if err != nil {
			return validationf("event_id %q", ev.EventID)
		}
		r.Recompute(ctx, id)
		return nil
	}
}
