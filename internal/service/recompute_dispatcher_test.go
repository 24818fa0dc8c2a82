package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/queue"
)

type recordingRecomputer struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (r *recordingRecomputer) Recompute(ctx context.Context, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		panic("recompute without deadline")
	}
	r.ids = append(r.ids, id)
}

func (r *recordingRecomputer) seen() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.ids...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.RecomputeRequested
	err    error
}

func (f *fakePublisher) PublishRecomputeRequested(_ context.Context, ev queue.RecomputeRequested) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func TestInlineDispatcher_Trigger(t *testing.T) {
	rec := &recordingRecomputer{}
	d := NewInlineDispatcher(rec, 0)
	a, b := uuid.New(), uuid.New()

	d.Trigger(a, "availability.created")
	d.Trigger(b, "availability.deleted")
	d.Wait()

	assert.ElementsMatch(t, []uuid.UUID{a, b}, rec.seen())
}

func TestQueueDispatcher_Publishes(t *testing.T) {
	rec := &recordingRecomputer{}
	pub := &fakePublisher{}
	d := NewQueueDispatcher(pub, NewInlineDispatcher(rec, time.Second), zap.NewNop())
	d.now = fixedClock(utc(12, 0))
	id := uuid.New()

	d.Trigger(id, "availability.updated")
	d.Wait()

	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.RecomputeRequested{
		EventID:     id.String(),
		Reason:      "availability.updated",
		RequestedAt: utc(12, 0),
	}, pub.events[0])
	assert.Empty(t, rec.seen())
}

func TestQueueDispatcher_FallsBackWhenPublishFails(t *testing.T) {
	rec := &recordingRecomputer{}
	pub := &fakePublisher{err: errors.New("connection refused")}
	d := NewQueueDispatcher(pub, NewInlineDispatcher(rec, time.Second), zap.NewNop())
	id := uuid.New()

	d.Trigger(id, "availability.created")
	d.Wait()

	assert.Equal(t, []uuid.UUID{id}, rec.seen())
}

func TestHandleRecomputeRequested(t *testing.T) {
	rec := &recordingRecomputer{}
	handle := HandleRecomputeRequested(rec)
	id := uuid.New()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, handle(ctx, queue.RecomputeRequested{EventID: id.String()}))
	assert.Equal(t, []uuid.UUID{id}, rec.seen())

	err := handle(ctx, queue.RecomputeRequested{EventID: "not-a-uuid"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, rec.seen(), 1)
}
