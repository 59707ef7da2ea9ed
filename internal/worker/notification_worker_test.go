package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/events"
)

func TestWorkerDeliversQueuedEvents(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	w := NewNotificationWorker(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.ReferenceNumber)
		return nil
	}, 2, 8, zap.NewNop())

	d := events.NewInMemoryDispatcher()
	w.Subscribe(d, events.EventRequestCreated)
	w.Start(context.Background())

	require.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventRequestCreated, ReferenceNumber: "A"}))
	require.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventRequestCreated, ReferenceNumber: "B"}))
	w.Stop()

	assert.ElementsMatch(t, []string{"A", "B"}, seen)
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	w := NewNotificationWorker(func(context.Context, events.Event) error {
		<-block
		return nil
	}, 1, 1, zap.NewNop())

	// Not started: the single slot fills and the next event is dropped.
	require.NoError(t, w.Enqueue(context.Background(), events.Event{Type: events.EventNoteAdded}))
	assert.ErrorIs(t, w.Enqueue(context.Background(), events.Event{Type: events.EventNoteAdded}), ErrQueueFull)

	close(block)
	w.Start(context.Background())
	w.Stop()
	assert.ErrorIs(t, w.Enqueue(context.Background(), events.Event{}), ErrStopped)
}

func TestStopWaitsForSlowHandlers(t *testing.T) {
	done := make(chan struct{})
	w := NewNotificationWorker(func(context.Context, events.Event) error {
		time.Sleep(20 * time.Millisecond)
		close(done)
		return nil
	}, 1, 1, zap.NewNop())
	w.Start(context.Background())
	require.NoError(t, w.Enqueue(context.Background(), events.Event{}))
	w.Stop()

	select {
	case <-done:
	default:
		t.Fatal("stop returned before the handler finished")
	}
}
