package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/events"
)

// ErrQueueFull is returned by Enqueue when the buffer has no room.
var ErrQueueFull = errors.New("notification queue full")

// ErrStopped is returned by Enqueue after Stop.
var ErrStopped = errors.New("notification worker stopped")

// NotificationWorker moves event handling off the request path. Events are
// buffered in a bounded queue and drained by a fixed set of goroutines.
type NotificationWorker struct {
	handle  events.EventHandler
	queue   chan events.Event
	workers int
	logger  *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewNotificationWorker builds a worker pool around handle.
func NewNotificationWorker(handle events.EventHandler, workers, queueSize int, logger *zap.Logger) *NotificationWorker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &NotificationWorker{
		handle:  handle,
		queue:   make(chan events.Event, queueSize),
		workers: workers,
		logger:  logger,
	}
}

// Subscribe routes the given event types from d into the queue.
func (w *NotificationWorker) Subscribe(d events.Dispatcher, types ...events.EventType) {
	for _, t := range types {
		d.Subscribe(t, w.Enqueue)
	}
}

// Enqueue buffers event without blocking. A full queue drops the event.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("notification dropped",
			zap.String("event_type", string(event.Type)),
			zap.String("reference_number", event.ReferenceNumber))
		return ErrQueueFull
	}
}

// Start launches the worker goroutines. They exit once Stop drains the queue.
// ctx is handed to the handler for each event.
func (w *NotificationWorker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for event := range w.queue {
				if err := w.handle(ctx, event); err != nil {
					w.logger.Warn("notification failed",
						zap.String("event_type", string(event.Type)),
						zap.String("reference_number", event.ReferenceNumber),
						zap.Error(err))
				}
			}
		}()
	}
}

// Stop rejects new events, drains what is queued, and waits for the workers.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	w.mu.Unlock()
	w.wg.Wait()
}
