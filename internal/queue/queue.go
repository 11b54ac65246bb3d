package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/internal/reqctx"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/utils"
)

// Processor handles one persisted event. A returned error marks the
// run failed; the queue logs it and moves on to the next item.
type Processor func(ctx context.Context, event *model.Event) error

// EventQueue is an unbounded in-process FIFO queue drained by a single
// worker goroutine. One worker keeps processing strictly ordered:
// an event is only handled after every event enqueued before it has
// finished, which the completion pipeline relies on for its
// read-then-act steps.
type EventQueue struct {
	processor   Processor
	itemTimeout time.Duration
	drainWait   time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	items   []*model.Event
	stopped bool

	done chan struct{}
}

// NewEventQueue creates a queue draining into the given processor.
func NewEventQueue(processor Processor, itemTimeout, drainWait time.Duration) *EventQueue {
	q := &EventQueue{
		processor:   processor,
		itemTimeout: itemTimeout,
		drainWait:   drainWait,
		done:        make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends an event for asynchronous processing. It never
// blocks; the queue grows without bound. Events offered after Stop are
// dropped with a warning, the durable event log still holds them for
// replay.
func (q *EventQueue) Enqueue(ctx context.Context, event *model.Event) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		observer.IncQueueItemsDropped()
		logger.FromContext(ctx).Warn("Queue stopped, dropping event",
			zap.Int64("event_id", event.ID),
			zap.Stringp("call_id", event.CallID))
		return
	}
	q.items = append(q.items, event)
	depth := len(q.items)
	q.mu.Unlock()

	q.cond.Signal()
	observer.IncQueueItemsEnqueued()
	observer.SetQueueDepth(depth)
}

// Depth returns the number of events waiting to be processed.
func (q *EventQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Start launches the worker goroutine. The base context carries
// app-wide values; cancelling it does not interrupt the item currently
// being processed beyond its own timeout.
func (q *EventQueue) Start(ctx context.Context) {
	utils.SafeGo(func() {
		defer close(q.done)
		q.run(ctx)
	}, nil)
}

func (q *EventQueue) run(baseCtx context.Context) {
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.stopped {
			q.cond.Wait()
		}
		if len(q.items) == 0 && q.stopped {
			q.mu.Unlock()
			return
		}
		event := q.items[0]
		q.items = q.items[1:]
		depth := len(q.items)
		q.mu.Unlock()

		observer.SetQueueDepth(depth)
		q.processOne(baseCtx, event)
	}
}

// processOne runs the processor for a single event with a bounded
// context. Panics and errors are contained here so one bad event can
// never stall the queue.
func (q *EventQueue) processOne(baseCtx context.Context, event *model.Event) {
	ctx := baseCtx
	if event.CallID != nil {
		ctx = reqctx.WithCallID(ctx, *event.CallID)
	}
	ctx, cancel := context.WithTimeout(ctx, q.itemTimeout)
	defer cancel()

	category := ""
	if event.Category != nil {
		category = *event.Category
	}

	log := logger.FromContext(ctx)
	startTime := utils.Now()

	err := utils.WrapWithContextRecovery(func(ctx context.Context) error {
		return q.processor(ctx, event)
	})(ctx)

	observer.ObservePipelineDuration(category, time.Since(startTime))
	if err != nil {
		observer.IncEventsFailed(category)
		log.Error("Event processing failed",
			zap.Int64("event_id", event.ID),
			zap.Stringp("call_id", event.CallID),
			zap.Error(err))
		return
	}
	observer.IncEventsProcessed(category)
	log.Debug("Event processed",
		zap.Int64("event_id", event.ID),
		zap.Stringp("call_id", event.CallID),
		zap.Duration("took", time.Since(startTime)))
}

// Stop rejects further enqueues and waits for the worker to drain
// what is already queued, up to the configured drain window.
func (q *EventQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()
	q.cond.Broadcast()

	select {
	case <-q.done:
	case <-time.After(q.drainWait):
		logger.Log.Warn("Queue drain window elapsed before worker finished",
			zap.Duration("drain_wait", q.drainWait),
			zap.Int("remaining", q.Depth()))
	}
}
