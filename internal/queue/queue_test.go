package queue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
)

func newTestQueue(t *testing.T, processor Processor) *EventQueue {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")
	return NewEventQueue(processor, time.Second, 5*time.Second)
}

func testEvent(id int64, callID string) *model.Event {
	return &model.Event{ID: id, CallID: &callID}
}

func TestEventQueue_StrictFIFOOrdering(t *testing.T) {
	var mu sync.Mutex
	var processed []int64

	q := newTestQueue(t, func(ctx context.Context, event *model.Event) error {
		// Variable latency must not reorder processing
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
		mu.Lock()
		processed = append(processed, event.ID)
		mu.Unlock()
		return nil
	})
	q.Start(context.Background())

	const n = 50
	for i := int64(1); i <= n; i++ {
		q.Enqueue(context.Background(), testEvent(i, fmt.Sprintf("call-%d", i)))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, processed, n)
	for i := int64(0); i < n; i++ {
		assert.Equal(t, i+1, processed[i])
	}
}

func TestEventQueue_ErrorDoesNotStallQueue(t *testing.T) {
	var mu sync.Mutex
	var processed []int64

	q := newTestQueue(t, func(ctx context.Context, event *model.Event) error {
		mu.Lock()
		processed = append(processed, event.ID)
		mu.Unlock()
		if event.ID == 2 {
			return fmt.Errorf("boom")
		}
		return nil
	})
	q.Start(context.Background())

	for i := int64(1); i <= 3; i++ {
		q.Enqueue(context.Background(), testEvent(i, "call-err"))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2, 3}, processed)
}

func TestEventQueue_PanicDoesNotStallQueue(t *testing.T) {
	var mu sync.Mutex
	var processed []int64

	q := newTestQueue(t, func(ctx context.Context, event *model.Event) error {
		if event.ID == 1 {
			panic("bad payload")
		}
		mu.Lock()
		processed = append(processed, event.ID)
		mu.Unlock()
		return nil
	})
	q.Start(context.Background())

	q.Enqueue(context.Background(), testEvent(1, "call-panic"))
	q.Enqueue(context.Background(), testEvent(2, "call-panic"))
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{2}, processed)
}

func TestEventQueue_EnqueueNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	q := newTestQueue(t, func(ctx context.Context, event *model.Event) error {
		<-release
		return nil
	})
	q.Start(context.Background())

	// Worker is stuck on the first item; enqueues must still return
	// immediately.
	done := make(chan struct{})
	go func() {
		for i := int64(1); i <= 100; i++ {
			q.Enqueue(context.Background(), testEvent(i, "call-burst"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked")
	}

	assert.GreaterOrEqual(t, q.Depth(), 99)
	close(release)
	q.Stop()
}

func TestEventQueue_ItemTimeoutBoundsProcessing(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")
	q := NewEventQueue(func(ctx context.Context, event *model.Event) error {
		<-ctx.Done()
		return ctx.Err()
	}, 20*time.Millisecond, 5*time.Second)
	q.Start(context.Background())

	start := time.Now()
	q.Enqueue(context.Background(), testEvent(1, "call-slow"))
	q.Stop()

	// The stuck processor must have been released by its own timeout,
	// well inside the drain window.
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestEventQueue_EnqueueAfterStopIsDropped(t *testing.T) {
	var mu sync.Mutex
	count := 0

	q := newTestQueue(t, func(ctx context.Context, event *model.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})
	q.Start(context.Background())
	q.Stop()

	q.Enqueue(context.Background(), testEvent(1, "call-late"))
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, q.Depth())
}
