package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_DeliversEverySignal(t *testing.T) {
	var calls atomic.Int64
	n := New(func() { calls.Add(1) })
	defer n.Close()

	for range 100 {
		require.True(t, n.Signal("op"))
	}

	require.NoError(t, n.Flush(t.Context()))
	assert.Equal(t, int64(100), calls.Load())
	assert.Equal(t, 0, n.Pending())
}

func TestNotifier_DeliversInOrderOnOneGoroutine(t *testing.T) {
	var (
		mu      sync.Mutex
		seen    []uint64
		running atomic.Int32
		overlap atomic.Bool
	)

	handler := func() {
		if running.Add(1) > 1 {
			overlap.Store(true)
		}
		time.Sleep(time.Microsecond)
		running.Add(-1)
	}
	n := New(handler, WithObserver(func(ev Event, _ time.Duration) {
		mu.Lock()
		seen = append(seen, ev.Seq)
		mu.Unlock()
	}))
	defer n.Close()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				n.Signal("op")
			}
		}()
	}
	wg.Wait()
	require.NoError(t, n.Flush(t.Context()))

	assert.False(t, overlap.Load(), "handler ran concurrently")
	require.Len(t, seen, 100)
	for i, seq := range seen {
		assert.Equal(t, uint64(i+1), seq)
	}
}

func TestNotifier_HandlerMaySignal(t *testing.T) {
	var calls atomic.Int64
	var n *Notifier
	n = New(func() {
		if calls.Add(1) == 1 {
			n.Signal("nested")
		}
	})
	defer n.Close()

	n.Signal("first")

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
}

func TestNotifier_RecoversPanics(t *testing.T) {
	var recovered atomic.Value
	var calls atomic.Int64

	n := New(func() {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	}, WithPanicHandler(func(_ Event, r any) {
		recovered.Store(r)
	}))
	defer n.Close()

	n.Signal("a")
	n.Signal("b")
	require.NoError(t, n.Flush(t.Context()))

	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, "boom", recovered.Load())
}

func TestNotifier_CloseDrainsAndDropsLater(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	n := New(func() {
		<-release
		calls.Add(1)
	})

	n.Signal("a")
	n.Signal("b")
	close(release)
	n.Close()

	assert.Equal(t, int64(2), calls.Load())
	assert.False(t, n.Signal("late"))
	assert.NoError(t, n.Flush(t.Context()))

	// Idempotent.
	n.Close()
}

func TestNotifier_FlushHonorsContext(t *testing.T) {
	block := make(chan struct{})
	n := New(func() { <-block })
	defer func() {
		close(block)
		n.Close()
	}()

	n.Signal("slow")

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, n.Flush(ctx), context.DeadlineExceeded)
	assert.Equal(t, 1, n.Pending())
}
