package notify

import (
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Event describes one queued change signal.
type Event struct {
	Seq uint64    // 1-based, strictly increasing
	Op  string    // name of the mutation that produced the signal
	At  time.Time // enqueue time
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithPanicHandler installs a function that receives values recovered from
// a panicking handler. Delivery continues with the next event either way.
func WithPanicHandler(fn func(ev Event, recovered any)) Option {
	return func(n *Notifier) {
		n.onPanic = fn
	}
}

// WithObserver installs a hook called after each delivery with the time the
// event spent queued plus the handler run time.
func WithObserver(fn func(ev Event, latency time.Duration)) Option {
	return func(n *Notifier) {
		n.observe = fn
	}
}

// Notifier serializes handler invocations onto one goroutine.
type Notifier struct {
	handler func()
	onPanic func(Event, any)
	observe func(Event, time.Duration)

	mu        sync.Mutex
	wake      *sync.Cond
	pending   *queue.Queue // of Event
	enqueued  uint64
	delivered uint64
	progress  chan struct{} // closed and replaced whenever delivered advances
	closed    bool

	done chan struct{}
}

// New starts a Notifier that calls handler once per signal.
// A nil handler is allowed; signals are then only counted.
func New(handler func(), opts ...Option) *Notifier {
	if handler == nil {
		handler = func() {}
	}

	n := &Notifier{
		handler:  handler,
		pending:  queue.New(),
		progress: make(chan struct{}),
		done:     make(chan struct{}),
	}
	n.wake = sync.NewCond(&n.mu)

	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}

	go n.run()
	return n
}

// Signal enqueues one event. It never blocks and returns false if the
// Notifier is closed, in which case the signal is dropped.
func (n *Notifier) Signal(op string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return false
	}

	n.enqueued++
	n.pending.Add(Event{Seq: n.enqueued, Op: op, At: time.Now()})
	n.wake.Signal()
	return true
}

// Pending returns the number of events not yet delivered.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return int(n.enqueued - n.delivered)
}

// Flush waits until every event enqueued before the call has been
// delivered. It must not be called from the handler.
func (n *Notifier) Flush(ctx context.Context) error {
	n.mu.Lock()
	target := n.enqueued
	for n.delivered < target {
		progress := n.progress
		n.mu.Unlock()

		select {
		case <-progress:
		case <-n.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

		n.mu.Lock()
	}
	n.mu.Unlock()
	return nil
}

// Close delivers the events already queued, then stops the delivery
// goroutine. Close is idempotent and must not be called from the handler.
func (n *Notifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		n.wake.Broadcast()
	}
	n.mu.Unlock()

	<-n.done
}

func (n *Notifier) run() {
	defer close(n.done)

	for {
		n.mu.Lock()
		for n.pending.Length() == 0 && !n.closed {
			n.wake.Wait()
		}
		if n.pending.Length() == 0 {
			n.mu.Unlock()
			return
		}
		ev := n.pending.Remove().(Event)
		n.mu.Unlock()

		n.deliver(ev)

		n.mu.Lock()
		n.delivered = ev.Seq
		close(n.progress)
		n.progress = make(chan struct{})
		n.mu.Unlock()
	}
}

func (n *Notifier) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil && n.onPanic != nil {
			n.onPanic(ev, r)
		}
		if n.observe != nil {
			n.observe(ev, time.Since(ev.At))
		}
	}()
	n.handler()
}
