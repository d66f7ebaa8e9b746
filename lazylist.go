package lazylist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/lazylist/internal/notify"
	"github.com/hupe1980/lazylist/internal/resource"
	"github.com/hupe1980/lazylist/internal/window"
)

// ErrDataSourcePanic wraps a value recovered from a panicking DataSource
// call. The slot that requested the fetch resolves to this error.
var ErrDataSourcePanic = errors.New("lazylist: data source panicked")

// List is a windowed lazy-loading list cache.
//
// It tracks a contiguous window of slots over a sequence whose extent is
// discovered on demand. Reading a slot that was never requested dispatches
// exactly one asynchronous DataSource call; its completion is applied to the
// window and announced through the OnChanged callback.
//
// All methods are safe for concurrent use.
type List[T any] struct {
	src      DataSource[T]
	store    *window.Store[Slot[T]]
	notifier *notify.Notifier
	rc       *resource.Controller
	logger   *Logger
	metrics  MetricsCollector

	ctx    context.Context
	cancel context.CancelFunc

	// epoch is bumped by every reset of the window. Guarded by the store
	// lock: it is only read or written inside store mutations.
	epoch uint64

	mu       sync.Mutex
	closed   bool
	inflight int
	idle     chan struct{} // closed when inflight drops to zero
}

// request is one dispatched fetch.
type request[T any] struct {
	op     Op
	pos    Position // the slot that went pending
	anchor Anchor[T]
	epoch  uint64
}

// at returns the position handed to the DataSource.
func (r request[T]) at() Position {
	if r.op == OpLoadItem {
		return r.pos
	}
	return r.anchor.Position
}

// New creates a List over src. The window starts as a single unrequested
// slot; nothing is fetched until the first Read or Prefetch.
func New[T any](src DataSource[T], opts ...Option) *List[T] {
	if src == nil {
		panic("lazylist: nil DataSource")
	}

	o := applyOptions(opts)
	ctx, cancel := context.WithCancel(o.ctx)

	l := &List[T]{
		src:     src,
		logger:  o.logger,
		metrics: o.metricsCollector,
		ctx:     ctx,
		cancel:  cancel,
		idle:    make(chan struct{}),
		rc: resource.NewController(resource.Config{
			MaxConcurrentFetches: o.maxConcurrentFetches,
			FetchesPerSecond:     o.fetchesPerSecond,
			Burst:                o.fetchBurst,
		}),
	}
	close(l.idle)

	l.notifier = notify.New(o.onChanged,
		notify.WithPanicHandler(func(ev notify.Event, r any) {
			l.logger.LogHandlerPanic(l.ctx, ev.Seq, r)
		}),
		notify.WithObserver(func(_ notify.Event, latency time.Duration) {
			l.metrics.RecordNotification(latency)
		}),
	)
	l.store = window.New(Slot[T]{}, l.changed)

	return l
}

// changed runs under the store lock after each applied mutation.
func (l *List[T]) changed(op string, n int) {
	l.metrics.RecordMutation(op)
	l.logger.LogMutation(l.ctx, op, n)
	l.notifier.Signal(op)
}

// Read prefetches pos and returns its outcome, or ok=false while the slot
// is unresolved.
//
// pos must be a position from the latest Materialize result; Read panics
// if it lies outside the window.
func (l *List[T]) Read(pos Position) (Outcome[T], bool) {
	l.Prefetch(pos)

	var (
		out Outcome[T]
		ok  bool
	)
	l.store.Read(func(slots []Slot[T]) {
		// The window may have shrunk since Prefetch.
		if int(pos) < 0 || int(pos) >= len(slots) {
			return
		}
		if s := slots[pos]; s.State == Resolved {
			out, ok = s.Outcome, true
		}
	})
	return out, ok
}

// Prefetch starts loading pos if it was never requested and is a no-op
// otherwise. It never blocks on the DataSource.
//
// The fetch direction depends on where pos sits: the front slot of a
// window longer than one extends before the start, the tail slot extends
// after the end, and any other slot is looked up individually.
//
// pos may also be the window length when the tail slot holds a value; this
// is the trailing placeholder Materialize reports in that case, and
// prefetching it extends the window after the end.
//
// pos is checked against the window as it is when Prefetch is called. If a
// concurrent mutation shrinks the window past pos before the slot is
// marked, the call does nothing.
func (l *List[T]) Prefetch(pos Position) {
	if l.needsFetch(pos) {
		l.dispatch(pos)
	}
}

// dispatch marks pos pending and starts its fetch. It re-checks pos under
// the store lock and declines if the slot is gone or already requested.
func (l *List[T]) dispatch(pos Position) {
	if !l.beginFetch() {
		return
	}

	var (
		req        request[T]
		dispatched bool
		windowLen  int
	)
	defer func() {
		if !dispatched {
			l.endFetch()
		}
	}()

	dispatched = l.store.MutateIf("prefetch", func(slots []Slot[T]) ([]Slot[T], bool) {
		p, n := int(pos), len(slots)
		if p == n && slots[n-1].hasValue() {
			slots = append(slots, Slot[T]{})
			n++
		}
		if p < 0 || p >= n || slots[p].State != Unrequested {
			return nil, false
		}

		slots[p].State = Pending
		req = l.plan(slots, p)
		windowLen = n
		return slots, true
	})
	if !dispatched {
		return
	}

	l.fetchLogger(req).LogDispatch(l.ctx, req.at(), windowLen, l.rc.InFlight())
	go l.fetch(req)
}

// needsFetch is the lock-light fast path of Prefetch. It panics on
// positions outside the window so that misuse fails at the call site.
func (l *List[T]) needsFetch(pos Position) bool {
	need := false
	l.store.Read(func(slots []Slot[T]) {
		p, n := int(pos), len(slots)
		switch {
		case p == n && slots[n-1].hasValue():
			need = true
		case p < 0 || p >= n:
			panic(outOfRange("prefetch", pos, n))
		default:
			need = slots[p].State == Unrequested
		}
	})
	return need
}

// plan picks the fetch for the slot at p, which has just gone pending.
// Runs under the store lock.
func (l *List[T]) plan(slots []Slot[T], p int) request[T] {
	n := len(slots)
	req := request[T]{pos: Position(p), epoch: l.epoch}

	switch {
	case p == 0 && n > 1:
		req.op = OpLoadBefore
		req.anchor = anchorAt(slots, 1)
	case p == n-1:
		req.op = OpLoadAfter
		req.anchor = anchorAt(slots, p-1)
	default:
		req.op = OpLoadItem
		req.anchor = anchorAt(slots, p-1)
	}
	return req
}

func anchorAt[T any](slots []Slot[T], p int) Anchor[T] {
	a := Anchor[T]{Position: Position(p)}
	if p >= 0 && p < len(slots) && slots[p].hasValue() {
		a.Value = slots[p].Outcome.value
		a.HasValue = true
	}
	return a
}

// fetch runs on its own goroutine.
func (l *List[T]) fetch(req request[T]) {
	defer l.endFetch()

	if err := l.rc.AcquireFetch(l.ctx); err != nil {
		// Only happens once the list is closing; the slot stays pending.
		l.fetchLogger(req).LogStaleCompletion(l.ctx, req.at(), "not started: "+err.Error())
		return
	}

	start := time.Now()
	switch req.op {
	case OpLoadBefore:
		items, err := callSource(func() ([]T, error) {
			return l.src.LoadBefore(l.ctx, req.anchor)
		})
		l.finish(req, len(items), start, err)
		l.completeBefore(req, items, err)
	case OpLoadAfter:
		items, err := callSource(func() ([]T, error) {
			return l.src.LoadAfter(l.ctx, req.anchor)
		})
		l.finish(req, len(items), start, err)
		l.completeAfter(req, items, err)
	case OpLoadItem:
		var (
			item  T
			found bool
		)
		_, err := callSource(func() ([]T, error) {
			var err error
			item, found, err = l.src.LoadItem(l.ctx, req.pos, req.anchor)
			return nil, err
		})
		n := 0
		if found && err == nil {
			n = 1
		}
		l.finish(req, n, start, err)
		l.completeItem(req, item, found, err)
	}
}

func (l *List[T]) finish(req request[T], items int, start time.Time, err error) {
	l.rc.ReleaseFetch()
	elapsed := time.Since(start)
	l.metrics.RecordFetch(req.op, items, elapsed, err)
	l.fetchLogger(req).LogFetch(l.ctx, req.at(), items, elapsed, err)
}

// fetchLogger tags log lines with the fetch direction and the slot it was
// dispatched for.
func (l *List[T]) fetchLogger(req request[T]) *Logger {
	return l.logger.WithOp(req.op).WithPosition(req.pos)
}

// callSource converts a DataSource panic into an error so the requesting
// slot resolves instead of staying pending forever.
func callSource[T any](fn func() ([]T, error)) (items []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("%w: %v", ErrDataSourcePanic, r)
		}
	}()
	return fn()
}

// completeBefore applies a load-before result to the front of the window.
func (l *List[T]) completeBefore(req request[T], items []T, err error) {
	l.apply(req, func(slots []Slot[T]) []Slot[T] {
		switch {
		case err != nil:
			slots[0] = resolved(Failure[T](err))
			return slots
		case len(items) == 0:
			slots[0] = resolved(OutOfBounds[T]())
			return slots
		}

		grown := make([]Slot[T], 0, len(slots)+len(items))
		grown = append(grown, Slot[T]{})
		for _, it := range items {
			grown = append(grown, resolved(Value(it)))
		}
		return append(grown, slots[1:]...)
	})
}

// completeAfter applies a load-after result to the tail of the window.
func (l *List[T]) completeAfter(req request[T], items []T, err error) {
	l.apply(req, func(slots []Slot[T]) []Slot[T] {
		last := len(slots) - 1
		switch {
		case err != nil:
			slots[last] = resolved(Failure[T](err))
			return slots
		case len(items) == 0:
			slots[last] = resolved(OutOfBounds[T]())
			return slots
		}

		grown := make([]Slot[T], 0, len(slots)+len(items)+1)
		grown = append(grown, slots[:last]...)
		if last == 0 {
			// The pending slot was also the front: neither end is known yet.
			grown = append(grown, Slot[T]{})
		}
		for _, it := range items {
			grown = append(grown, resolved(Value(it)))
		}
		return append(grown, Slot[T]{})
	})
}

// completeItem applies a point lookup to the slot it was dispatched for.
func (l *List[T]) completeItem(req request[T], item T, found bool, err error) {
	l.apply(req, func(slots []Slot[T]) []Slot[T] {
		switch {
		case err != nil:
			slots[req.pos] = resolved(Failure[T](err))
		case !found:
			slots[req.pos] = resolved(OutOfBounds[T]())
		default:
			slots[req.pos] = resolved(Value(item))
		}
		return slots
	})
}

// apply funnels a completion through the store. Completions dispatched
// before the last reset are discarded.
func (l *List[T]) apply(req request[T], fn func(slots []Slot[T]) []Slot[T]) {
	var stale string
	l.store.MutateIf(string(req.op), func(slots []Slot[T]) ([]Slot[T], bool) {
		switch {
		case req.epoch != l.epoch:
			stale = "window was reset"
			return nil, false
		case req.op == OpLoadItem && int(req.pos) >= len(slots):
			stale = "position no longer in window"
			return nil, false
		}
		return fn(slots), true
	})
	if stale != "" {
		l.fetchLogger(req).LogStaleCompletion(l.ctx, req.at(), stale)
	}
}

// Materialize derives the renderer-facing rows from the window.
//
// Out-of-bounds slots are dropped, unresolved slots become placeholders and
// resolved values and errors are reported as outcomes. When the last slot
// of the window holds a value, one extra placeholder is appended; there is
// no such rule for the front.
func (l *List[T]) Materialize() []Entry[T] {
	var out []Entry[T]
	l.store.Read(func(slots []Slot[T]) {
		out = make([]Entry[T], 0, len(slots)+1)
		for i, s := range slots {
			if s.isOutOfBounds() {
				continue
			}
			e := Entry[T]{Position: Position(i)}
			if s.State == Resolved {
				e.Outcome = s.Outcome
			} else {
				e.Placeholder = true
			}
			out = append(out, e)
		}
		if slots[len(slots)-1].hasValue() {
			out = append(out, Entry[T]{Position: Position(len(slots)), Placeholder: true})
		}
	})
	return out
}

// Snapshot returns a copy of the raw window.
func (l *List[T]) Snapshot() []Slot[T] {
	return l.store.Snapshot()
}

// Len returns the raw window length.
func (l *List[T]) Len() int {
	return l.store.Len()
}

func (l *List[T]) beginFetch() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	if l.inflight == 0 {
		l.idle = make(chan struct{})
	}
	l.inflight++
	return true
}

func (l *List[T]) endFetch() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inflight--
	if l.inflight == 0 {
		close(l.idle)
	}
}
