package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/lazylist"
)

// DefaultTimeout bounds how long Script.Next waits for a call.
const DefaultTimeout = 2 * time.Second

// Call is one DataSource invocation captured by a Script. The invoking
// fetch goroutine blocks until exactly one of Succeed, Missing or Fail is
// called.
type Call[T any] struct {
	Op lazylist.Op
	// Pos is the position handed to the DataSource: the anchor position for
	// load-before/load-after, the slot position for load-item.
	Pos lazylist.Position
	// Anchor is the anchor for load-before/load-after and the previous
	// slot for load-item.
	Anchor lazylist.Anchor[T]

	reply chan reply[T]
}

type reply[T any] struct {
	items []T
	err   error
}

// Succeed answers the call. For load-item only the first item is used.
func (c *Call[T]) Succeed(items ...T) {
	c.reply <- reply[T]{items: items}
}

// Missing answers with an empty batch (or "no item" for load-item).
func (c *Call[T]) Missing() {
	c.reply <- reply[T]{}
}

// Fail answers with err.
func (c *Call[T]) Fail(err error) {
	c.reply <- reply[T]{err: err}
}

// Script is a DataSource driven by the test.
type Script[T any] struct {
	calls chan *Call[T]
	count atomic.Int64
}

var _ lazylist.DataSource[int] = (*Script[int])(nil)

// NewScript creates an empty script.
func NewScript[T any]() *Script[T] {
	return &Script[T]{calls: make(chan *Call[T], 1024)}
}

// Calls returns the number of DataSource calls received so far.
func (s *Script[T]) Calls() int {
	return int(s.count.Load())
}

// Next returns the next call, failing the test after DefaultTimeout.
func (s *Script[T]) Next(tb testing.TB) *Call[T] {
	tb.Helper()

	select {
	case c := <-s.calls:
		return c
	case <-time.After(DefaultTimeout):
		tb.Fatalf("no DataSource call within %s", DefaultTimeout)
		return nil
	}
}

// ExpectNone fails the test if a call arrives within d.
func (s *Script[T]) ExpectNone(tb testing.TB, d time.Duration) {
	tb.Helper()

	select {
	case c := <-s.calls:
		tb.Fatalf("unexpected DataSource call: %s at %d", c.Op, c.Pos)
	case <-time.After(d):
	}
}

// LoadBefore implements lazylist.DataSource.
func (s *Script[T]) LoadBefore(ctx context.Context, anchor lazylist.Anchor[T]) ([]T, error) {
	r, err := s.await(ctx, &Call[T]{Op: lazylist.OpLoadBefore, Pos: anchor.Position, Anchor: anchor})
	if err != nil {
		return nil, err
	}
	return r.items, r.err
}

// LoadItem implements lazylist.DataSource.
func (s *Script[T]) LoadItem(ctx context.Context, pos lazylist.Position, prev lazylist.Anchor[T]) (T, bool, error) {
	var zero T

	r, err := s.await(ctx, &Call[T]{Op: lazylist.OpLoadItem, Pos: pos, Anchor: prev})
	if err != nil {
		return zero, false, err
	}
	if r.err != nil {
		return zero, false, r.err
	}
	if len(r.items) == 0 {
		return zero, false, nil
	}
	return r.items[0], true, nil
}

// LoadAfter implements lazylist.DataSource.
func (s *Script[T]) LoadAfter(ctx context.Context, anchor lazylist.Anchor[T]) ([]T, error) {
	r, err := s.await(ctx, &Call[T]{Op: lazylist.OpLoadAfter, Pos: anchor.Position, Anchor: anchor})
	if err != nil {
		return nil, err
	}
	return r.items, r.err
}

func (s *Script[T]) await(ctx context.Context, c *Call[T]) (reply[T], error) {
	c.reply = make(chan reply[T], 1)
	s.count.Add(1)
	s.calls <- c

	select {
	case r := <-c.reply:
		return r, nil
	case <-ctx.Done():
		return reply[T]{}, ctx.Err()
	}
}
