package lazylist_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lazylist"
	"github.com/hupe1980/lazylist/testutil"
)

func newScripted(t *testing.T, opts ...lazylist.Option) (*lazylist.List[string], *testutil.Script[string]) {
	t.Helper()

	src := testutil.NewScript[string]()
	list := lazylist.New[string](src, opts...)
	t.Cleanup(func() { _ = list.Close() })
	return list, src
}

// settle waits until no fetch is in flight and all notifications are out.
func settle[T any](t *testing.T, list *lazylist.List[T]) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), testutil.DefaultTimeout)
	defer cancel()
	require.NoError(t, list.Wait(ctx))
}

// describe renders a raw window compactly: U, P, V(x), E, OOB.
func describe[T any](slots []lazylist.Slot[T]) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		switch s.State {
		case lazylist.Unrequested:
			out[i] = "U"
		case lazylist.Pending:
			out[i] = "P"
		default:
			out[i] = describeOutcome(s.Outcome)
		}
	}
	return out
}

// describeRows renders materialized rows: "_" for placeholders.
func describeRows[T any](rows []lazylist.Entry[T]) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		if r.Placeholder {
			out[i] = "_"
			continue
		}
		out[i] = describeOutcome(r.Outcome)
	}
	return out
}

func describeOutcome[T any](o lazylist.Outcome[T]) string {
	switch o.Kind() {
	case lazylist.KindValue:
		v, _ := o.Get()
		return fmt.Sprintf("V(%v)", v)
	case lazylist.KindError:
		return "E"
	default:
		return "OOB"
	}
}

func requireWindow[T any](t *testing.T, list *lazylist.List[T], want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, describe(list.Snapshot())); diff != "" {
		t.Fatalf("window mismatch (-want +got):\n%s", diff)
	}
}

func requireRows[T any](t *testing.T, list *lazylist.List[T], want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	if diff := cmp.Diff(want, describeRows(list.Materialize())); diff != "" {
		t.Fatalf("materialize mismatch (-want +got):\n%s", diff)
	}
}

// counter is an OnChanged callback that counts deliveries.
type counter struct {
	n atomic.Int64
}

func (c *counter) inc()        { c.n.Add(1) }
func (c *counter) load() int64 { return c.n.Load() }

// keyedInts is a synchronous, key-paginated source over 0..size-1.
// The first load-after without an anchor starts at start.
func keyedInts(size, start, page int) lazylist.Funcs[int] {
	return lazylist.Funcs[int]{
		Before: func(_ context.Context, a lazylist.Anchor[int]) ([]int, error) {
			if !a.HasValue {
				return nil, nil
			}
			lo := max(a.Value-page, 0)
			return span(lo, a.Value), nil
		},
		Item: func(_ context.Context, _ lazylist.Position, prev lazylist.Anchor[int]) (int, bool, error) {
			if !prev.HasValue || prev.Value+1 >= size {
				return 0, false, nil
			}
			return prev.Value + 1, true, nil
		},
		After: func(_ context.Context, a lazylist.Anchor[int]) ([]int, error) {
			from := start
			if a.HasValue {
				from = a.Value + 1
			}
			return span(from, min(from+page, size)), nil
		},
	}
}

func span(lo, hi int) []int {
	if hi <= lo {
		return nil
	}
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

const quiet = 20 * time.Millisecond
