package source_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lazylist"
	"github.com/hupe1980/lazylist/source"
)

// drain reads every placeholder until the list stops growing and returns
// the final rows.
func drain[V any](t *testing.T, list *lazylist.List[source.Record[V]]) []lazylist.Entry[source.Record[V]] {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	for {
		rows := list.Materialize()
		loading := false
		for _, r := range rows {
			if r.Placeholder {
				list.Read(r.Position)
				loading = true
			}
		}
		if !loading {
			return rows
		}
		require.NoError(t, list.Wait(ctx))
	}
}

func keys[V any](rows []lazylist.Entry[source.Record[V]]) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		if rec, ok := r.Outcome.Get(); ok {
			out = append(out, rec.Key)
		}
	}
	return out
}

func anchor[V any](pos int, key int64) lazylist.Anchor[source.Record[V]] {
	return lazylist.Anchor[source.Record[V]]{
		Position: lazylist.Position(pos),
		Value:    source.Record[V]{Key: key},
		HasValue: true,
	}
}

func initial[V any]() lazylist.Anchor[source.Record[V]] {
	return lazylist.Anchor[source.Record[V]]{Position: -1}
}

func rangeKeys(lo, hi int64) []int64 {
	out := make([]int64, 0, hi-lo)
	for k := lo; k < hi; k++ {
		out = append(out, k)
	}
	return out
}
