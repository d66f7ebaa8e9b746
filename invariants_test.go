package lazylist_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lazylist"
	"github.com/hupe1980/lazylist/testutil"
)

// expectedRows is the row count Materialize must report for a window.
func expectedRows[T any](slots []lazylist.Slot[T]) int {
	n := 0
	for _, s := range slots {
		if s.State != lazylist.Resolved || !s.Outcome.IsOutOfBounds() {
			n++
		}
	}
	last := slots[len(slots)-1]
	if last.State == lazylist.Resolved && last.Outcome.Kind() == lazylist.KindValue {
		n++
	}
	return n
}

// randomSource answers every call immediately with a random outcome.
func randomSource(rng *testutil.RNG) lazylist.Funcs[string] {
	errBoom := errors.New("boom")
	batch := func(context.Context, lazylist.Anchor[string]) ([]string, error) {
		switch rng.Intn(4) {
		case 0:
			return nil, nil
		case 1:
			return nil, errBoom
		default:
			return testutil.Strings("s", 1+rng.Intn(3)), nil
		}
	}
	return lazylist.Funcs[string]{
		Before: batch,
		After:  batch,
		Item: func(context.Context, lazylist.Position, lazylist.Anchor[string]) (string, bool, error) {
			switch rng.Intn(3) {
			case 0:
				return "", false, nil
			case 1:
				return "", false, errBoom
			default:
				return "item", true, nil
			}
		},
	}
}

func TestInvariants_RandomOperations(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		rng := testutil.NewRNG(seed)
		list := lazylist.New[string](randomSource(rng))

		for step := 0; step < 200; step++ {
			n := list.Len()
			switch op := rng.Intn(10); {
			case op < 5:
				list.Read(lazylist.Position(rng.Intn(n)))
			case op < 6:
				list.Append("m")
			case op < 7:
				list.Insert("i", lazylist.Position(rng.Intn(n+1)))
			case op < 8:
				list.Remove(lazylist.Position(rng.Intn(n)))
			case op < 9:
				list.Update("u", lazylist.Position(rng.Intn(n)))
			default:
				if rng.Chance(0.3) {
					list.Clear()
				}
			}
			settle(t, list)

			slots := list.Snapshot()
			require.NotEmpty(t, slots)
			require.Len(t, list.Materialize(), expectedRows(slots), "seed %d step %d", seed, step)
			for i, s := range slots {
				require.NotEqual(t, lazylist.Pending, s.State, "seed %d step %d: slot %d still pending", seed, step, i)
			}
		}
		require.NoError(t, list.Close())
	}
}

func TestInvariants_ResolvedSlotsNeverRefetch(t *testing.T) {
	var calls counter
	src := keyedInts(30, 0, 5)
	after := src.After
	src.After = func(ctx context.Context, a lazylist.Anchor[int]) ([]int, error) {
		calls.inc()
		return after(ctx, a)
	}
	list := lazylist.New[int](src)
	defer list.Close()

	list.Read(0)
	settle(t, list)
	first := calls.load()

	for range 3 {
		for p := range list.Len() - 1 {
			list.Read(lazylist.Position(p))
		}
		settle(t, list)
	}

	// The tail is never read, so load-after ran exactly once.
	require.Equal(t, first, calls.load())
}
