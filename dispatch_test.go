package lazylist

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_DeclinesPositionRemovedAfterCheck(t *testing.T) {
	var afterCalls atomic.Int64
	list := New[int](Funcs[int]{
		After: func(context.Context, Anchor[int]) ([]int, error) {
			if afterCalls.Add(1) > 1 {
				return nil, nil
			}
			return []int{1, 2, 3}, nil
		},
	})
	defer list.Close()

	list.Prefetch(0)
	require.NoError(t, list.Wait(t.Context()))
	require.Equal(t, 5, list.Len())

	// A Clear lands between the unlocked check and the marking.
	require.True(t, list.needsFetch(4))
	list.Clear()
	assert.NotPanics(t, func() { list.dispatch(4) })

	// Nothing was dispatched and the fetch accounting is balanced.
	require.NoError(t, list.Wait(t.Context()))
	slots := list.Snapshot()
	require.Len(t, slots, 1)
	assert.Equal(t, Unrequested, slots[0].State)
	assert.Equal(t, int64(1), afterCalls.Load())
}

func TestDispatch_DeclinesSlotRequestedAfterCheck(t *testing.T) {
	var afterCalls atomic.Int64
	list := New[int](Funcs[int]{
		After: func(context.Context, Anchor[int]) ([]int, error) {
			afterCalls.Add(1)
			return nil, nil
		},
	})
	defer list.Close()

	require.True(t, list.needsFetch(0))
	list.Prefetch(0)
	list.dispatch(0)
	require.NoError(t, list.Wait(t.Context()))

	assert.Equal(t, int64(1), afterCalls.Load())
}
