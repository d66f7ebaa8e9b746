package lazylist_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lazylist"
	"github.com/hupe1980/lazylist/testutil"
)

func TestClose_Idempotent(t *testing.T) {
	list := lazylist.New[int](keyedInts(3, 0, 3))

	require.NoError(t, list.Close())
	require.NoError(t, list.Close())

	var nilList *lazylist.List[int]
	assert.NoError(t, nilList.Close())
}

func TestClose_WaitReportsClosed(t *testing.T) {
	list := lazylist.New[int](keyedInts(3, 0, 3))
	require.NoError(t, list.Close())

	assert.ErrorIs(t, list.Wait(context.Background()), lazylist.ErrClosed)
}

func TestClose_CancelsInFlightFetch(t *testing.T) {
	src := testutil.NewScript[string]()
	list := lazylist.New[string](src)

	list.Read(0)
	_ = src.Next(t) // never answered; Close cancels the context instead

	done := make(chan error, 1)
	go func() { done <- list.Close() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("Close did not return")
	}

	out, ok := list.Read(0)
	require.True(t, ok)
	assert.ErrorIs(t, out.Err(), context.Canceled)
}

func TestClose_StopsDispatch(t *testing.T) {
	src := testutil.NewScript[string]()
	list := lazylist.New[string](src)
	require.NoError(t, list.Close())

	_, ok := list.Read(0)
	assert.False(t, ok)
	requireWindow(t, list, "U")
	src.ExpectNone(t, quiet)

	// Mutations still apply to the final window.
	list.Append("a")
	requireWindow(t, list, "U", "V(a)")
}

func TestClose_NoNotificationsAfterClose(t *testing.T) {
	var changes counter
	list := lazylist.New[int](keyedInts(3, 0, 3), lazylist.WithOnChanged(changes.inc))

	list.Read(0)
	settle(t, list)
	require.NoError(t, list.Close())

	before := changes.load()
	list.Clear()
	time.Sleep(quiet)
	assert.Equal(t, before, changes.load())
}

func TestWait_HonorsContext(t *testing.T) {
	list, src := newScripted(t)

	list.Read(0)
	call := src.Next(t)

	ctx, cancel := context.WithTimeout(context.Background(), quiet)
	defer cancel()
	assert.ErrorIs(t, list.Wait(ctx), context.DeadlineExceeded)

	call.Missing()
	settle(t, list)
}

func TestWithContext_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := testutil.NewScript[string]()
	list := lazylist.New[string](src, lazylist.WithContext(ctx))
	defer list.Close()

	list.Read(0)
	_ = src.Next(t)
	cancel()
	settle(t, list)

	out, ok := list.Read(0)
	require.True(t, ok)
	assert.ErrorIs(t, out.Err(), context.Canceled)
}

func TestWithFetchRateLimit(t *testing.T) {
	list := lazylist.New[int](keyedInts(40, 20, 2), lazylist.WithFetchRateLimit(1000, 1))
	defer list.Close()

	list.Read(0)
	settle(t, list)
	requireWindow(t, list, "U", "V(20)", "V(21)", "U")

	list.Read(0)
	list.Read(3)
	settle(t, list)
	requireWindow(t, list, "U", "V(18)", "V(19)", "V(20)", "V(21)", "V(22)", "V(23)", "U")
}
