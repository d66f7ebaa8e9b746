package window

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_New(t *testing.T) {
	s := New("init", nil)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "init", s.Get(0))
	assert.Equal(t, []string{"init"}, s.Snapshot())
}

func TestStore_MutateReportsOnce(t *testing.T) {
	var ops []string
	s := New(0, func(op string, _ int) { ops = append(ops, op) })

	s.Mutate("append", func(slots []int) []int {
		return append(slots, 1, 2)
	})

	assert.Equal(t, []int{0, 1, 2}, s.Snapshot())
	assert.Equal(t, []string{"append"}, ops)
}

func TestStore_MutateIfDeclined(t *testing.T) {
	changes := 0
	s := New(0, func(string, int) { changes++ })

	applied := s.MutateIf("noop", func(slots []int) ([]int, bool) {
		slots[0] = 42
		return slots, false
	})

	assert.False(t, applied)
	assert.Equal(t, 0, changes)
	// The callback worked on a copy.
	assert.Equal(t, 0, s.Get(0))
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := New(1, nil)

	snap := s.Snapshot()
	snap[0] = 99

	assert.Equal(t, 1, s.Get(0))
}

func TestStore_EmptyWindowPanics(t *testing.T) {
	s := New(1, nil)

	assert.Panics(t, func() {
		s.Mutate("clear", func([]int) []int { return nil })
	})

	// The lock must have been released and the window left intact.
	assert.Equal(t, []int{1}, s.Snapshot())
}

func TestStore_GetOutOfRangePanics(t *testing.T) {
	s := New(1, nil)

	assert.Panics(t, func() { s.Get(1) })
	assert.Panics(t, func() { s.Get(-1) })
}

func TestStore_Read(t *testing.T) {
	s := New(1, nil)
	s.Mutate("append", func(slots []int) []int { return append(slots, 2, 3) })

	sum := 0
	s.Read(func(slots []int) {
		for _, v := range slots {
			sum += v
		}
	})

	assert.Equal(t, 6, sum)
}

func TestStore_ConcurrentMutationsAreSerialized(t *testing.T) {
	var mu sync.Mutex
	changes := 0
	s := New(0, func(string, int) {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWriter {
				s.Mutate("inc", func(slots []int) []int {
					slots[0]++
					return slots
				})
			}
		}()
	}
	wg.Wait()

	require.Equal(t, writers*perWriter, s.Get(0))
	assert.Equal(t, writers*perWriter, changes)
}
