package window

import (
	"fmt"
	"sync"
)

// Store is a mutex-guarded, never-empty ordered sequence of slots.
type Store[S any] struct {
	mu       sync.RWMutex
	slots    []S
	onChange func(op string, n int)
}

// New creates a store holding a single initial slot.
// onChange receives the mutation name and the new window length; it may be
// nil.
func New[S any](initial S, onChange func(op string, n int)) *Store[S] {
	if onChange == nil {
		onChange = func(string, int) {}
	}
	return &Store[S]{
		slots:    []S{initial},
		onChange: onChange,
	}
}

// Get returns the slot at pos. It panics if pos is outside [0, Len()).
func (s *Store[S]) Get(pos int) S {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkIndex(pos, len(s.slots))
	return s.slots[pos]
}

// Len returns the current window length (always >= 1).
func (s *Store[S]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Snapshot returns a copy of the current window.
func (s *Store[S]) Snapshot() []S {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]S, len(s.slots))
	copy(out, s.slots)
	return out
}

// Read runs fn against the current window under the shared lock.
// fn must not retain or modify the slice.
func (s *Store[S]) Read(fn func(slots []S)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.slots)
}

// Mutate replaces the window with fn's result and reports one change.
//
// fn receives a private copy and may modify it freely. Mutations are
// strictly serialized. Mutate panics if fn returns an empty window.
func (s *Store[S]) Mutate(op string, fn func(slots []S) []S) {
	s.MutateIf(op, func(slots []S) ([]S, bool) {
		return fn(slots), true
	})
}

// MutateIf is Mutate with the option to decline. When fn returns false the
// window is left untouched and no change is reported. It returns whether
// the mutation was applied.
func (s *Store[S]) MutateIf(op string, fn func(slots []S) ([]S, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := make([]S, len(s.slots), len(s.slots)+1)
	copy(work, s.slots)

	next, apply := fn(work)
	if !apply {
		return false
	}
	if len(next) == 0 {
		panic(fmt.Sprintf("window: %s left the window empty", op))
	}

	s.slots = next
	s.onChange(op, len(next))
	return true
}

func checkIndex(pos, n int) {
	if pos < 0 || pos >= n {
		panic(fmt.Sprintf("window: position %d out of range [0,%d)", pos, n))
	}
}
