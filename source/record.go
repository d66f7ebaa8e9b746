package source

import (
	"fmt"

	"github.com/hupe1980/lazylist"
)

// Record is one element of a keyed sequence. Keys are strictly increasing
// in sequence order.
type Record[V any] struct {
	Key   int64
	Value V
}

// String implements fmt.Stringer.
func (r Record[V]) String() string {
	return fmt.Sprintf("%d:%v", r.Key, r.Value)
}

// keyOf returns the anchor's key. initial reports a load-after issued for
// the first slot of a fresh window, which has no anchor by construction.
func keyOf[V any](a lazylist.Anchor[Record[V]]) (key int64, initial bool, err error) {
	if a.HasValue {
		return a.Value.Key, false, nil
	}
	if a.Position < 0 {
		return 0, true, nil
	}
	return 0, false, fmt.Errorf("%w: slot %d", ErrUnanchored, a.Position)
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
