package source

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/lazylist"
)

// DefaultPageSize is the batch size used when none is configured.
const DefaultPageSize = 20

type memoryConfig struct {
	delay    time.Duration
	pageSize int
	start    int64
	fault    func(op lazylist.Op) error
}

// MemoryOption configures a Memory source.
type MemoryOption func(*memoryConfig)

// WithDelay makes every call sleep for d before answering. The sleep is
// cut short when the call's context is cancelled.
func WithDelay(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.delay = d
	}
}

// WithPageSize sets the maximum batch returned by load-before and
// load-after. Values < 1 select DefaultPageSize.
func WithPageSize(n int) MemoryOption {
	return func(c *memoryConfig) {
		c.pageSize = n
	}
}

// WithStartKey sets where a fresh window starts: the first load-after
// returns records with keys >= key.
func WithStartKey(key int64) MemoryOption {
	return func(c *memoryConfig) {
		c.start = key
	}
}

// WithFaults installs a fault injector consulted before every call. A
// non-nil return fails the call with that error.
func WithFaults(fn func(op lazylist.Op) error) MemoryOption {
	return func(c *memoryConfig) {
		c.fault = fn
	}
}

// WithFailRate fails each call with ErrInjected with probability p, using
// a deterministic generator seeded with seed.
func WithFailRate(p float64, seed uint64) MemoryOption {
	var (
		mu  sync.Mutex
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	)
	return WithFaults(func(lazylist.Op) error {
		mu.Lock()
		defer mu.Unlock()
		if rng.Float64() < p {
			return ErrInjected
		}
		return nil
	})
}

// Memory serves a fixed dataset held in memory.
type Memory[V any] struct {
	records []Record[V]
	cfg     memoryConfig
	calls   atomic.Int64
}

var _ lazylist.DataSource[Record[int]] = (*Memory[int])(nil)

// NewMemory creates a source over records. The records are copied and
// sorted by key; keys must be unique.
func NewMemory[V any](records []Record[V], opts ...MemoryOption) *Memory[V] {
	cfg := memoryConfig{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.pageSize < 1 {
		cfg.pageSize = DefaultPageSize
	}

	sorted := slices.Clone(records)
	slices.SortFunc(sorted, func(a, b Record[V]) int { return cmp.Compare(a.Key, b.Key) })

	return &Memory[V]{records: sorted, cfg: cfg}
}

// Sequence keys values by their index.
func Sequence[V any](values []V) []Record[V] {
	out := make([]Record[V], len(values))
	for i, v := range values {
		out[i] = Record[V]{Key: int64(i), Value: v}
	}
	return out
}

// Len returns the dataset size.
func (m *Memory[V]) Len() int { return len(m.records) }

// Calls returns the number of DataSource calls served so far.
func (m *Memory[V]) Calls() int { return int(m.calls.Load()) }

// LoadBefore returns up to a page of records preceding the anchor.
func (m *Memory[V]) LoadBefore(ctx context.Context, anchor lazylist.Anchor[Record[V]]) ([]Record[V], error) {
	if err := m.enter(ctx, lazylist.OpLoadBefore); err != nil {
		return nil, err
	}

	key, initial, err := keyOf(anchor)
	if err != nil {
		return nil, err
	}
	if initial {
		return nil, nil
	}

	hi := m.search(key)
	lo := max(hi-m.cfg.pageSize, 0)
	return slices.Clone(m.records[lo:hi]), nil
}

// LoadItem returns the record following prev.
func (m *Memory[V]) LoadItem(ctx context.Context, _ lazylist.Position, prev lazylist.Anchor[Record[V]]) (Record[V], bool, error) {
	var zero Record[V]

	if err := m.enter(ctx, lazylist.OpLoadItem); err != nil {
		return zero, false, err
	}

	key, initial, err := keyOf(prev)
	if err != nil {
		return zero, false, err
	}

	i := m.search(m.cfg.start)
	if !initial {
		i = m.search(key + 1)
	}
	if i >= len(m.records) {
		return zero, false, nil
	}
	return m.records[i], true, nil
}

// LoadAfter returns up to a page of records following the anchor. A fresh
// window starts at the configured start key.
func (m *Memory[V]) LoadAfter(ctx context.Context, anchor lazylist.Anchor[Record[V]]) ([]Record[V], error) {
	if err := m.enter(ctx, lazylist.OpLoadAfter); err != nil {
		return nil, err
	}

	key, initial, err := keyOf(anchor)
	if err != nil {
		return nil, err
	}

	lo := m.search(m.cfg.start)
	if !initial {
		lo = m.search(key + 1)
	}
	hi := min(lo+m.cfg.pageSize, len(m.records))
	return slices.Clone(m.records[lo:hi]), nil
}

// search returns the index of the first record with Key >= key.
func (m *Memory[V]) search(key int64) int {
	i, _ := slices.BinarySearchFunc(m.records, key, func(r Record[V], k int64) int {
		return cmp.Compare(r.Key, k)
	})
	return i
}

func (m *Memory[V]) enter(ctx context.Context, op lazylist.Op) error {
	m.calls.Add(1)

	if err := sleep(ctx, m.cfg.delay); err != nil {
		return err
	}
	if m.cfg.fault != nil {
		return m.cfg.fault(op)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
