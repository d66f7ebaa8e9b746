package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/lazylist"
	"github.com/hupe1980/lazylist/internal/cache"
)

// PageFunc loads page number page (zero-based) of a sequence split into
// pages of size elements. A page shorter than size is the last one; an
// empty page means page is past the end.
type PageFunc[T any] func(ctx context.Context, page, size int) ([]T, error)

// PagedConfig configures a Paged source.
type PagedConfig struct {
	// PageSize is the backend page size. Values < 1 select DefaultPageSize.
	PageSize int

	// Start is the index a fresh window starts at.
	Start int

	// CachePages keeps up to this many loaded pages. 0 disables caching.
	CachePages int

	// PageTimeout bounds a single backend page call. Page calls are shared
	// between concurrent loads and outlive a cancelled caller, so this is
	// their only deadline. 0 means no limit.
	PageTimeout time.Duration
}

// Paged adapts a page-oriented backend to the three load directions.
//
// Records are keyed by their absolute index in the sequence. A batch spans
// at most two backend pages; they are fetched concurrently, and concurrent
// loads of the same page share one backend call. Loaded pages may be kept
// in an LRU cache until Invalidate.
type Paged[T any] struct {
	fetch   PageFunc[T]
	size    int
	start   int
	timeout time.Duration

	group singleflight.Group
	pages *cache.LRU[int, []T]
}

var _ lazylist.DataSource[Record[int]] = (*Paged[int])(nil)

// NewPaged creates a Paged source over fetch.
func NewPaged[T any](fetch PageFunc[T], cfg PagedConfig) *Paged[T] {
	if fetch == nil {
		panic("source: nil PageFunc")
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = DefaultPageSize
	}
	return &Paged[T]{
		fetch:   fetch,
		size:    cfg.PageSize,
		start:   max(cfg.Start, 0),
		timeout: max(cfg.PageTimeout, 0),
		pages:   cache.NewLRU[int, []T](cfg.CachePages),
	}
}

// Invalidate drops every cached page. Call it together with List.Clear
// when the backend data changed.
func (p *Paged[T]) Invalidate() {
	p.pages.Purge()
}

// CacheStats returns page cache hits and misses.
func (p *Paged[T]) CacheStats() (hits, misses int64) {
	return p.pages.Stats()
}

// LoadBefore returns up to one page worth of records preceding the anchor.
func (p *Paged[T]) LoadBefore(ctx context.Context, anchor lazylist.Anchor[Record[T]]) ([]Record[T], error) {
	key, initial, err := keyOf(anchor)
	if err != nil || initial {
		return nil, err
	}

	hi := int(key)
	return p.span(ctx, max(hi-p.size, 0), hi)
}

// LoadItem returns the record following prev.
func (p *Paged[T]) LoadItem(ctx context.Context, _ lazylist.Position, prev lazylist.Anchor[Record[T]]) (Record[T], bool, error) {
	var zero Record[T]

	key, initial, err := keyOf(prev)
	if err != nil {
		return zero, false, err
	}

	i := p.start
	if !initial {
		i = int(key) + 1
	}
	recs, err := p.span(ctx, i, i+1)
	if err != nil || len(recs) == 0 {
		return zero, false, err
	}
	return recs[0], true, nil
}

// LoadAfter returns up to one page worth of records following the anchor.
func (p *Paged[T]) LoadAfter(ctx context.Context, anchor lazylist.Anchor[Record[T]]) ([]Record[T], error) {
	key, initial, err := keyOf(anchor)
	if err != nil {
		return nil, err
	}

	lo := p.start
	if !initial {
		lo = int(key) + 1
	}
	return p.span(ctx, lo, lo+p.size)
}

// span returns the records with indices in [lo, hi), stopping early at the
// end of the sequence.
func (p *Paged[T]) span(ctx context.Context, lo, hi int) ([]Record[T], error) {
	if hi <= lo {
		return nil, nil
	}

	first, last := lo/p.size, (hi-1)/p.size
	pages := make([][]T, last-first+1)

	g, gctx := errgroup.WithContext(ctx)
	for i := range pages {
		g.Go(func() error {
			items, err := p.page(gctx, first+i)
			pages[i] = items
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Record[T], 0, hi-lo)
	for idx := lo; idx < hi; idx++ {
		page, off := pages[idx/p.size-first], idx%p.size
		if off >= len(page) {
			break
		}
		out = append(out, Record[T]{Key: int64(idx), Value: page[off]})
	}
	return out, nil
}

func (p *Paged[T]) page(ctx context.Context, n int) ([]T, error) {
	if items, ok := p.pages.Get(n); ok {
		return items, nil
	}

	// The call is shared by every caller of page n and is detached from the
	// one that started it. Each caller stops waiting on its own ctx.
	ch := p.group.DoChan(strconv.Itoa(n), func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		if p.timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, p.timeout)
			defer cancel()
		}

		items, err := p.fetch(fctx, n, p.size)
		if err == nil {
			p.pages.Set(n, items)
		}
		return items, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("source: load page %d: %w", n, res.Err)
		}
		return res.Val.([]T), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
