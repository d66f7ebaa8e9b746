// Package lazylist provides a windowed lazy-loading list cache.
//
// A List presents a conceptually unbounded, partially known ordered
// sequence to a renderer. It tracks a contiguous window of slots and fills
// unknown regions on demand through a DataSource, in three directions:
//
//   - load-before extends the window before its first slot
//   - load-item resolves a single interior slot
//   - load-after extends the window after its last slot
//
// Each slot moves through Unrequested -> Pending -> Resolved. A resolved
// slot holds an Outcome: a value, the error the DataSource returned, or
// OutOfBounds, which seals that end of the sequence for good.
//
// # Quick Start
//
//	src := lazylist.Funcs[string]{
//	    After: func(ctx context.Context, a lazylist.Anchor[string]) ([]string, error) {
//	        return backend.Next(ctx, a.Value, 20)
//	    },
//	}
//
//	var list *lazylist.List[string]
//	list = lazylist.New[string](src, lazylist.WithOnChanged(func() {
//	    render(list.Materialize())
//	}))
//	defer list.Close()
//
//	// The renderer reads whatever it is about to display. Unresolved rows
//	// come back as ok=false and are fetched in the background.
//	for _, row := range list.Materialize() {
//	    if out, ok := list.Read(row.Position); ok {
//	        draw(out)
//	    }
//	}
//
// # Positions
//
// A Position is window-relative. Growth at the front shifts every slot, and
// the mutation API (Update, Insert, Append, Remove, Clear) shifts or resets
// slots as well. Take positions from the latest Materialize result and do
// not keep them across changes.
//
// # Materialize
//
// Materialize turns the window into renderer rows: out-of-bounds slots are
// dropped, unresolved slots become placeholders, values and errors are
// reported as outcomes. When the window's last slot holds a value, one
// trailing placeholder is added; reading it extends the window.
//
// # Concurrency Model
//
// Three independent channels are involved:
//
//   - every mutation, whether a fetch completion or a mutation API call, is
//     serialized through one store lock
//   - every DataSource call runs on its own goroutine, optionally bounded
//     by WithMaxConcurrentFetches and WithFetchRateLimit
//   - change notifications are delivered on a dedicated goroutine, one per
//     mutation, in order
//
// Read and Prefetch never block on the DataSource. A slot that is already
// pending is never fetched twice. Errors are never retried; call Clear or
// Update to try again.
//
// # Data Sources
//
// Package source provides keyset-paginated sources over an in-memory
// dataset, a page-oriented backend and a SQL table. Their elements are
// source.Record values, so the Anchor handed to each load carries a key.
//
// # Observability
//
// Structured logging (WithLogger, WithLogLevel) and metrics
// (WithMetricsCollector) are optional and disabled by default.
package lazylist
