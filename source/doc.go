// Package source provides ready-made lazylist data sources.
//
// Every source serves Record values so that anchors handed in by the list
// carry a stable key. Loads are keyset-paginated: load-after returns the
// records following the anchor's key, load-before the records preceding it,
// and load-item the single record following the previous slot.
//
// Available sources:
//
//   - Memory serves a fixed, in-memory dataset with optional latency and
//     fault injection. It is useful for demos and tests.
//   - Paged adapts a page-oriented backend (page number in, slice out).
//   - SQL queries a table through database/sql.
//
// A load that needs an anchor but finds a slot without a value returns
// ErrUnanchored; the list stores that error in the requesting slot.
package source
