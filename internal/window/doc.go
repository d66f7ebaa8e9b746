// Package window holds the ordered slot window behind a lazy list.
//
// Store is the single linearization point for every writer: fetch
// completions and direct mutations alike go through Mutate or MutateIf,
// which run under one exclusive lock. Readers observe a consistent
// post-mutation state through Get, Len, Read and Snapshot.
//
// Every applied mutation reports exactly one change to the callback given
// to New. The callback runs while the exclusive lock is held, so it must
// not block and must not call back into the Store; hand the signal to a
// separate delivery goroutine instead (see internal/notify).
//
// Store is generic over the slot type and knows nothing about what a slot
// means. The window is never empty.
package window
