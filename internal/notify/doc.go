// Package notify delivers change signals on a dedicated goroutine.
//
// A Notifier decouples the goroutine that mutates state from the goroutine
// that reacts to it. Signal never blocks: events are appended to an
// unbounded FIFO and handed to the handler one at a time, in order, by a
// single delivery goroutine. A handler may therefore read state, and even
// trigger new mutations, without re-entering the code that emitted the
// signal.
//
//	n := notify.New(func() { redraw() })
//	defer n.Close()
//
//	n.Signal("append")
//	_ = n.Flush(ctx) // wait until the handler has seen it
//
// Signals are never coalesced: each Signal results in exactly one handler
// call.
package notify
