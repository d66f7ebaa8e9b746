package lazylist

import "context"

// Wait blocks until no fetch is in flight and every change notification
// has been delivered. Notifications may start new fetches; Wait keeps
// waiting until the list is quiet or ctx is done.
//
// Wait must not be called from the OnChanged callback.
func (l *List[T]) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return ErrClosed
		}
		idle, busy := l.idle, l.inflight > 0
		l.mu.Unlock()

		if busy {
			select {
			case <-idle:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if err := l.notifier.Flush(ctx); err != nil {
			return err
		}

		l.mu.Lock()
		busy = l.inflight > 0
		l.mu.Unlock()
		if !busy && l.notifier.Pending() == 0 {
			return nil
		}
	}
}

// Close stops dispatching new fetches, cancels the context handed to the
// DataSource, waits for in-flight fetches to finish and delivers the
// remaining change notifications.
//
// Slots whose fetch had not started yet stay pending. Reads, Materialize
// and the mutation API keep working on the final window, without
// notifications. Close is idempotent and must not be called from the
// OnChanged callback.
func (l *List[T]) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	idle, busy := l.idle, l.inflight > 0
	l.mu.Unlock()

	l.cancel()
	if busy {
		<-idle
	}
	l.notifier.Close()
	return nil
}
