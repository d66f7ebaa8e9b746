package lazylist

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Wait once the list has been closed.
var ErrClosed = errors.New("lazylist: closed")

// Op names a fetch direction.
type Op string

const (
	// OpLoadBefore extends the window before its front.
	OpLoadBefore Op = "load-before"
	// OpLoadItem resolves a single interior position.
	OpLoadItem Op = "load-item"
	// OpLoadAfter extends the window after its tail.
	OpLoadAfter Op = "load-after"
)

func outOfRange(what string, pos Position, n int) string {
	return fmt.Sprintf("lazylist: %s position %d out of range [0,%d)", what, pos, n)
}
