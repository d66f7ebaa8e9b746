package lazylist

import (
	"context"
	"fmt"
)

// Position is a window-relative coordinate.
//
// A Position is not a stable identifier for an element: when the window
// grows at its front, or when Insert/Remove/Clear run, every later slot
// moves. Re-derive positions from the latest Materialize result after each
// change instead of keeping them around.
type Position int

// Kind tags the variant held by an Outcome.
type Kind uint8

const (
	// KindValue means an element exists at the position.
	KindValue Kind = iota + 1
	// KindError means the data source failed for the position.
	KindError
	// KindOutOfBounds means no element exists at the position: the sequence
	// ends here. It is a terminal outcome, not an error.
	KindOutOfBounds
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindError:
		return "error"
	case KindOutOfBounds:
		return "out-of-bounds"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Outcome is the resolved content of a slot.
type Outcome[T any] struct {
	kind  Kind
	value T
	err   error
}

// Value returns an outcome holding v.
func Value[T any](v T) Outcome[T] {
	return Outcome[T]{kind: KindValue, value: v}
}

// Failure returns an outcome holding the cause of a failed load.
func Failure[T any](err error) Outcome[T] {
	return Outcome[T]{kind: KindError, err: err}
}

// OutOfBounds returns the outcome marking the end of the sequence.
func OutOfBounds[T any]() Outcome[T] {
	return Outcome[T]{kind: KindOutOfBounds}
}

// Kind returns the variant of the outcome.
func (o Outcome[T]) Kind() Kind { return o.kind }

// Get returns the element and true if the outcome holds a value.
func (o Outcome[T]) Get() (T, bool) {
	return o.value, o.kind == KindValue
}

// Err returns the load failure, or nil for any other variant.
func (o Outcome[T]) Err() error { return o.err }

// IsOutOfBounds reports whether the outcome marks the end of the sequence.
func (o Outcome[T]) IsOutOfBounds() bool { return o.kind == KindOutOfBounds }

func (o Outcome[T]) String() string {
	switch o.kind {
	case KindValue:
		return fmt.Sprintf("Value(%v)", o.value)
	case KindError:
		return fmt.Sprintf("Error(%v)", o.err)
	default:
		return o.kind.String()
	}
}

// SlotState is the lifecycle state of a single window slot.
//
// Transitions are monotonic: Unrequested -> Pending -> Resolved. Only Clear
// and frontier growth replace slots wholesale.
type SlotState uint8

const (
	// Unrequested slots have never been fetched.
	Unrequested SlotState = iota
	// Pending slots have exactly one fetch outstanding.
	Pending
	// Resolved slots hold an Outcome.
	Resolved
)

func (s SlotState) String() string {
	switch s {
	case Unrequested:
		return "unrequested"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("SlotState(%d)", uint8(s))
	}
}

// Slot is one position of the raw window.
// Outcome is only meaningful when State is Resolved.
type Slot[T any] struct {
	State   SlotState
	Outcome Outcome[T]
}

func resolved[T any](o Outcome[T]) Slot[T] {
	return Slot[T]{State: Resolved, Outcome: o}
}

func (s Slot[T]) hasValue() bool {
	return s.State == Resolved && s.Outcome.kind == KindValue
}

func (s Slot[T]) isOutOfBounds() bool {
	return s.State == Resolved && s.Outcome.kind == KindOutOfBounds
}

// Entry is one renderer-facing row produced by Materialize.
type Entry[T any] struct {
	// Position is the window position to pass to Read or Prefetch for this
	// row. It is only valid until the next change.
	Position Position
	// Outcome is set unless Placeholder is true.
	Outcome Outcome[T]
	// Placeholder marks a row that is still loading (or not yet requested).
	Placeholder bool
}

// Anchor describes the slot a fetch is relative to, captured at dispatch.
//
// Position is window-relative and may be -1 when a fresh window asks for
// its first batch. Value is the element held by that slot when it was
// resolved to a value; keyed sources use it to paginate by key instead of
// by position.
type Anchor[T any] struct {
	Position Position
	Value    T
	HasValue bool
}

// DataSource supplies elements to a List. Every method is called on its own
// goroutine and may block. Errors are stored verbatim in the requesting
// slot; the List never retries.
type DataSource[T any] interface {
	// LoadBefore returns the elements immediately preceding anchor,
	// oldest-first. An empty result means the sequence starts at anchor.
	LoadBefore(ctx context.Context, anchor Anchor[T]) ([]T, error)

	// LoadItem returns the element at pos. prev describes the slot at pos-1.
	// ok=false means no element exists at pos.
	LoadItem(ctx context.Context, pos Position, prev Anchor[T]) (item T, ok bool, err error)

	// LoadAfter returns the elements immediately following anchor,
	// oldest-first. An empty result means the sequence ends at anchor.
	LoadAfter(ctx context.Context, anchor Anchor[T]) ([]T, error)
}

// Funcs adapts plain functions to a DataSource. A nil function behaves as
// if the sequence had no elements in that direction.
type Funcs[T any] struct {
	Before func(ctx context.Context, anchor Anchor[T]) ([]T, error)
	Item   func(ctx context.Context, pos Position, prev Anchor[T]) (T, bool, error)
	After  func(ctx context.Context, anchor Anchor[T]) ([]T, error)
}

// LoadBefore implements DataSource.
func (f Funcs[T]) LoadBefore(ctx context.Context, anchor Anchor[T]) ([]T, error) {
	if f.Before == nil {
		return nil, nil
	}
	return f.Before(ctx, anchor)
}

// LoadItem implements DataSource.
func (f Funcs[T]) LoadItem(ctx context.Context, pos Position, prev Anchor[T]) (T, bool, error) {
	if f.Item == nil {
		var zero T
		return zero, false, nil
	}
	return f.Item(ctx, pos, prev)
}

// LoadAfter implements DataSource.
func (f Funcs[T]) LoadAfter(ctx context.Context, anchor Anchor[T]) ([]T, error) {
	if f.After == nil {
		return nil, nil
	}
	return f.After(ctx, anchor)
}
