package lazylist

// The direct mutation API edits the window without going through the
// fetch lifecycle. Each call is a single serialized mutation followed by
// one change notification. Positions follow the same window-relative
// contract as Read; out-of-range positions panic.
//
// A fetch that is still in flight is applied by position when it completes,
// so editing around a pending slot can make that completion land on a
// different slot. Only Clear (and Remove of the last remaining slot)
// invalidates in-flight fetches.

// Update replaces the slot at pos with item.
func (l *List[T]) Update(item T, pos Position) {
	l.store.Mutate("update", func(slots []Slot[T]) []Slot[T] {
		if int(pos) < 0 || int(pos) >= len(slots) {
			panic(outOfRange("update", pos, len(slots)))
		}
		slots[pos] = resolved(Value(item))
		return slots
	})
}

// Insert inserts item before the slot at pos. pos may equal the window
// length to insert at the end.
func (l *List[T]) Insert(item T, pos Position) {
	l.insert("insert", []T{item}, func(int) Position { return pos })
}

// InsertAll inserts items, in order, before the slot at pos. pos may equal
// the window length to insert at the end.
func (l *List[T]) InsertAll(items []T, pos Position) {
	l.insert("insert", items, func(int) Position { return pos })
}

// Append adds item after the last slot.
func (l *List[T]) Append(item T) {
	l.insert("append", []T{item}, func(n int) Position { return Position(n) })
}

// AppendAll adds items, in order, after the last slot.
func (l *List[T]) AppendAll(items []T) {
	l.insert("append", items, func(n int) Position { return Position(n) })
}

// insert resolves the target position under the store lock so that
// appends always land at the current end.
func (l *List[T]) insert(op string, items []T, at func(n int) Position) {
	l.store.Mutate(op, func(slots []Slot[T]) []Slot[T] {
		pos := at(len(slots))
		if int(pos) < 0 || int(pos) > len(slots) {
			panic(outOfRange(op, pos, len(slots)+1))
		}

		out := make([]Slot[T], 0, len(slots)+len(items))
		out = append(out, slots[:pos]...)
		for _, it := range items {
			out = append(out, resolved(Value(it)))
		}
		return append(out, slots[pos:]...)
	})
}

// Remove deletes the slot at pos. Removing the only slot resets the window
// like Clear, since the window is never empty.
func (l *List[T]) Remove(pos Position) {
	l.store.Mutate("remove", func(slots []Slot[T]) []Slot[T] {
		if int(pos) < 0 || int(pos) >= len(slots) {
			panic(outOfRange("remove", pos, len(slots)))
		}
		if len(slots) == 1 {
			l.epoch++
			return []Slot[T]{{}}
		}
		return append(slots[:pos], slots[pos+1:]...)
	})
}

// Clear resets the window to a single unrequested slot. Fetches still in
// flight are discarded when they complete.
func (l *List[T]) Clear() {
	l.store.Mutate("clear", func([]Slot[T]) []Slot[T] {
		l.epoch++
		return []Slot[T]{{}}
	})
}
