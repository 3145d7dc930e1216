// Package builder holds the editable sequence and segment drafts.
package builder

import (
	"fmt"
	"slices"
)

// orderable is satisfied by *models.Step and *models.Rule.
type orderable[T any] interface {
	*T
	ItemID() int
	SetItemID(id int)
	SetOrder(order int)
}

// List is an ordered draft collection. Entries added through Append get
// temporary ids from a negative, strictly decreasing counter so they never
// collide with persisted ids.
type List[T any, P orderable[T]] struct {
	items  []T
	tempID int
}

func NewList[T any, P orderable[T]](items []T) *List[T, P] {
	l := &List[T, P]{items: slices.Clone(items)}
	for _, it := range l.items {
		if id := P(&it).ItemID(); id < l.tempID {
			l.tempID = id
		}
	}
	l.renumber()
	return l
}

// Append adds item at the end and returns its temporary id.
func (l *List[T, P]) Append(item T) int {
	l.tempID--
	P(&item).SetItemID(l.tempID)
	l.items = append(l.items, item)
	l.renumber()
	return l.tempID
}

// Edit applies fn to the entry with the given id.
func (l *List[T, P]) Edit(id int, fn func(*T)) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("no entry with id %d", id)
	}
	fn(&l.items[i])
	P(&l.items[i]).SetItemID(id)
	return nil
}

func (l *List[T, P]) Remove(id int) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("no entry with id %d", id)
	}
	l.items = slices.Delete(l.items, i, i+1)
	l.renumber()
	return nil
}

// Move relocates the entry at position from to position to, as a drag and drop would.
func (l *List[T, P]) Move(from, to int) error {
	if from < 0 || from >= len(l.items) || to < 0 || to >= len(l.items) {
		return fmt.Errorf("move %d -> %d out of range for %d entries", from, to, len(l.items))
	}
	if from == to {
		return nil
	}
	item := l.items[from]
	l.items = slices.Delete(l.items, from, from+1)
	l.items = slices.Insert(l.items, to, item)
	l.renumber()
	return nil
}

func (l *List[T, P]) Len() int { return len(l.items) }

// Items returns a copy of the entries in order.
func (l *List[T, P]) Items() []T {
	return slices.Clone(l.items)
}

// Finalize returns the entries with temporary ids replaced by ids above the
// highest persisted one.
func (l *List[T, P]) Finalize() []T {
	out := slices.Clone(l.items)
	next := 0
	for i := range out {
		if id := P(&out[i]).ItemID(); id > next {
			next = id
		}
	}
	for i := range out {
		p := P(&out[i])
		if p.ItemID() <= 0 {
			next++
			p.SetItemID(next)
		}
		p.SetOrder(i)
	}
	return out
}

func (l *List[T, P]) index(id int) int {
	for i := range l.items {
		if P(&l.items[i]).ItemID() == id {
			return i
		}
	}
	return -1
}

func (l *List[T, P]) renumber() {
	for i := range l.items {
		P(&l.items[i]).SetOrder(i)
	}
}
