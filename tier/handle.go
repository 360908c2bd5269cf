package tier

import "github.com/krisalay/tiered-content-cache/types"

// Handle points at one record inside a Store.
//
// A handle survives insertions and promotions. It goes stale once the store
// evicts or is cleared; a stale handle returns a zero record and no neighbours.
type Handle struct {
	s   *Store
	i   int
	gen uint64
}

// Head returns a handle to the most recently touched record.
func (s *Store) Head() (Handle, bool) {
	return s.handle(s.head)
}

// Tail returns a handle to the least recently touched record.
func (s *Store) Tail() (Handle, bool) {
	return s.handle(s.tail)
}

func (s *Store) handle(i int) (Handle, bool) {
	if i == none {
		return Handle{}, false
	}
	return Handle{s: s, i: i, gen: s.gen}, true
}

// Valid reports whether the handle still points at a live record.
func (h Handle) Valid() bool {
	return h.s != nil && h.gen == h.s.gen && h.i < len(h.s.nodes)
}

// Record returns a copy of the record the handle points at.
func (h Handle) Record() types.ContentRecord {
	if !h.Valid() {
		return types.ContentRecord{}
	}
	return h.s.nodes[h.i].rec
}

// Next moves one step toward the tail.
func (h Handle) Next() (Handle, bool) {
	if !h.Valid() {
		return Handle{}, false
	}
	return h.s.handle(h.s.nodes[h.i].next)
}

// Prev moves one step toward the head.
func (h Handle) Prev() (Handle, bool) {
	if !h.Valid() {
		return Handle{}, false
	}
	return h.s.handle(h.s.nodes[h.i].prev)
}

// IsHead reports whether the handle points at the head of its store.
func (h Handle) IsHead() bool {
	return h.Valid() && h.i == h.s.head
}

// IsTail reports whether the handle points at the tail of its store.
func (h Handle) IsTail() bool {
	return h.Valid() && h.i == h.s.tail
}
