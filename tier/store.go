package tier

import (
	"fmt"
	"strings"

	"github.com/jmgilman/go/errors"

	"github.com/krisalay/tiered-content-cache/eviction"
	"github.com/krisalay/tiered-content-cache/types"
)

/*
Store is one capacity-bounded tier.

Records are kept in a doubly linked chain ordered from most recently inserted
or accessed (head) to least recently touched (tail). The chain lives in an
arena of slots addressed by index; head and tail are indices into it.

A Store is not safe for concurrent use. Callers sharing one across goroutines
must serialize access themselves.
*/
type Store struct {
	capacity  int
	remaining int
	count     int

	head int
	tail int

	nodes []node
	free  []int

	// index maps a record id to its slot so promotion does not scan the chain.
	index map[int]int

	onEvict func(types.ContentRecord)

	// gen changes whenever slots are released, invalidating outstanding handles.
	gen uint64
}

// Option configures a Store.
type Option func(*Store)

// WithEvictionHook registers fn to be called with every record evicted to make room.
// Clear does not report the records it drops.
func WithEvictionHook(fn func(types.ContentRecord)) Option {
	return func(s *Store) {
		s.onEvict = fn
	}
}

// NewStore creates an empty tier holding at most capacity units.
func NewStore(capacity int, opts ...Option) *Store {
	if capacity < 0 {
		panic("tier: negative capacity")
	}

	s := &Store{
		capacity:  capacity,
		remaining: capacity,
		head:      none,
		tail:      none,
		index:     make(map[int]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity returns the fixed capacity of the tier.
func (s *Store) Capacity() int { return s.capacity }

// Remaining returns the unused capacity.
func (s *Store) Remaining() int { return s.remaining }

// Used returns capacity minus remaining space.
func (s *Store) Used() int { return s.capacity - s.remaining }

// Len returns the number of records in the tier.
func (s *Store) Len() int { return s.count }

/*
Insert links rec at the head of the tier.

Failures are checked in order:
  - ErrInvalidPolicy / ErrInvalidRecord for malformed input
  - ErrTooLarge if rec is bigger than the whole tier
  - ErrDuplicate if the id is already held; the existing record is still
    promoted to the head, because the check goes through Contains

Otherwise rec's size is debited up front and records are evicted from the end
chosen by policy until the balance is non-negative. If eviction empties the
tier, the balance is reset to full capacity and the size debited again.
*/
func (s *Store) Insert(rec types.ContentRecord, policy eviction.Policy) (types.ContentRecord, error) {
	if !policy.Valid() {
		return types.ContentRecord{}, errors.Wrapf(types.ErrInvalidPolicy, errors.CodeInvalidInput, "policy %d", policy)
	}
	if err := rec.Validate(); err != nil {
		return types.ContentRecord{}, err
	}
	if rec.Size > s.capacity {
		return types.ContentRecord{}, errors.Wrapf(types.ErrTooLarge, errors.CodeInvalidInput,
			"record %d of size %d exceeds capacity %d", rec.ID, rec.Size, s.capacity)
	}
	if s.Contains(rec.ID) {
		return types.ContentRecord{}, errors.Wrapf(types.ErrDuplicate, errors.CodeAlreadyExists, "record %d", rec.ID)
	}

	s.remaining -= rec.Size
	for s.remaining < 0 {
		if s.evict(policy) {
			s.remaining -= rec.Size
		}
	}

	s.pushFront(s.alloc(rec))
	s.index[rec.ID] = s.head
	s.count++
	return rec, nil
}

/*
Contains reports whether a record with id is in the tier.

On a hit the record is promoted to the head. This is how every other
operation marks a record as recently accessed.
*/
func (s *Store) Contains(id int) bool {
	if s.count == 0 {
		return false
	}
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.moveToFront(i)
	return true
}

/*
Update replaces the record with id by rec.

The record is promoted first. If the size difference does not fit in the
remaining space, or id is absent, ErrMiss is returned and nothing changes.
Renaming to an id already held by another record is refused with ErrDuplicate.

The head record is overwritten in place, and the remaining space is recomputed
from scratch by summing every record in the chain.
*/
func (s *Store) Update(id int, rec types.ContentRecord) (types.ContentRecord, error) {
	if err := rec.Validate(); err != nil {
		return types.ContentRecord{}, err
	}
	if !s.Contains(id) {
		return types.ContentRecord{}, errors.Wrapf(types.ErrMiss, errors.CodeNotFound, "record %d not cached", id)
	}

	h := &s.nodes[s.head]
	if s.remaining < rec.Size-h.rec.Size {
		return types.ContentRecord{}, errors.Wrapf(types.ErrMiss, errors.CodeNotFound,
			"record %d: size %d does not fit in %d remaining", id, rec.Size, s.remaining+h.rec.Size)
	}
	if rec.ID != id {
		if _, taken := s.index[rec.ID]; taken {
			return types.ContentRecord{}, errors.Wrapf(types.ErrDuplicate, errors.CodeAlreadyExists,
				"cannot rename record %d to %d", id, rec.ID)
		}
		delete(s.index, id)
		s.index[rec.ID] = s.head
	}

	h.rec = rec
	s.recomputeRemaining()
	return h.rec, nil
}

// Clear drops every record and restores the full capacity.
func (s *Store) Clear() {
	s.head = none
	s.tail = none
	s.remaining = s.capacity
	s.count = 0
	s.nodes = s.nodes[:0]
	s.free = s.free[:0]
	clear(s.index)
	s.gen++
}

// Records returns a copy of the tier's records from head to tail.
func (s *Store) Records() []types.ContentRecord {
	out := make([]types.ContentRecord, 0, s.count)
	for i := s.head; i != none; i = s.nodes[i].next {
		out = append(out, s.nodes[i].rec)
	}
	return out
}

/*
String renders the tier as:

	REMAINING SPACE:<n>
	ITEMS:<n>
	LIST:
	[<record>]

with one bracketed line per record from head to tail.
*/
func (s *Store) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "REMAINING SPACE:%d\nITEMS:%d\nLIST:\n", s.remaining, s.count)
	for i := s.head; i != none; i = s.nodes[i].next {
		fmt.Fprintf(&b, "[%s]\n", s.nodes[i].rec)
	}
	return b.String()
}

// evict removes one record from the end chosen by policy and credits its size.
// A tier with a single record is cleared outright. It reports whether the tier
// is now empty.
func (s *Store) evict(policy eviction.Policy) bool {
	if s.count == 0 {
		return false
	}

	var victim int
	if s.head == s.tail {
		victim = s.head
		rec := s.nodes[victim].rec
		s.Clear()
		s.evicted(rec)
		return true
	}

	switch policy {
	case eviction.MRU:
		victim = s.head
		s.head = s.nodes[victim].next
		s.nodes[s.head].prev = none
	default:
		victim = s.tail
		s.tail = s.nodes[victim].prev
		s.nodes[s.tail].next = none
	}

	rec := s.nodes[victim].rec
	s.remaining += rec.Size
	delete(s.index, rec.ID)
	s.release(victim)
	s.gen++
	s.count--
	s.evicted(rec)
	return false
}

func (s *Store) evicted(rec types.ContentRecord) {
	if s.onEvict != nil {
		s.onEvict(rec)
	}
}

// pushFront links slot i in front of the current head.
func (s *Store) pushFront(i int) {
	n := &s.nodes[i]
	n.prev = none
	n.next = s.head
	if s.head != none {
		s.nodes[s.head].prev = i
	} else {
		s.tail = i
	}
	s.head = i
}

// moveToFront promotes slot i to the head. Nodes are compared by slot, never
// by record value, so two equal records can never be confused.
func (s *Store) moveToFront(i int) {
	if i == s.head {
		return
	}

	n := &s.nodes[i]
	if i == s.tail {
		s.tail = n.prev
		s.nodes[s.tail].next = none
	} else {
		s.nodes[n.prev].next = n.next
		s.nodes[n.next].prev = n.prev
	}
	s.pushFront(i)
}

func (s *Store) recomputeRemaining() {
	s.remaining = s.capacity
	for i := s.head; i != none; i = s.nodes[i].next {
		s.remaining -= s.nodes[i].rec.Size
	}
}
