package tier

import (
	"github.com/jmgilman/go/errors"
)

// Verify walks the chain and returns an error describing the first broken
// invariant, or nil if the store is consistent.
func (s *Store) Verify() error {
	if (s.head == none) != (s.tail == none) || (s.head == none) != (s.count == 0) {
		return bug("head/tail/count emptiness mismatch")
	}

	count, used := 0, 0
	seen := make(map[int]struct{}, s.count)
	prev := none
	for i := s.head; i != none; i = s.nodes[i].next {
		n := s.nodes[i]
		if n.prev != prev {
			return bug("incorrect prev link at record %d", n.rec.ID)
		}
		if _, dup := seen[n.rec.ID]; dup {
			return bug("duplicate id %d", n.rec.ID)
		}
		seen[n.rec.ID] = struct{}{}
		if j, ok := s.index[n.rec.ID]; !ok || j != i {
			return bug("index out of sync for record %d", n.rec.ID)
		}
		if n.next == none && s.tail != i {
			return bug("tail not pointing to last node")
		}

		prev = i
		count++
		used += n.rec.Size
		if count > len(s.nodes) {
			return bug("cycle in chain")
		}
	}

	switch {
	case count != s.count:
		return bug("count %d does not match %d linked records", s.count, count)
	case len(s.index) != s.count:
		return bug("index holds %d ids for %d records", len(s.index), s.count)
	case used > s.capacity:
		return bug("used %d exceeds capacity %d", used, s.capacity)
	case s.remaining != s.capacity-used:
		return bug("remaining %d, expected %d", s.remaining, s.capacity-used)
	}
	return nil
}

func bug(format string, args ...any) error {
	return errors.Newf(errors.CodeInternal, "tier invariant: "+format, args...)
}
