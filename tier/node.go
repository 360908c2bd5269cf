package tier

import "github.com/krisalay/tiered-content-cache/types"

// none marks a missing link, or an empty head/tail.
const none = -1

// node is one slot of a store's arena. Links are indices into the same arena:
// next points toward the tail, prev toward the head.
type node struct {
	rec  types.ContentRecord
	prev int
	next int
}

// alloc stores rec in a free slot, reusing released slots before growing the arena.
func (s *Store) alloc(rec types.ContentRecord) int {
	n := node{rec: rec, prev: none, next: none}
	if len(s.free) > 0 {
		i := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		s.nodes[i] = n
		return i
	}
	s.nodes = append(s.nodes, n)
	return len(s.nodes) - 1
}

// release returns slot i to the free list. The caller must have unlinked it.
func (s *Store) release(i int) {
	s.nodes[i] = node{prev: none, next: none}
	s.free = append(s.free, i)
}
