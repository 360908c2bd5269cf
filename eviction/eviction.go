package eviction

/*
This file defines how a tier decides what to remove when an insertion does not fit.
*/

import (
	"strings"

	"github.com/jmgilman/go/errors"

	"github.com/krisalay/tiered-content-cache/types"
)

/*
Policy selects which end of a tier's order is sacrificed when space runs out.

A tier keeps its records ordered from most recently touched (head) to least
recently touched (tail). The policy never changes where new records go; they
are always linked at the head. It only decides which end is evicted.
*/
type Policy uint8

const (
	// LRU (Least Recently Used): evicts the tail, the record untouched for the longest time.
	LRU Policy = iota + 1

	// MRU (Most Recently Used): evicts the head, the record touched last.
	// This works well for scan-like workloads where the newest record is the
	// least likely to be read again.
	MRU
)

// Valid reports whether p is one of the supported policies.
func (p Policy) Valid() bool {
	return p == LRU || p == MRU
}

func (p Policy) String() string {
	switch p {
	case LRU:
		return "lru"
	case MRU:
		return "mru"
	default:
		return "unknown"
	}
}

// ParsePolicy is a small factory function.
// Given a policy name ("lru" or "mru", any case), it returns the matching Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lru":
		return LRU, nil
	case "mru":
		return MRU, nil
	default:
		return 0, errors.Wrapf(types.ErrInvalidPolicy, errors.CodeInvalidInput, "unknown eviction policy %q", name)
	}
}
