package tier_test

import (
	"fmt"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/tiered-content-cache/eviction"
	"github.com/krisalay/tiered-content-cache/tier"
	"github.com/krisalay/tiered-content-cache/types"
)

func rec(id, size int, header, payload string) types.ContentRecord {
	return types.ContentRecord{ID: id, Size: size, Header: header, Payload: payload}
}

func ids(s *tier.Store) []int {
	var out []int
	for _, r := range s.Records() {
		out = append(out, r.ID)
	}
	return out
}

func mustInsert(t *testing.T, s *tier.Store, r types.ContentRecord, p eviction.Policy) {
	t.Helper()
	got, err := s.Insert(r, p)
	require.NoError(t, err)
	require.Equal(t, r, got)
	require.NoError(t, s.Verify())
}

func TestEmptyStore(t *testing.T) {
	s := tier.NewStore(200)

	assert.Equal(t, 200, s.Remaining())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(1))
	assert.Equal(t, "REMAINING SPACE:200\nITEMS:0\nLIST:\n", s.String())

	_, ok := s.Head()
	assert.False(t, ok)
	_, ok = s.Tail()
	assert.False(t, ok)
	require.NoError(t, s.Verify())
}

func TestInsertAndTooLarge(t *testing.T) {
	s := tier.NewStore(200)

	mustInsert(t, s, rec(1000, 10, "Content-Type: 0", "0xA"), eviction.MRU)
	assert.Equal(t, 190, s.Remaining())
	assert.Equal(t, 1, s.Len())

	_, err := s.Insert(rec(1001, 250, "Content-Type: 0", "big"), eviction.MRU)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrTooLarge))
	assert.Equal(t, 190, s.Remaining())
	assert.Equal(t, 1, s.Len())
}

func TestInsertExactlyCapacity(t *testing.T) {
	s := tier.NewStore(50)
	mustInsert(t, s, rec(1, 20, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 50, "h", "b"), eviction.LRU)

	assert.Equal(t, []int{2}, ids(s))
	assert.Equal(t, 0, s.Remaining())
}

func TestInsertRejectsInvalidInput(t *testing.T) {
	s := tier.NewStore(10)

	_, err := s.Insert(rec(1, 1, "h", "a"), eviction.Policy(0))
	assert.True(t, errors.Is(err, types.ErrInvalidPolicy))

	_, err = s.Insert(rec(1, -1, "h", "a"), eviction.LRU)
	assert.True(t, errors.Is(err, types.ErrInvalidRecord))

	assert.Equal(t, 0, s.Len())
}

func TestDuplicateInsertPromotesExisting(t *testing.T) {
	s := tier.NewStore(200)
	mustInsert(t, s, rec(1, 10, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 10, "h", "b"), eviction.LRU)
	mustInsert(t, s, rec(3, 10, "h", "c"), eviction.LRU)
	require.Equal(t, []int{3, 2, 1}, ids(s))

	_, err := s.Insert(rec(1, 99, "other", "z"), eviction.LRU)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDuplicate))
	assert.Equal(t, errors.CodeAlreadyExists, errors.GetCode(err))

	assert.Equal(t, []int{1, 3, 2}, ids(s))
	assert.Equal(t, 170, s.Remaining())
	require.NoError(t, s.Verify())
}

func TestLRUEvictsTail(t *testing.T) {
	s := tier.NewStore(100)
	mustInsert(t, s, rec(1, 40, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 40, "h", "b"), eviction.LRU)

	mustInsert(t, s, rec(3, 30, "h", "c"), eviction.LRU)

	assert.Equal(t, []int{3, 2}, ids(s))
	assert.Equal(t, 30, s.Remaining())
}

func TestMRUEvictsHead(t *testing.T) {
	s := tier.NewStore(100)
	mustInsert(t, s, rec(2, 50, "h", "b"), eviction.MRU)
	mustInsert(t, s, rec(1, 10, "h", "a"), eviction.MRU)
	require.Equal(t, []int{1, 2}, ids(s))

	mustInsert(t, s, rec(3, 45, "h", "c"), eviction.MRU)

	assert.Equal(t, []int{3, 2}, ids(s))
	assert.False(t, s.Contains(1))
	assert.Equal(t, 5, s.Remaining())
}

func TestEvictionToEmptyRedebits(t *testing.T) {
	s := tier.NewStore(200)
	mustInsert(t, s, rec(1004, 50, "Content-Type: 1", "110010"), eviction.LRU)
	mustInsert(t, s, rec(1001, 51, "Content-Type: 1", "110011"), eviction.LRU)

	mustInsert(t, s, rec(1007, 155, "Content-Type: 1", "10011011"), eviction.LRU)

	assert.Equal(t, []int{1007}, ids(s))
	assert.Equal(t, 45, s.Remaining())
	assert.Equal(t, 1, s.Len())
}

func TestEvictionHookReportsVictims(t *testing.T) {
	var evicted []int
	s := tier.NewStore(100, tier.WithEvictionHook(func(r types.ContentRecord) {
		evicted = append(evicted, r.ID)
	}))

	mustInsert(t, s, rec(1, 30, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 30, "h", "b"), eviction.LRU)
	mustInsert(t, s, rec(3, 30, "h", "c"), eviction.LRU)
	mustInsert(t, s, rec(4, 100, "h", "d"), eviction.LRU)

	assert.Equal(t, []int{1, 2, 3}, evicted)

	s.Clear()
	assert.Equal(t, []int{1, 2, 3}, evicted)
}

func TestContainsPromotes(t *testing.T) {
	s := tier.NewStore(200)
	for i := 1; i <= 4; i++ {
		mustInsert(t, s, rec(i, 10, "h", fmt.Sprint(i)), eviction.LRU)
	}
	require.Equal(t, []int{4, 3, 2, 1}, ids(s))

	tests := []struct {
		name string
		id   int
		want []int
	}{
		{name: "middle", id: 2, want: []int{2, 4, 3, 1}},
		{name: "tail", id: 1, want: []int{1, 2, 4, 3}},
		{name: "head is idempotent", id: 1, want: []int{1, 2, 4, 3}},
		{name: "second", id: 2, want: []int{2, 1, 4, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, s.Contains(tt.id))
			assert.Equal(t, tt.want, ids(s))
			require.NoError(t, s.Verify())

			h, ok := s.Head()
			require.True(t, ok)
			assert.Equal(t, tt.id, h.Record().ID)
		})
	}

	assert.False(t, s.Contains(99))
	assert.Equal(t, []int{2, 1, 4, 3}, ids(s))
}

func TestPromotionUsesIdentityNotValue(t *testing.T) {
	// Two records with identical fields apart from id used to confuse
	// value-based promotion; the chain must stay intact either way.
	s := tier.NewStore(100)
	mustInsert(t, s, rec(1, 10, "same", "same"), eviction.LRU)
	mustInsert(t, s, rec(2, 10, "same", "same"), eviction.LRU)
	mustInsert(t, s, rec(3, 10, "same", "same"), eviction.LRU)

	require.True(t, s.Contains(1))
	require.True(t, s.Contains(2))
	assert.Equal(t, []int{2, 1, 3}, ids(s))
	require.NoError(t, s.Verify())
}

func TestUpdate(t *testing.T) {
	s := tier.NewStore(100)
	mustInsert(t, s, rec(1, 10, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 20, "h", "b"), eviction.LRU)

	got, err := s.Update(1, rec(1, 30, "h2", "a2"))
	require.NoError(t, err)
	assert.Equal(t, rec(1, 30, "h2", "a2"), got)
	assert.Equal(t, []int{1, 2}, ids(s))
	assert.Equal(t, 50, s.Remaining())
	require.NoError(t, s.Verify())

	h, ok := s.Head()
	require.True(t, ok)
	assert.Equal(t, got, h.Record())
}

func TestUpdateMissLeavesStoreUnchanged(t *testing.T) {
	s := tier.NewStore(100)
	mustInsert(t, s, rec(1, 10, "h", "a"), eviction.LRU)
	before := s.String()

	_, err := s.Update(42, rec(42, 5, "h", "x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMiss))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Equal(t, before, s.String())
}

func TestUpdateThatDoesNotFit(t *testing.T) {
	s := tier.NewStore(100)
	mustInsert(t, s, rec(1, 40, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 40, "h", "b"), eviction.LRU)

	_, err := s.Update(1, rec(1, 61, "h", "a"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMiss))

	// The failed update still promoted record 1.
	assert.Equal(t, []int{1, 2}, ids(s))
	assert.Equal(t, 20, s.Remaining())

	_, err = s.Update(1, rec(1, 60, "h", "a"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Remaining())
}

func TestUpdateRenames(t *testing.T) {
	s := tier.NewStore(100)
	mustInsert(t, s, rec(1, 10, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 10, "h", "b"), eviction.LRU)

	_, err := s.Update(1, rec(7, 10, "h", "a"))
	require.NoError(t, err)
	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(7))
	require.NoError(t, s.Verify())

	_, err = s.Update(7, rec(2, 10, "h", "a"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDuplicate))
	require.NoError(t, s.Verify())
}

func TestClear(t *testing.T) {
	s := tier.NewStore(200)
	mustInsert(t, s, rec(1, 10, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 10, "h", "b"), eviction.LRU)

	s.Clear()
	assert.Equal(t, 200, s.Remaining())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "REMAINING SPACE:200\nITEMS:0\nLIST:\n", s.String())
	require.NoError(t, s.Verify())

	s.Clear()
	require.NoError(t, s.Verify())

	mustInsert(t, s, rec(1, 10, "h", "a"), eviction.LRU)
	assert.Equal(t, []int{1}, ids(s))
}

func TestHandleWalk(t *testing.T) {
	s := tier.NewStore(100)
	mustInsert(t, s, rec(1, 10, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 10, "h", "b"), eviction.LRU)
	mustInsert(t, s, rec(3, 10, "h", "c"), eviction.LRU)

	tail, ok := s.Tail()
	require.True(t, ok)
	assert.True(t, tail.IsTail())
	assert.Equal(t, 1, tail.Record().ID)

	mid, ok := tail.Prev()
	require.True(t, ok)
	assert.Equal(t, 2, mid.Record().ID)

	head, ok := mid.Prev()
	require.True(t, ok)
	assert.True(t, head.IsHead())
	assert.Equal(t, 3, head.Record().ID)

	_, ok = head.Prev()
	assert.False(t, ok)

	next, ok := head.Next()
	require.True(t, ok)
	assert.Equal(t, 2, next.Record().ID)
}

func TestHandleStaleAfterClear(t *testing.T) {
	s := tier.NewStore(100)
	mustInsert(t, s, rec(1, 10, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 10, "h", "b"), eviction.LRU)

	tail, ok := s.Tail()
	require.True(t, ok)
	s.Clear()

	assert.False(t, tail.Valid())
	assert.Equal(t, types.ContentRecord{}, tail.Record())
	assert.False(t, tail.IsTail())
	_, ok = tail.Prev()
	assert.False(t, ok)
	_, ok = tail.Next()
	assert.False(t, ok)
}

func TestHandleStaleAfterEviction(t *testing.T) {
	s := tier.NewStore(30)
	mustInsert(t, s, rec(1, 10, "h", "a"), eviction.LRU)
	mustInsert(t, s, rec(2, 10, "h", "b"), eviction.LRU)

	head, _ := s.Head()
	tail, _ := s.Tail()

	// Plain insertions and promotions keep handles live.
	mustInsert(t, s, rec(3, 10, "h", "c"), eviction.LRU)
	require.True(t, s.Contains(1))
	assert.True(t, tail.Valid())
	assert.Equal(t, 1, tail.Record().ID)
	assert.True(t, tail.IsHead())

	// Evicting the tail (id 2) releases a slot.
	mustInsert(t, s, rec(4, 10, "h", "d"), eviction.LRU)
	assert.Equal(t, []int{4, 1, 3}, ids(s))
	assert.False(t, head.Valid())
	assert.Equal(t, types.ContentRecord{}, head.Record())
	_, ok := head.Next()
	assert.False(t, ok)

	fresh, ok := s.Head()
	require.True(t, ok)
	assert.Equal(t, 4, fresh.Record().ID)
}

// Mirrors the reference run of a single 200-unit tier with mixed policies.
func TestReferenceScenario(t *testing.T) {
	content1 := rec(1000, 10, "Content-Type: 0", "0xA")
	content2 := rec(1004, 50, "Content-Type: 1", "110010")
	content3 := rec(1005, 180, "Content-Type: 2", "<html><p>'CMPSC132'</p></html>")
	content4 := rec(1006, 18, "another header", "111110")
	content5 := rec(1008, 2, "items", "11x1110")

	s := tier.NewStore(200)
	mustInsert(t, s, content1, eviction.MRU)
	mustInsert(t, s, content2, eviction.LRU)
	mustInsert(t, s, content4, eviction.MRU)
	mustInsert(t, s, content5, eviction.MRU)
	mustInsert(t, s, content3, eviction.LRU)
	mustInsert(t, s, content1, eviction.MRU)

	assert.True(t, s.Contains(1006))

	extra := rec(1034, 2, "items", "other content")
	got, err := s.Update(1008, extra)
	require.NoError(t, err)
	assert.Equal(t, extra, got)

	want := "REMAINING SPACE:170\n" +
		"ITEMS:3\n" +
		"LIST:\n" +
		"[CONTENT ID: 1034 SIZE: 2 HEADER: items CONTENT: other content]\n" +
		"[CONTENT ID: 1006 SIZE: 18 HEADER: another header CONTENT: 111110]\n" +
		"[CONTENT ID: 1000 SIZE: 10 HEADER: Content-Type: 0 CONTENT: 0xA]\n"
	assert.Equal(t, want, s.String())

	tail, _ := s.Tail()
	assert.Equal(t, content1, tail.Record())
	prev, _ := tail.Prev()
	assert.Equal(t, content4, prev.Record())
	first, _ := prev.Prev()
	assert.Equal(t, extra, first.Record())
	assert.True(t, first.IsHead())
	_, ok := first.Prev()
	assert.False(t, ok)

	s.Clear()
	assert.Equal(t, "REMAINING SPACE:200\nITEMS:0\nLIST:\n", s.String())
}

func TestCapacityInvariantUnderChurn(t *testing.T) {
	s := tier.NewStore(97)
	policies := []eviction.Policy{eviction.LRU, eviction.MRU}

	for i := 0; i < 500; i++ {
		r := rec(i%37, (i*13)%50, "h", fmt.Sprint(i))
		_, err := s.Insert(r, policies[i%2])
		if err != nil {
			require.True(t, errors.Is(err, types.ErrDuplicate), "unexpected error: %v", err)
		}
		if i%5 == 0 {
			_, _ = s.Update(i%37, rec(i%37, (i*7)%30, "h", "u"))
		}
		require.NoError(t, s.Verify())
		assert.LessOrEqual(t, s.Used(), s.Capacity())
		assert.Equal(t, s.Capacity()-s.Remaining(), s.Used())
	}
}

func TestNewStoreNegativeCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { tier.NewStore(-1) })
}
