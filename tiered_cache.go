package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmgilman/go/errors"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/tiered-content-cache/config"
	"github.com/krisalay/tiered-content-cache/engine"
	"github.com/krisalay/tiered-content-cache/eviction"
	"github.com/krisalay/tiered-content-cache/tier"
	"github.com/krisalay/tiered-content-cache/types"
)

/*
TieredCache is the main cache implementation.
This struct is the orchestrator that connects:
- tiers
- routing
- read-through loading
- metrics and logging

Every operation holds the lock of the tier it touches, so operations on
different tiers never wait for each other. Handles returned by Lookup and the
stores returned by Tier are not covered by those locks.
*/
type TieredCache struct {
	// tiers are the actual storage units. Each tier is an independent ordered store.
	tiers []*tier.Store

	// locks[i] guards tiers[i].
	locks []sync.Mutex

	// engine holds the behavior around storage: loader, metrics, logger.
	engine *engine.CacheEngine

	// selector decides which tier a record goes to.
	selector tier.Selector

	// capacity is the capacity of every tier.
	capacity int

	// sf collapses concurrent read-through loads of one tier and id into one Loader call.
	sf singleflight.Group
}

// NewTieredCache builds tiers independent stores of tierCapacity units each.
// A nil engine gets no loader, no-op metrics and a discarding logger.
func NewTieredCache(
	tiers int,
	tierCapacity int,
	eng *engine.CacheEngine,
) *TieredCache {
	if tiers < 1 {
		panic("cache: at least one tier is required")
	}
	if eng == nil {
		eng = engine.NewCacheEngine(nil, nil, nil)
	}

	// Create tiers
	s := make([]*tier.Store, tiers)
	for i := range s {
		// Each tier reports its own evictions
		s[i] = tier.NewStore(tierCapacity, tier.WithEvictionHook(eng.EvictionHook(i)))
	}

	return &TieredCache{
		tiers:    s,
		locks:    make([]sync.Mutex, tiers),
		engine:   eng,
		selector: tier.FingerprintSelector{},
		capacity: tierCapacity,
	}
}

// New validates cfg and builds the cache it describes.
func New(cfg config.Config, eng *engine.CacheEngine) (*TieredCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewTieredCache(cfg.Tiers, cfg.TierCapacity, eng), nil
}

// Tiers returns the number of tiers.
func (c *TieredCache) Tiers() int { return len(c.tiers) }

// TierCapacity returns the capacity of every tier.
func (c *TieredCache) TierCapacity() int { return c.capacity }

// Tier returns the store at index i.
func (c *TieredCache) Tier(i int) *tier.Store { return c.tiers[i] }

// TierFor returns the index of the tier rec is routed to.
func (c *TieredCache) TierFor(rec types.ContentRecord) int {
	return c.selector.Select(rec, len(c.tiers))
}

/*
Insert stores rec in the tier its header routes to, evicting from that tier
under policy if needed. The tier's result is returned unchanged.
*/
func (c *TieredCache) Insert(rec types.ContentRecord, policy eviction.Policy) (types.ContentRecord, error) {
	idx := c.TierFor(rec)

	c.locks[idx].Lock()
	defer c.locks[idx].Unlock()

	return c.insert(idx, rec, policy)
}

func (c *TieredCache) insert(idx int, rec types.ContentRecord, policy eviction.Policy) (types.ContentRecord, error) {
	got, err := c.tiers[idx].Insert(rec, policy)
	c.engine.OnInsert(idx, rec, err)
	return got, err
}

/*
Lookup finds rec's id in the tier its header routes to.

On a hit the record is promoted, so the returned handle is the tier's head.
*/
func (c *TieredCache) Lookup(rec types.ContentRecord) (tier.Handle, error) {
	idx := c.TierFor(rec)

	c.locks[idx].Lock()
	defer c.locks[idx].Unlock()

	return c.lookup(idx, rec)
}

func (c *TieredCache) lookup(idx int, rec types.ContentRecord) (tier.Handle, error) {
	t := c.tiers[idx]

	if !t.Contains(rec.ID) {
		err := errors.Wrapf(types.ErrMiss, errors.CodeNotFound, "record %d not in tier %d", rec.ID, idx)
		c.engine.OnAccess(idx, rec.ID, err)
		return tier.Handle{}, err
	}

	c.engine.OnAccess(idx, rec.ID, nil)
	h, _ := t.Head()
	return h, nil
}

/*
UpdateContent replaces the cached record with rec's id by rec, in the tier
rec's header routes to. It returns the tier's head record after the update.
*/
func (c *TieredCache) UpdateContent(rec types.ContentRecord) (types.ContentRecord, error) {
	idx := c.TierFor(rec)
	t := c.tiers[idx]

	c.locks[idx].Lock()
	defer c.locks[idx].Unlock()

	if _, err := t.Update(rec.ID, rec); err != nil {
		c.engine.OnAccess(idx, rec.ID, err)
		return types.ContentRecord{}, err
	}

	c.engine.OnAccess(idx, rec.ID, nil)
	h, _ := t.Head()
	return h.Record(), nil
}

// Clear empties every tier.
func (c *TieredCache) Clear() {
	for i, t := range c.tiers {
		c.locks[i].Lock()
		t.Clear()
		c.locks[i].Unlock()
	}
	c.engine.Logger.Debug("cache cleared", "tiers", len(c.tiers))
}

/*
Fetch returns the cached record for key, loading it on a miss.

key needs the id and header of the wanted record. On a miss the engine's
Loader produces the record, which is inserted under policy into key's tier.
The loaded record must carry key's id and route to key's tier; otherwise
ErrInvalidRecord is returned and nothing is cached.

Concurrent fetches of one id in one tier share a single load. The tier is
not locked while the Loader runs.
*/
func (c *TieredCache) Fetch(ctx context.Context, key types.ContentRecord, policy eviction.Policy) (types.ContentRecord, error) {
	idx := c.TierFor(key)

	c.locks[idx].Lock()
	h, err := c.lookup(idx, key)
	cached := h.Record()
	c.locks[idx].Unlock()
	if err == nil {
		return cached, nil
	}

	v, err, _ := c.sf.Do(fmt.Sprintf("%d/%d", idx, key.ID), func() (any, error) {
		// An earlier flight for the same key may have filled the tier already.
		if rec, ok := c.resident(idx, key.ID); ok {
			return rec, nil
		}

		rec, err := c.engine.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		if got := c.TierFor(rec); rec.ID != key.ID || got != idx {
			return nil, errors.Wrapf(types.ErrInvalidRecord, errors.CodeInvalidInput,
				"loaded record %d routes to tier %d, want record %d in tier %d", rec.ID, got, key.ID, idx)
		}

		c.locks[idx].Lock()
		defer c.locks[idx].Unlock()

		if _, err := c.insert(idx, rec, policy); err != nil && !errors.Is(err, types.ErrDuplicate) {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return types.ContentRecord{}, err
	}
	return v.(types.ContentRecord), nil
}

// resident returns the record with id from tier idx, promoting it, without
// counting a hit or miss.
func (c *TieredCache) resident(idx, id int) (types.ContentRecord, bool) {
	c.locks[idx].Lock()
	defer c.locks[idx].Unlock()

	t := c.tiers[idx]
	if !t.Contains(id) {
		return types.ContentRecord{}, false
	}
	h, _ := t.Head()
	return h.Record(), true
}

/*
String renders every tier in order, each labelled by rank:

	L1 CACHE:
	<tier dump>

followed by a blank line.
*/
func (c *TieredCache) String() string {
	var b strings.Builder
	for i, t := range c.tiers {
		c.locks[i].Lock()
		fmt.Fprintf(&b, "L%d CACHE:\n%s\n", i+1, t)
		c.locks[i].Unlock()
	}
	return b.String()
}
