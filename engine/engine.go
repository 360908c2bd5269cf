package engine

import (
	"context"
	"log/slog"

	"github.com/jmgilman/go/errors"

	"github.com/krisalay/tiered-content-cache/types"
)

/*
CacheEngine is the "brain" around the tiers.
It is responsible for the behavior that surrounds storage, NOT storage.

It decides:
- Where missing records are loaded from on a read-through fetch
- How hits, misses, insertions, rejections and evictions are counted
- How cache events are logged

It does NOT:
- Store data
- Route records to tiers
- Decide eviction order
*/
type CacheEngine struct {

	// Loader produces records the cache does not hold.
	// If nil, read-through fetches behave like plain lookups and miss.
	Loader types.Loader

	// Metrics counts what the cache is doing. Never nil.
	Metrics types.Metrics

	// Logger receives debug events for evictions, rejections and loads. Never nil.
	Logger *slog.Logger
}

/*
NewCacheEngine creates a CacheEngine.
*/
func NewCacheEngine(
	loader types.Loader,
	metrics types.Metrics,
	logger *slog.Logger,
) *CacheEngine {

	// Ensure metrics and logger are always non-nil
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &CacheEngine{
		Loader:  loader,
		Metrics: metrics,
		Logger:  logger,
	}
}

/*
Load is used when a fetch does NOT find the record in its tier.
Returns ErrMiss when no loader is configured.
*/
func (e *CacheEngine) Load(ctx context.Context, key types.ContentRecord) (types.ContentRecord, error) {
	if e.Loader == nil {
		return types.ContentRecord{}, errors.Wrapf(types.ErrMiss, errors.CodeNotFound, "record %d: no loader configured", key.ID)
	}

	rec, err := e.Loader.Load(ctx, key)
	if err != nil {
		e.Logger.DebugContext(ctx, "load failed", "id", key.ID, "error", err)
		return types.ContentRecord{}, err
	}
	e.Logger.DebugContext(ctx, "loaded record", "id", rec.ID, "size", rec.Size)
	return rec, nil
}

// EvictionHook returns the callback a tier invokes for every record it evicts.
func (e *CacheEngine) EvictionHook(tier int) func(types.ContentRecord) {
	return func(rec types.ContentRecord) {
		e.Metrics.Eviction()
		e.Logger.Debug("evicted record", "tier", tier, "id", rec.ID, "size", rec.Size)
	}
}

// OnInsert records the outcome of an insertion into tier.
func (e *CacheEngine) OnInsert(tier int, rec types.ContentRecord, err error) {
	if err != nil {
		e.Metrics.Reject()
		e.Logger.Debug("insert rejected", "tier", tier, "id", rec.ID, "code", errors.GetCode(err), "error", err)
		return
	}
	e.Metrics.Insert()
}

// OnAccess records the outcome of a lookup or update against tier.
func (e *CacheEngine) OnAccess(tier int, id int, err error) {
	if err != nil {
		e.Metrics.Miss()
		e.Logger.Debug("cache miss", "tier", tier, "id", id)
		return
	}
	e.Metrics.Hit()
}
