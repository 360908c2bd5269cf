package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in a record's life inside a tier. The cache calls these methods
as the events happen; implementations only count them.
*/
type Metrics interface {

	// Hit is called when a lookup finds the record in its tier.
	Hit()

	// Miss is called when a lookup or update finds nothing usable.
	Miss()

	// Insert is called when a record is linked into a tier.
	Insert()

	// Reject is called when an insertion is refused (too large, duplicate or invalid).
	Reject()

	// Eviction is called once per record removed to make room for an insertion.
	Eviction()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

The engine substitutes it when the caller passes nil, so the cache never
has to check whether metrics are configured.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Insert()   {}
func (NoopMetrics) Reject()   {}
func (NoopMetrics) Eviction() {}
