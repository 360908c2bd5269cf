package cache

import (
	"context"

	"github.com/krisalay/tiered-content-cache/eviction"
	"github.com/krisalay/tiered-content-cache/tier"
	"github.com/krisalay/tiered-content-cache/types"
)

/*
Cache defines the PUBLIC API of the tiered content cache.
All of the details like (tier routing, arena layout, eviction order, metrics)
are hidden behind this interface.
*/
type Cache interface {

	/*
		Insert stores a record in the tier its header fingerprint selects.

		BEHAVIOR:
		---------
		- Records larger than a whole tier fail with ErrTooLarge
		- An id already in the tier fails with ErrDuplicate, and the
		  existing record is promoted to the head anyway
		- Otherwise records are evicted from the tail (LRU) or head (MRU)
		  until the new record fits, and it is linked at the head
	*/
	Insert(rec types.ContentRecord, policy eviction.Policy) (types.ContentRecord, error)

	/*
		Lookup finds a record by id in the tier its header selects.

		BEHAVIOR:
		---------
		- On a hit the record is promoted and a handle to the tier head is returned
		- On a miss ErrMiss is returned and nothing moves
	*/
	Lookup(rec types.ContentRecord) (tier.Handle, error)

	/*
		UpdateContent overwrites the cached record sharing rec's id.

		RETURN VALUES:
		--------------
		- The tier's new head record on success
		- ErrMiss if the id is absent or the new size does not fit
	*/
	UpdateContent(rec types.ContentRecord) (types.ContentRecord, error)

	/*
		Fetch is Lookup with read-through: on a miss the configured loader
		produces the record and it is inserted under policy.
	*/
	Fetch(ctx context.Context, key types.ContentRecord, policy eviction.Policy) (types.ContentRecord, error)

	/*
		Clear empties every tier. It always succeeds.
	*/
	Clear()

	// String renders every tier's contents, labelled L1, L2, ...
	String() string
}
