package types

import "context"

// Loader is the contract between the cache and whatever produces records
// the cache does not hold yet.
type Loader interface {

	/*
		Load is called when a read-through fetch misses.
		1. Cache checks the record's tier → id not found
		2. Cache calls Load(key)
		3. Loader produces the full record
		4. Cache inserts the result into the tier its header routes to
		5. Cache returns the record

		key carries at least the id and header of the wanted record. The
		result must keep key's id and a header routing to key's tier; the
		cache refuses anything else with ErrInvalidRecord.

		Concurrent fetches of one key share a single call, made with the
		context of the first caller.
	*/
	Load(ctx context.Context, key ContentRecord) (ContentRecord, error)
}
