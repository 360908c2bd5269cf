package tier

import "github.com/krisalay/tiered-content-cache/types"

/*
This file decides HOW a record is assigned to a tier.
Routing must be deterministic: a record has to be found later in the same tier
it was inserted into, so the decision depends only on the record's header.
*/

// Selector decides which of n tiers should hold rec.
type Selector interface {
	Select(rec types.ContentRecord, n int) int
}

// FingerprintSelector routes by the record's header fingerprint.
type FingerprintSelector struct{}

// Select returns rec.Fingerprint(n).
func (FingerprintSelector) Select(rec types.ContentRecord, n int) int {
	return rec.Fingerprint(n)
}
