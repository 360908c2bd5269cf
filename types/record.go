package types

import (
	"fmt"

	"github.com/jmgilman/go/errors"
)

// DefaultTiers is the number of tiers a record is fingerprinted against
// when the cache is built from the default configuration.
const DefaultTiers = 3

/*
ContentRecord is the unit of cached data.

A record is a plain value: the cache copies it into a tier on insertion and
hands copies back out. Two records are equal when all four fields match.
*/
type ContentRecord struct {
	// ID is assigned by the caller and must be unique within a tier.
	ID int

	// Size is the number of capacity units the record occupies.
	Size int

	// Header classifies the record. It is also the fingerprint input,
	// so changing it can move the record to a different tier.
	Header string

	// Payload is the opaque content.
	Payload string
}

// Equal reports whether r and other hold the same id, size, header and payload.
func (r ContentRecord) Equal(other ContentRecord) bool {
	return r == other
}

/*
Fingerprint returns the tier index this record belongs to.

The fingerprint is the sum of the code points of Header reduced modulo tiers.
It is a classifier, not a hash: equal headers always land in the same tier.
*/
func (r ContentRecord) Fingerprint(tiers int) int {
	if tiers <= 0 {
		return 0
	}
	sum := 0
	for _, c := range r.Header {
		sum += int(c)
	}
	return sum % tiers
}

// Validate rejects records that can never be stored.
func (r ContentRecord) Validate() error {
	if r.Size < 0 {
		return errors.Wrapf(ErrInvalidRecord, errors.CodeInvalidInput, "record %d has negative size %d", r.ID, r.Size)
	}
	return nil
}

func (r ContentRecord) String() string {
	return fmt.Sprintf("CONTENT ID: %d SIZE: %d HEADER: %s CONTENT: %s", r.ID, r.Size, r.Header, r.Payload)
}
