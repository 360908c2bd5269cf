package types

import "github.com/jmgilman/go/errors"

// Outcome errors shared by every tier. Operations wrap them with record
// context, so callers should match with errors.Is rather than ==.
var (
	// ErrTooLarge is returned when a record is bigger than the whole tier.
	// No amount of eviction can make room for it.
	ErrTooLarge = errors.New(errors.CodeInvalidInput, "record exceeds tier capacity")

	// ErrDuplicate is returned when the target tier already holds the id.
	ErrDuplicate = errors.New(errors.CodeAlreadyExists, "record id already cached")

	// ErrMiss is returned when a lookup or update finds nothing usable.
	ErrMiss = errors.New(errors.CodeNotFound, "cache miss")

	// ErrInvalidRecord is returned for records with a negative size, and for
	// loaded records that do not match the key they were fetched for.
	ErrInvalidRecord = errors.New(errors.CodeInvalidInput, "invalid record")

	// ErrInvalidPolicy is returned for an unknown eviction policy.
	ErrInvalidPolicy = errors.New(errors.CodeInvalidInput, "invalid eviction policy")
)
