package domain

import "errors"

// Engine error taxonomy. MalformedDate and StoreFailure are record-scoped:
// they are recorded against the offending record and the batch continues.
// DuplicateBatch is the only batch-fatal error.
var (
	// ErrMalformedDate marks an encoded date that is unparseable or whose
	// components fall outside the accepted ranges.
	ErrMalformedDate = errors.New("malformed encoded date")

	// ErrDuplicateBatch marks a batch whose identifier was already
	// recorded as fully imported.
	ErrDuplicateBatch = errors.New("batch already imported")

	// ErrStoreFailure wraps a failed store lookup, create, or update.
	ErrStoreFailure = errors.New("transaction store failure")
)
