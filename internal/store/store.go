// Package store defines the persistence contracts the reconciliation engine
// depends on. The engine never talks to a database directly; it only uses
// these interfaces, so the same pipeline runs against the in-memory store in
// tests and the BigQuery-backed store in production.
package store

import (
	"context"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/shopspring/decimal"
)

// UpdatePatch carries the fields the synchronizer refreshes when a
// fingerprint is seen again. Metadata is merged into the stored map with
// new keys overriding old ones on collision.
type UpdatePatch struct {
	Amount   decimal.Decimal
	Kind     domain.Kind
	Category string
	Metadata map[string]string
}

// TransactionStore is the contract the engine expects from a transaction
// store. Uniqueness of a fingerprint across concurrent batches is a
// store-level concern: implementations must guarantee that two concurrent
// Create calls for the same fingerprint cannot both succeed.
type TransactionStore interface {
	// FindByFingerprint returns the transaction carrying the fingerprint,
	// or (nil, nil) when none exists.
	FindByFingerprint(ctx context.Context, fingerprint string) (*domain.CanonicalTransaction, error)

	// Create persists a new canonical transaction.
	Create(ctx context.Context, tx *domain.CanonicalTransaction) error

	// Update applies the patch to the transaction with the given ID.
	Update(ctx context.Context, id string, patch UpdatePatch) error
}

// BatchRegistry records which import batches completed. It backs the batch
// gatekeeper for file-oriented sources.
type BatchRegistry interface {
	// WasImported reports whether the batch identifier was already
	// recorded as fully imported.
	WasImported(ctx context.Context, batchID string) (bool, error)

	// MarkImported records the batch identifier as imported. A batch is
	// marked even when some of its records errored.
	MarkImported(ctx context.Context, batchID string) error
}
