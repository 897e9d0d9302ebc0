package ingest

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/store"
)

// Gatekeeper rejects whole import batches that were already fully
// processed. It applies only to file-oriented sources: streaming sources
// have no stable batch identity and rely on per-record fingerprints alone.
type Gatekeeper struct {
	registry store.BatchRegistry
}

// NewGatekeeper creates a Gatekeeper over the given registry.
func NewGatekeeper(registry store.BatchRegistry) *Gatekeeper {
	return &Gatekeeper{registry: registry}
}

// Check returns domain.ErrDuplicateBatch when the identifier was already
// recorded as imported. It must run before any per-record work.
func (g *Gatekeeper) Check(ctx context.Context, batchID string) error {
	imported, err := g.registry.WasImported(ctx, batchID)
	if err != nil {
		return fmt.Errorf("gatekeeper: checking batch %q: %w", batchID, err)
	}
	if imported {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateBatch, batchID)
	}
	return nil
}

// MarkImported records the batch as imported. A batch that completed with
// per-record errors is still marked: the engine never retries a batch on
// its own, and a re-submission with the same identifier will be rejected.
func (g *Gatekeeper) MarkImported(ctx context.Context, batchID string) error {
	if err := g.registry.MarkImported(ctx, batchID); err != nil {
		return fmt.Errorf("gatekeeper: marking batch %q imported: %w", batchID, err)
	}
	return nil
}
