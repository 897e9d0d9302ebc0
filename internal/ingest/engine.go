// Package ingest implements the statement ingestion and reconciliation
// engine: it normalizes raw ledger entries from heterogeneous sources into
// canonical transactions, classifies them, deduplicates them by
// content-derived fingerprints, and synchronizes them idempotently against
// a transaction store while isolating per-record failures.
package ingest

import (
	"context"
	"errors"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/store"
	"github.com/rs/zerolog"
)

// Engine is the entry point callers use. It owns the pure stages and wires
// them into pipelines; the only state it touches is the injected store.
// Batches for different wallets are independent and may run concurrently.
type Engine struct {
	normalizer *Normalizer
	classifier *Classifier
	sync       *Synchronizer
	gate       *Gatekeeper
	log        zerolog.Logger
}

// NewEngine creates an Engine over the given store and batch registry.
// The registry may be nil when only streaming sources are ingested.
func NewEngine(txStore store.TransactionStore, registry store.BatchRegistry, classifier *Classifier, log zerolog.Logger) *Engine {
	e := &Engine{
		normalizer: NewNormalizer(),
		classifier: classifier,
		sync:       NewSynchronizer(txStore, log),
		log:        log,
	}
	if registry != nil {
		e.gate = NewGatekeeper(registry)
	}
	return e
}

// IngestBatch processes a file-oriented batch. The batch identifier is
// checked against the registry before any per-record work; a duplicate is
// rejected wholesale with AlreadyImported set and zero records processed.
// A batch that completes, even partially, is marked as imported.
func (e *Engine) IngestBatch(ctx context.Context, batchID, source, walletID string, raws []domain.RawLedgerEntry) (domain.SyncResult, error) {
	if e.gate == nil {
		return domain.SyncResult{}, errors.New("IngestBatch: engine has no batch registry")
	}

	state := &State{
		Source:   source,
		WalletID: walletID,
		BatchID:  batchID,
		Raw:      raws,
	}

	pipeline := NewPipeline(
		&GatekeeperStep{gate: e.gate},
		&FilterMarkersStep{},
		&PrepareStep{normalizer: e.normalizer, classifier: e.classifier},
		&SyncStep{sync: e.sync},
		&MarkImportedStep{gate: e.gate},
	)

	if err := pipeline.Execute(ctx, state); err != nil {
		if errors.Is(err, domain.ErrDuplicateBatch) {
			e.log.Info().Str("batch_id", batchID).Msg("Batch already imported, rejecting")
			return domain.SyncResult{AlreadyImported: true}, nil
		}
		return state.Result, err
	}

	e.logResult(batchID, source, state)
	return state.Result, nil
}

// IngestStream processes records from a paginated streaming source. There
// is no batch identity to gate on; deduplication relies solely on
// per-record fingerprints.
func (e *Engine) IngestStream(ctx context.Context, source, walletID string, raws []domain.RawLedgerEntry) (domain.SyncResult, error) {
	state := &State{
		Source:   source,
		WalletID: walletID,
		Raw:      raws,
	}

	pipeline := NewPipeline(
		&FilterMarkersStep{},
		&PrepareStep{normalizer: e.normalizer, classifier: e.classifier},
		&SyncStep{sync: e.sync},
	)

	if err := pipeline.Execute(ctx, state); err != nil {
		return state.Result, err
	}

	e.logResult("", source, state)
	return state.Result, nil
}

func (e *Engine) logResult(batchID, source string, state *State) {
	e.log.Info().
		Str("batch_id", batchID).
		Str("source", source).
		Int("created", state.Result.Created).
		Int("updated", state.Result.Updated).
		Int("errors", state.Result.Errors).
		Int("markers_dropped", state.Markers).
		Msg("Batch synchronized")
}
