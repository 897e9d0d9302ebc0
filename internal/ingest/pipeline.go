package ingest

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// State holds the shared state across all pipeline steps for one batch.
type State struct {
	Source   string
	WalletID string

	// BatchID is empty for streaming sources, which skip batch gating.
	BatchID string

	Raw      []domain.RawLedgerEntry
	Prepared []PreparedRecord

	// Failures collects record-scoped errors raised before the
	// synchronizer runs (malformed dates). They are folded into the
	// final result.
	Failures []domain.SyncError

	// Markers counts the running-balance pseudo-entries that were
	// dropped. They never consume a create/update/error count.
	Markers int

	Result domain.SyncResult
}

// Step is a single step in the ingestion pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// GatekeeperStep rejects the whole batch when its identifier was already
// imported. Runs before any per-record work.
type GatekeeperStep struct {
	gate *Gatekeeper
}

func (s *GatekeeperStep) Execute(ctx context.Context, state *State) error {
	return s.gate.Check(ctx, state.BatchID)
}

// FilterMarkersStep drops running-balance pseudo-entries so they never
// reach the fingerprint generator or the synchronizer.
type FilterMarkersStep struct{}

func (s *FilterMarkersStep) Execute(ctx context.Context, state *State) error {
	kept := state.Raw[:0]
	for _, raw := range state.Raw {
		if IsBalanceMarker(raw.Description, raw.EntryTypeIndicator) {
			state.Markers++
			continue
		}
		kept = append(kept, raw)
	}
	state.Raw = kept
	return nil
}

// PrepareStep normalizes, classifies, and fingerprints every remaining
// entry. A malformed date is recorded as a per-record failure and the
// entry is skipped from persistence; it never aborts the batch.
type PrepareStep struct {
	normalizer *Normalizer
	classifier *Classifier
}

func (s *PrepareStep) Execute(ctx context.Context, state *State) error {
	state.Prepared = make([]PreparedRecord, 0, len(state.Raw))

	for i, raw := range state.Raw {
		ref := fmt.Sprintf("record %d (%s)", i+1, raw.Description)

		norm, err := s.normalizer.Normalize(raw)
		if err != nil {
			state.Failures = append(state.Failures, domain.SyncError{
				RecordRef: ref,
				Reason:    err.Error(),
			})
			continue
		}

		state.Prepared = append(state.Prepared, PreparedRecord{
			Ref:         ref,
			Raw:         raw,
			Tx:          s.classifier.Classify(raw, norm),
			Fingerprint: Fingerprint(raw),
			Source:      state.Source,
			WalletID:    state.WalletID,
		})
	}
	return nil
}

// SyncStep reconciles the prepared records against the store and folds the
// prepare-stage failures into the batch result.
type SyncStep struct {
	sync *Synchronizer
}

func (s *SyncStep) Execute(ctx context.Context, state *State) error {
	state.Result = s.sync.SyncBatch(ctx, state.Prepared)
	state.Result.Errors += len(state.Failures)
	state.Result.ErrorDetails = append(state.Failures, state.Result.ErrorDetails...)
	return nil
}

// MarkImportedStep records the batch identifier once the batch completed,
// even partially.
type MarkImportedStep struct {
	gate *Gatekeeper
}

func (s *MarkImportedStep) Execute(ctx context.Context, state *State) error {
	return s.gate.MarkImported(ctx, state.BatchID)
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially. A step error aborts the pipeline;
// duplicate-batch rejection is surfaced unwrapped so callers can
// distinguish it from a generic failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
	}
	return nil
}
