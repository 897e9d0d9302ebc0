package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PreparedRecord is one fully normalized, classified, fingerprinted record
// ready for synchronization.
type PreparedRecord struct {
	// Ref identifies the record in error reports, e.g. "line 7".
	Ref string

	Raw         domain.RawLedgerEntry
	Tx          domain.ClassifiedTransaction
	Fingerprint string

	Source   string
	WalletID string
}

// Synchronizer reconciles prepared records against a transaction store.
// Records are processed strictly in input order and synchronously with
// respect to the store: the counts and the error list are order-sensitive,
// and two records sharing a fingerprint within one batch must resolve to
// "first creates, second updates".
type Synchronizer struct {
	store store.TransactionStore
	log   zerolog.Logger
}

// NewSynchronizer creates a Synchronizer over the given store.
func NewSynchronizer(s store.TransactionStore, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{store: s, log: log}
}

// SyncBatch runs the per-record reconciliation for one batch. Any failure
// for a single record is recorded and processing continues with the next
// record; one bad row never discards an otherwise-good import.
//
// Postcondition: Created + Updated + Errors == len(records).
func (s *Synchronizer) SyncBatch(ctx context.Context, records []PreparedRecord) domain.SyncResult {
	var result domain.SyncResult

	for _, rec := range records {
		if err := s.syncRecord(ctx, rec, &result); err != nil {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, domain.SyncError{
				RecordRef: rec.Ref,
				Reason:    err.Error(),
			})
			s.log.Warn().
				Str("record", rec.Ref).
				Str("fingerprint", rec.Fingerprint).
				Err(err).
				Msg("Record sync failed, continuing batch")
		}
	}

	return result
}

func (s *Synchronizer) syncRecord(ctx context.Context, rec PreparedRecord, result *domain.SyncResult) error {
	tx := reconcileKind(rec.Tx)

	existing, err := s.store.FindByFingerprint(ctx, rec.Fingerprint)
	if err != nil {
		return fmt.Errorf("%w: lookup %q: %v", domain.ErrStoreFailure, rec.Fingerprint, err)
	}

	metadata := buildMetadata(rec)

	if existing == nil {
		canonical := &domain.CanonicalTransaction{
			ID:       uuid.NewString(),
			Date:     tx.Date,
			Name:     tx.Description,
			Amount:   tx.Amount,
			Kind:     tx.Kind,
			Category: tx.Category,
			Metadata: metadata,
			WalletID: rec.WalletID,
		}
		if err := s.store.Create(ctx, canonical); err != nil {
			return fmt.Errorf("%w: create %q: %v", domain.ErrStoreFailure, rec.Fingerprint, err)
		}
		result.Created++
		return nil
	}

	patch := store.UpdatePatch{
		Amount:   tx.Amount,
		Kind:     tx.Kind,
		Category: tx.Category,
		Metadata: metadata,
	}
	if err := s.store.Update(ctx, existing.ID, patch); err != nil {
		return fmt.Errorf("%w: update %q: %v", domain.ErrStoreFailure, rec.Fingerprint, err)
	}
	result.Updated++
	return nil
}

// reconcileKind re-checks sign/kind consistency just before persistence.
// The amount sign comes straight from the explicit source indicator, so it
// is treated as more authoritative than the keyword-derived kind: a
// contradiction flips expense/deposit to match the sign. An investment
// kind is kept regardless of sign; the debit/credit rule only governs its
// sign, not its kind.
func reconcileKind(tx domain.ClassifiedTransaction) domain.ClassifiedTransaction {
	if tx.Kind == domain.KindInvestment {
		return tx
	}
	if tx.Amount.IsPositive() && tx.Kind == domain.KindExpense {
		tx.Kind = domain.KindDeposit
	} else if tx.Amount.IsNegative() && tx.Kind == domain.KindDeposit {
		tx.Kind = domain.KindExpense
	}
	return tx
}

// buildMetadata collects the audit fields for a record, dropping zero
// values so the stored map does not bloat with empty keys.
func buildMetadata(rec PreparedRecord) map[string]string {
	m := make(map[string]string, 10)

	put := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	putInt := func(key string, value int64) {
		if value != 0 {
			m[key] = strconv.FormatInt(value, 10)
		}
	}

	put(domain.MetaFingerprint, rec.Fingerprint)
	put(domain.MetaSource, rec.Source)
	put(domain.MetaEncodedDate, rec.Raw.EncodedDate)
	put(domain.MetaSignIndicator, rec.Raw.SignIndicator)
	put(domain.MetaEntryType, rec.Raw.EntryTypeIndicator)
	putInt(domain.MetaTransactionCode, rec.Raw.TransactionCode)
	putInt(domain.MetaLotNumber, rec.Raw.LotNumber)
	putInt(domain.MetaDocumentNumber, rec.Raw.DocumentNumber)
	put(domain.MetaCounterpartyTaxID, rec.Raw.CounterpartyTaxID)
	put(domain.MetaCounterpartyPersonType, rec.Raw.CounterpartyPersonType)

	return m
}
