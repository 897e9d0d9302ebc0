package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// mockTransactionStore is a mock for testing the synchronizer in isolation.
type mockTransactionStore struct {
	FindByFingerprintFunc func(ctx context.Context, fingerprint string) (*domain.CanonicalTransaction, error)
	CreateFunc            func(ctx context.Context, tx *domain.CanonicalTransaction) error
	UpdateFunc            func(ctx context.Context, id string, patch store.UpdatePatch) error
}

func (m *mockTransactionStore) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.CanonicalTransaction, error) {
	return m.FindByFingerprintFunc(ctx, fingerprint)
}

func (m *mockTransactionStore) Create(ctx context.Context, tx *domain.CanonicalTransaction) error {
	return m.CreateFunc(ctx, tx)
}

func (m *mockTransactionStore) Update(ctx context.Context, id string, patch store.UpdatePatch) error {
	return m.UpdateFunc(ctx, id, patch)
}

func prepared(ref, fingerprint string, amount float64, kind domain.Kind) PreparedRecord {
	mag := decimal.NewFromFloat(amount).Abs()
	return PreparedRecord{
		Ref: ref,
		Raw: domain.RawLedgerEntry{
			Description:   ref,
			EncodedDate:   "05032024",
			Magnitude:     mag,
			SignIndicator: "D",
		},
		Tx: domain.ClassifiedTransaction{
			NormalizedTransaction: domain.NormalizedTransaction{
				Description: ref,
				Date:        time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
				Magnitude:   mag,
				IsDebit:     amount < 0,
			},
			Kind:     kind,
			Category: "TRANSFER",
			Amount:   decimal.NewFromFloat(amount),
		},
		Fingerprint: fingerprint,
		Source:      "EXCHANGE_FILE",
		WalletID:    "wallet-1",
	}
}

func TestSyncBatch_CreatesUnseenRecords(t *testing.T) {
	var created []*domain.CanonicalTransaction

	mock := &mockTransactionStore{
		FindByFingerprintFunc: func(ctx context.Context, fingerprint string) (*domain.CanonicalTransaction, error) {
			return nil, nil
		},
		CreateFunc: func(ctx context.Context, tx *domain.CanonicalTransaction) error {
			created = append(created, tx)
			return nil
		},
		UpdateFunc: func(ctx context.Context, id string, patch store.UpdatePatch) error {
			t.Fatal("Update must not be called for unseen fingerprints")
			return nil
		},
	}

	s := NewSynchronizer(mock, zerolog.Nop())
	result := s.SyncBatch(context.Background(), []PreparedRecord{
		prepared("record 1", "fp-1", -10, domain.KindExpense),
		prepared("record 2", "fp-2", -20, domain.KindExpense),
	})

	if result.Created != 2 || result.Updated != 0 || result.Errors != 0 {
		t.Fatalf("SyncBatch() = %+v, want 2 created", result)
	}
	if len(created) != 2 {
		t.Fatalf("store received %d creates, want 2", len(created))
	}
	if created[0].ID == "" || created[0].ID == created[1].ID {
		t.Errorf("created transactions must get distinct non-empty IDs")
	}
	if created[0].WalletID != "wallet-1" {
		t.Errorf("WalletID = %q, want wallet-1", created[0].WalletID)
	}
	if created[0].Metadata[domain.MetaFingerprint] != "fp-1" {
		t.Errorf("metadata fingerprint = %q, want fp-1", created[0].Metadata[domain.MetaFingerprint])
	}
}

func TestSyncBatch_UpdatesSeenRecords(t *testing.T) {
	existing := &domain.CanonicalTransaction{
		ID:       "existing-id",
		Amount:   decimal.NewFromInt(-10),
		Kind:     domain.KindExpense,
		Category: domain.CategoryOther,
		Metadata: map[string]string{domain.MetaFingerprint: "fp-1"},
	}

	var gotID string
	var gotPatch store.UpdatePatch

	mock := &mockTransactionStore{
		FindByFingerprintFunc: func(ctx context.Context, fingerprint string) (*domain.CanonicalTransaction, error) {
			return existing, nil
		},
		CreateFunc: func(ctx context.Context, tx *domain.CanonicalTransaction) error {
			t.Fatal("Create must not be called for seen fingerprints")
			return nil
		},
		UpdateFunc: func(ctx context.Context, id string, patch store.UpdatePatch) error {
			gotID = id
			gotPatch = patch
			return nil
		},
	}

	s := NewSynchronizer(mock, zerolog.Nop())
	result := s.SyncBatch(context.Background(), []PreparedRecord{
		prepared("record 1", "fp-1", -12.50, domain.KindExpense),
	})

	if result.Created != 0 || result.Updated != 1 || result.Errors != 0 {
		t.Fatalf("SyncBatch() = %+v, want 1 updated", result)
	}
	if gotID != "existing-id" {
		t.Errorf("Update id = %q, want existing-id", gotID)
	}
	if !gotPatch.Amount.Equal(decimal.NewFromFloat(-12.50)) {
		t.Errorf("Update amount = %s, want -12.5", gotPatch.Amount)
	}
	if gotPatch.Category != "TRANSFER" {
		t.Errorf("Update category = %q, want TRANSFER", gotPatch.Category)
	}
}

func TestSyncBatch_StoreFailureIsolation(t *testing.T) {
	calls := 0
	mock := &mockTransactionStore{
		FindByFingerprintFunc: func(ctx context.Context, fingerprint string) (*domain.CanonicalTransaction, error) {
			return nil, nil
		},
		CreateFunc: func(ctx context.Context, tx *domain.CanonicalTransaction) error {
			calls++
			if calls == 2 {
				return errors.New("insert rejected")
			}
			return nil
		},
		UpdateFunc: func(ctx context.Context, id string, patch store.UpdatePatch) error {
			return nil
		},
	}

	s := NewSynchronizer(mock, zerolog.Nop())
	records := []PreparedRecord{
		prepared("record 1", "fp-1", -10, domain.KindExpense),
		prepared("record 2", "fp-2", -20, domain.KindExpense),
		prepared("record 3", "fp-3", -30, domain.KindExpense),
	}
	result := s.SyncBatch(context.Background(), records)

	if result.Created != 2 || result.Errors != 1 {
		t.Fatalf("SyncBatch() = %+v, want 2 created and 1 error", result)
	}
	if got := result.Created + result.Updated + result.Errors; got != len(records) {
		t.Errorf("created+updated+errors = %d, want %d", got, len(records))
	}
	if len(result.ErrorDetails) != 1 {
		t.Fatalf("ErrorDetails has %d entries, want 1", len(result.ErrorDetails))
	}
	if result.ErrorDetails[0].RecordRef != "record 2" {
		t.Errorf("failed record ref = %q, want record 2", result.ErrorDetails[0].RecordRef)
	}
}

func TestSyncBatch_SameFingerprintWithinBatch(t *testing.T) {
	// The synchronizer runs records in order against the live store state:
	// the first occurrence creates, the second must observe it and update.
	var stored *domain.CanonicalTransaction

	mock := &mockTransactionStore{
		FindByFingerprintFunc: func(ctx context.Context, fingerprint string) (*domain.CanonicalTransaction, error) {
			return stored, nil
		},
		CreateFunc: func(ctx context.Context, tx *domain.CanonicalTransaction) error {
			stored = tx
			return nil
		},
		UpdateFunc: func(ctx context.Context, id string, patch store.UpdatePatch) error {
			return nil
		},
	}

	s := NewSynchronizer(mock, zerolog.Nop())
	result := s.SyncBatch(context.Background(), []PreparedRecord{
		prepared("record 1", "fp-same", -10, domain.KindExpense),
		prepared("record 2", "fp-same", -10, domain.KindExpense),
	})

	if result.Created != 1 || result.Updated != 1 {
		t.Errorf("SyncBatch() = %+v, want first creates and second updates", result)
	}
}

func TestReconcileKind(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		kind   domain.Kind
		want   domain.Kind
	}{
		{"consistent expense", -10, domain.KindExpense, domain.KindExpense},
		{"consistent deposit", 10, domain.KindDeposit, domain.KindDeposit},
		{"positive expense flips to deposit", 10, domain.KindExpense, domain.KindDeposit},
		{"negative deposit flips to expense", -10, domain.KindDeposit, domain.KindExpense},
		{"negative investment keeps kind", -10, domain.KindInvestment, domain.KindInvestment},
		{"positive investment keeps kind", 10, domain.KindInvestment, domain.KindInvestment},
		{"zero amount left alone", 0, domain.KindDeposit, domain.KindDeposit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := domain.ClassifiedTransaction{
				Kind:   tt.kind,
				Amount: decimal.NewFromFloat(tt.amount),
			}
			if got := reconcileKind(tx).Kind; got != tt.want {
				t.Errorf("reconcileKind() kind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildMetadata_DropsZeroValues(t *testing.T) {
	rec := prepared("record 1", "fp-1", -10, domain.KindExpense)
	rec.Raw.TransactionCode = 0
	rec.Raw.LotNumber = 0
	rec.Raw.CounterpartyTaxID = ""

	m := buildMetadata(rec)

	for _, key := range []string{domain.MetaTransactionCode, domain.MetaLotNumber, domain.MetaCounterpartyTaxID} {
		if _, ok := m[key]; ok {
			t.Errorf("metadata contains zero-valued key %q", key)
		}
	}
	if m[domain.MetaFingerprint] != "fp-1" {
		t.Errorf("metadata fingerprint = %q, want fp-1", m[domain.MetaFingerprint])
	}
	if m[domain.MetaSource] != "EXCHANGE_FILE" {
		t.Errorf("metadata source = %q, want EXCHANGE_FILE", m[domain.MetaSource])
	}
}

func TestSyncRecord_StoreFailureWrapsSentinel(t *testing.T) {
	mock := &mockTransactionStore{
		FindByFingerprintFunc: func(ctx context.Context, fingerprint string) (*domain.CanonicalTransaction, error) {
			return nil, errors.New("connection reset")
		},
		CreateFunc: func(ctx context.Context, tx *domain.CanonicalTransaction) error { return nil },
		UpdateFunc: func(ctx context.Context, id string, patch store.UpdatePatch) error { return nil },
	}

	s := NewSynchronizer(mock, zerolog.Nop())
	var result domain.SyncResult
	err := s.syncRecord(context.Background(), prepared("record 1", "fp-1", -10, domain.KindExpense), &result)
	if !errors.Is(err, domain.ErrStoreFailure) {
		t.Errorf("syncRecord() error = %v, want ErrStoreFailure", err)
	}
}
