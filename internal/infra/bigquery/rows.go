// Package bigquery provides BigQuery-backed implementations of the engine's
// store contracts: canonical transactions keyed by fingerprint and the
// batch import registry. Fingerprint uniqueness across concurrent batches
// is enforced at this boundary.
package bigquery

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	transactionsTable = "canonical_transactions"
	batchImportsTable = "batch_imports"
)

// CanonicalTransactionRow is the BigQuery row shape for a canonical
// transaction. The fingerprint is stored both as a dedicated column (for
// the lookup and the uniqueness constraint) and inside the metadata JSON
// (so the persisted record is self-describing).
type CanonicalTransactionRow struct {
	TransactionID string `bigquery:"transaction_id"`
	WalletID      string `bigquery:"wallet_id"`

	TransactionDate civil.Date `bigquery:"transaction_date"`
	Name            string     `bigquery:"name"`
	Amount          *big.Rat   `bigquery:"amount"`
	Kind            string     `bigquery:"kind"`
	Category        string     `bigquery:"category"`

	Fingerprint string            `bigquery:"fingerprint"`
	Metadata    bigquery.NullJSON `bigquery:"metadata"`

	CreatedTS time.Time              `bigquery:"created_ts"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"`
}

// BatchImportRow records one fully imported batch.
type BatchImportRow struct {
	BatchID    string    `bigquery:"batch_id"`
	ImportedTS time.Time `bigquery:"imported_ts"`
}

func toRow(tx *domain.CanonicalTransaction) (*CanonicalTransactionRow, error) {
	metadata, err := metadataToJSON(tx.Metadata)
	if err != nil {
		return nil, err
	}
	return &CanonicalTransactionRow{
		TransactionID:   tx.ID,
		WalletID:        tx.WalletID,
		TransactionDate: civil.DateOf(tx.Date),
		Name:            tx.Name,
		Amount:          tx.Amount.Rat(),
		Kind:            string(tx.Kind),
		Category:        tx.Category,
		Fingerprint:     tx.Fingerprint(),
		Metadata:        metadata,
		CreatedTS:       time.Now(),
	}, nil
}

func fromRow(row *CanonicalTransactionRow) (*domain.CanonicalTransaction, error) {
	amount, err := ratToDecimal(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("fromRow: amount of %s: %w", row.TransactionID, err)
	}
	metadata, err := metadataFromJSON(row.Metadata)
	if err != nil {
		return nil, fmt.Errorf("fromRow: metadata of %s: %w", row.TransactionID, err)
	}
	return &domain.CanonicalTransaction{
		ID:       row.TransactionID,
		Date:     row.TransactionDate.In(time.UTC),
		Name:     row.Name,
		Amount:   amount,
		Kind:     domain.Kind(row.Kind),
		Category: row.Category,
		Metadata: metadata,
		WalletID: row.WalletID,
	}, nil
}

func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(r.FloatString(8))
}

func metadataToJSON(m map[string]string) (bigquery.NullJSON, error) {
	if len(m) == 0 {
		return bigquery.NullJSON{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return bigquery.NullJSON{}, fmt.Errorf("metadataToJSON: %w", err)
	}
	return bigquery.NullJSON{JSONVal: string(b), Valid: true}, nil
}

func metadataFromJSON(v bigquery.NullJSON) (map[string]string, error) {
	if !v.Valid || v.JSONVal == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(v.JSONVal), &m); err != nil {
		return nil, fmt.Errorf("metadataFromJSON: %w", err)
	}
	return m, nil
}
