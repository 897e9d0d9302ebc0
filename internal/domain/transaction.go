package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the semantic class of a transaction.
type Kind string

const (
	KindExpense    Kind = "expense"
	KindDeposit    Kind = "deposit"
	KindInvestment Kind = "investment"
)

// CategoryOther is the fallback category assigned when neither the code
// table nor the phrase table resolves a category.
const CategoryOther = "OTHER"

// RawLedgerEntry is one source-native record as received from an adapter.
// Fields vary by source; absent fields stay at their zero value. Entries are
// immutable: the pipeline owns them only for the duration of one pass.
type RawLedgerEntry struct {
	Description              string
	ComplementaryDescription string

	// EncodedDate is a calendar date packed as 7 or 8 digits (DDMMYYYY,
	// with a 7-digit form missing the leading zero on the day).
	EncodedDate string

	// Magnitude is the unsigned amount as reported by the source.
	Magnitude decimal.Decimal

	// SignIndicator is "C" (credit) or "D" (debit) when the source
	// provides an explicit sign.
	SignIndicator string

	// EntryTypeIndicator may itself encode debit/credit, or mark a
	// synthetic balance line.
	EntryTypeIndicator string

	TransactionCode int64
	LotNumber       int64
	DocumentNumber  int64

	CounterpartyTaxID      string
	CounterpartyPersonType string // "F" natural person, "J" legal entity
}

// NormalizedTransaction is the output of the normalizer for exactly one
// RawLedgerEntry. The magnitude is kept absolute at this stage; IsDebit is
// the single source of truth from which the classifier derives both the
// signed amount and the kind. Raw indicators are preserved for audit.
type NormalizedTransaction struct {
	Description              string
	ComplementaryDescription string

	Date      time.Time
	Magnitude decimal.Decimal // always absolute
	IsDebit   bool

	SignIndicator      string
	EntryTypeIndicator string
}

// ClassifiedTransaction is a NormalizedTransaction plus the resolved kind,
// category, and the signed amount (negative = outflow).
type ClassifiedTransaction struct {
	NormalizedTransaction

	Kind     Kind
	Category string
	Amount   decimal.Decimal // signed
}

// Metadata keys understood by the engine. The metadata map is free-form at
// the store boundary but the engine only ever writes these keys; zero-valued
// keys are dropped before storage.
const (
	MetaFingerprint            = "fingerprint"
	MetaSource                 = "source"
	MetaEncodedDate            = "encoded_date"
	MetaSignIndicator          = "sign_indicator"
	MetaEntryType              = "entry_type"
	MetaTransactionCode        = "transaction_code"
	MetaLotNumber              = "lot_number"
	MetaDocumentNumber         = "document_number"
	MetaCounterpartyTaxID      = "counterparty_tax_id"
	MetaCounterpartyPersonType = "counterparty_person_type"
)

// CanonicalTransaction is the persisted record. It is created by the
// synchronizer on first sight of a fingerprint and updated in place on
// subsequent sight; the engine never deletes one.
type CanonicalTransaction struct {
	ID       string
	Date     time.Time
	Name     string
	Amount   decimal.Decimal
	Kind     Kind
	Category string
	Metadata map[string]string
	WalletID string
}

// Fingerprint returns the transaction's fingerprint from its metadata.
func (t *CanonicalTransaction) Fingerprint() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata[MetaFingerprint]
}

// SyncError describes one record-scoped failure within a batch.
type SyncError struct {
	RecordRef string `json:"recordRef"`
	Reason    string `json:"reason"`
}

// SyncResult is the per-batch aggregate returned to the caller. It is
// recreated fresh for every batch and never persisted.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`

	// AlreadyImported distinguishes whole-batch rejection from a
	// zero-effect successful batch.
	AlreadyImported bool `json:"alreadyImported,omitempty"`

	ErrorDetails []SyncError `json:"errorDetails,omitempty"`
}
