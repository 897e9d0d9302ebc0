// Package exchangefile parses exchange/brokerage statement files into raw
// ledger entries. Files are batch-oriented: the whole file gets a
// content-derived identifier so a re-uploaded file can be rejected without
// touching a single record.
package exchangefile

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/shopspring/decimal"
)

// Source is the source tag stamped on transactions imported from exchange
// files.
const Source = "EXCHANGE_FILE"

// Expected CSV header. Column order is fixed; optional columns may be empty
// per row but must be present in the header.
var expectedHeader = []string{
	"encoded_date",
	"description",
	"complementary_description",
	"magnitude",
	"sign_indicator",
	"entry_type",
	"transaction_code",
	"lot_number",
	"document_number",
}

// Batch is one parsed exchange file: its content-derived identifier plus
// every raw entry, in file order.
type Batch struct {
	ID      string
	Entries []domain.RawLedgerEntry
}

// BatchID derives the batch identifier from the exact file content. The
// same bytes always produce the same identifier, so re-submitting an
// unchanged file is rejected by the gatekeeper while a corrected re-export
// passes through.
func BatchID(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Parse reads a whole exchange file and returns its batch.
func Parse(content []byte) (*Batch, error) {
	entries, err := parseEntries(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	return &Batch{
		ID:      BatchID(content),
		Entries: entries,
	}, nil
}

func parseEntries(r io.Reader) ([]domain.RawLedgerEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("parseEntries: reading header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	var entries []domain.RawLedgerEntry
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("parseEntries: line %d: %w", line, err)
		}

		entry, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("parseEntries: line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func validateHeader(header []string) error {
	if len(header) != len(expectedHeader) {
		return fmt.Errorf("validateHeader: got %d columns, want %d", len(header), len(expectedHeader))
	}
	for i, want := range expectedHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return fmt.Errorf("validateHeader: column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseRecord(record []string) (domain.RawLedgerEntry, error) {
	var entry domain.RawLedgerEntry
	if len(record) != len(expectedHeader) {
		return entry, fmt.Errorf("parseRecord: got %d fields, want %d", len(record), len(expectedHeader))
	}

	entry.EncodedDate = strings.TrimSpace(record[0])
	entry.Description = strings.TrimSpace(record[1])
	entry.ComplementaryDescription = strings.TrimSpace(record[2])

	magnitude, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return entry, fmt.Errorf("parseRecord: magnitude %q: %w", record[3], err)
	}
	entry.Magnitude = magnitude

	entry.SignIndicator = strings.ToUpper(strings.TrimSpace(record[4]))
	entry.EntryTypeIndicator = strings.ToUpper(strings.TrimSpace(record[5]))

	if entry.TransactionCode, err = parseOptionalInt(record[6]); err != nil {
		return entry, fmt.Errorf("parseRecord: transaction_code %q: %w", record[6], err)
	}
	if entry.LotNumber, err = parseOptionalInt(record[7]); err != nil {
		return entry, fmt.Errorf("parseRecord: lot_number %q: %w", record[7], err)
	}
	if entry.DocumentNumber, err = parseOptionalInt(record[8]); err != nil {
		return entry, fmt.Errorf("parseRecord: document_number %q: %w", record[8], err)
	}

	return entry, nil
}

func parseOptionalInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
