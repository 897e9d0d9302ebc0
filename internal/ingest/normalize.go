package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// Accepted component ranges for encoded dates. The source format carries no
// explicit epoch, so the year window guards against garbage bytes being
// interpreted as a date.
const (
	minYear = 2020
	maxYear = 2050
)

// debitKeywords is the fallback used when neither the sign indicator nor
// the entry-type indicator states the direction.
var debitKeywords = []string{"debit", "debito", "débito"}

// Normalizer converts source-specific encodings into calendar dates and a
// debit/credit decision. It is pure except for the clock, which is
// injectable so malformed-date substitution stays deterministic in tests.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer using the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerWithClock creates a Normalizer with a custom clock.
func NewNormalizerWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// ParseEncodedDate decodes a calendar date packed as DDMMYYYY digits.
// A 7-character form implies a missing leading zero on the day and is
// left-padded before decoding. Out-of-range components fail with
// domain.ErrMalformedDate.
func ParseEncodedDate(encoded string) (time.Time, error) {
	s := strings.TrimSpace(encoded)
	if len(s) == 7 {
		s = "0" + s
	}
	if len(s) != 8 {
		return time.Time{}, fmt.Errorf("%w: %q has %d characters, want 7 or 8", domain.ErrMalformedDate, encoded, len(encoded))
	}

	day, err := strconv.Atoi(s[0:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day in %q: %v", domain.ErrMalformedDate, encoded, err)
	}
	month, err := strconv.Atoi(s[2:4])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month in %q: %v", domain.ErrMalformedDate, encoded, err)
	}
	year, err := strconv.Atoi(s[4:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: year in %q: %v", domain.ErrMalformedDate, encoded, err)
	}

	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: day %d out of range in %q", domain.ErrMalformedDate, day, encoded)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: month %d out of range in %q", domain.ErrMalformedDate, month, encoded)
	}
	if year < minYear || year > maxYear {
		return time.Time{}, fmt.Errorf("%w: year %d out of range in %q", domain.ErrMalformedDate, year, encoded)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// Normalize converts one raw entry into a NormalizedTransaction. The
// magnitude is stored as its absolute value; the classifier applies the
// sign later so that IsDebit is the single source of truth for both kind
// and sign.
//
// A malformed date does not abort anything here: the returned transaction
// carries "now" as a substitute so it can still be inspected, and the error
// tells the pipeline to record the failure and skip persistence.
func (n *Normalizer) Normalize(raw domain.RawLedgerEntry) (domain.NormalizedTransaction, error) {
	tx := domain.NormalizedTransaction{
		Description:              raw.Description,
		ComplementaryDescription: raw.ComplementaryDescription,
		Magnitude:                raw.Magnitude.Abs(),
		IsDebit:                  resolveIsDebit(raw),
		SignIndicator:            raw.SignIndicator,
		EntryTypeIndicator:       raw.EntryTypeIndicator,
	}

	date, err := ParseEncodedDate(raw.EncodedDate)
	if err != nil {
		tx.Date = n.now()
		return tx, err
	}
	tx.Date = date
	return tx, nil
}

// resolveIsDebit derives the direction of an entry. Explicit indicators are
// authoritative; the description keyword match is only a fallback when the
// source provided neither.
func resolveIsDebit(raw domain.RawLedgerEntry) bool {
	switch strings.ToUpper(strings.TrimSpace(raw.SignIndicator)) {
	case "D":
		return true
	case "C":
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(raw.EntryTypeIndicator)) {
	case "D":
		return true
	case "C":
		return false
	}

	desc := strings.ToLower(raw.Description)
	for _, kw := range debitKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
