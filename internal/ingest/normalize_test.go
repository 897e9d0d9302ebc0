package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/shopspring/decimal"
)

func TestParseEncodedDate(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    time.Time
		wantErr bool
	}{
		{
			name:    "eight digits",
			encoded: "05032024",
			want:    time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "seven digits gets left-padded day",
			encoded: "5032024",
			want:    time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "end of year",
			encoded: "31122025",
			want:    time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "surrounding whitespace is tolerated",
			encoded: " 05032024 ",
			want:    time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "month out of range",
			encoded: "05132024",
			wantErr: true,
		},
		{
			name:    "day out of range",
			encoded: "32012024",
			wantErr: true,
		},
		{
			name:    "day zero",
			encoded: "00012024",
			wantErr: true,
		},
		{
			name:    "year before window",
			encoded: "05032019",
			wantErr: true,
		},
		{
			name:    "year after window",
			encoded: "05032051",
			wantErr: true,
		},
		{
			name:    "too short",
			encoded: "503202",
			wantErr: true,
		},
		{
			name:    "too long",
			encoded: "005032024",
			wantErr: true,
		},
		{
			name:    "non-digit characters",
			encoded: "05a32024",
			wantErr: true,
		},
		{
			name:    "empty",
			encoded: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEncodedDate(tt.encoded)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseEncodedDate(%q) = %v, want error", tt.encoded, got)
				}
				if !errors.Is(err, domain.ErrMalformedDate) {
					t.Errorf("ParseEncodedDate(%q) error = %v, want ErrMalformedDate", tt.encoded, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEncodedDate(%q) unexpected error: %v", tt.encoded, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseEncodedDate(%q) = %v, want %v", tt.encoded, got, tt.want)
			}
		})
	}
}

func TestNormalize_MalformedDateSubstitutesNow(t *testing.T) {
	fixedNow := time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)
	n := NewNormalizerWithClock(func() time.Time { return fixedNow })

	raw := domain.RawLedgerEntry{
		Description:   "PIX TRANSFER",
		EncodedDate:   "99992024",
		Magnitude:     decimal.NewFromFloat(150.00),
		SignIndicator: "D",
	}

	tx, err := n.Normalize(raw)
	if !errors.Is(err, domain.ErrMalformedDate) {
		t.Fatalf("Normalize() error = %v, want ErrMalformedDate", err)
	}
	if !tx.Date.Equal(fixedNow) {
		t.Errorf("Normalize() substituted date = %v, want %v", tx.Date, fixedNow)
	}
	if !tx.IsDebit {
		t.Errorf("Normalize() IsDebit = false, want true: the rest of the record is still normalized")
	}
}

func TestNormalize_MagnitudeIsAbsolute(t *testing.T) {
	n := NewNormalizer()

	raw := domain.RawLedgerEntry{
		Description:   "CARD PURCHASE",
		EncodedDate:   "10062024",
		Magnitude:     decimal.NewFromFloat(-42.50),
		SignIndicator: "D",
	}

	tx, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() unexpected error: %v", err)
	}
	if tx.Magnitude.IsNegative() {
		t.Errorf("Normalize() Magnitude = %s, want absolute value", tx.Magnitude)
	}
	if !tx.Magnitude.Equal(decimal.NewFromFloat(42.50)) {
		t.Errorf("Normalize() Magnitude = %s, want 42.5", tx.Magnitude)
	}
}

func TestResolveIsDebit(t *testing.T) {
	tests := []struct {
		name string
		raw  domain.RawLedgerEntry
		want bool
	}{
		{
			name: "sign indicator D",
			raw:  domain.RawLedgerEntry{SignIndicator: "D"},
			want: true,
		},
		{
			name: "sign indicator C",
			raw:  domain.RawLedgerEntry{SignIndicator: "C"},
			want: false,
		},
		{
			name: "lowercase sign indicator",
			raw:  domain.RawLedgerEntry{SignIndicator: "d"},
			want: true,
		},
		{
			name: "sign indicator wins over entry type",
			raw:  domain.RawLedgerEntry{SignIndicator: "C", EntryTypeIndicator: "D"},
			want: false,
		},
		{
			name: "sign indicator wins over debit keyword",
			raw:  domain.RawLedgerEntry{SignIndicator: "C", Description: "AUTOMATIC DEBIT"},
			want: false,
		},
		{
			name: "entry type fallback D",
			raw:  domain.RawLedgerEntry{EntryTypeIndicator: "D"},
			want: true,
		},
		{
			name: "entry type fallback C",
			raw:  domain.RawLedgerEntry{EntryTypeIndicator: "C", Description: "DEBITO AUTOMATICO"},
			want: false,
		},
		{
			name: "keyword fallback english",
			raw:  domain.RawLedgerEntry{Description: "Direct Debit Insurance"},
			want: true,
		},
		{
			name: "keyword fallback portuguese",
			raw:  domain.RawLedgerEntry{Description: "debito automatico luz"},
			want: true,
		},
		{
			name: "no indicator and no keyword defaults to credit",
			raw:  domain.RawLedgerEntry{Description: "TED RECEIVED"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveIsDebit(tt.raw); got != tt.want {
				t.Errorf("resolveIsDebit() = %v, want %v", got, tt.want)
			}
		})
	}
}
