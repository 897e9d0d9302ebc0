package ingest

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// fingerprintSeparator joins the sorted key:value pairs. Changing it would
// invalidate every stored fingerprint.
const fingerprintSeparator = "|"

// Fingerprint derives the deduplication key from an entry's stable fields:
// encoded date, magnitude, sign indicator, and the lot/document identifiers
// when present. Zero-valued fields carry no discriminating information and
// are dropped so that their presence or absence cannot change the output.
//
// Derived and mutable fields (kind, category) are deliberately excluded:
// reclassifying an entry later must not create a duplicate.
func Fingerprint(raw domain.RawLedgerEntry) string {
	pairs := make(map[string]string, 5)

	if v := strings.TrimSpace(raw.EncodedDate); v != "" {
		pairs["date"] = v
	}
	if !raw.Magnitude.IsZero() {
		pairs["magnitude"] = raw.Magnitude.Abs().String()
	}
	if v := strings.TrimSpace(raw.SignIndicator); v != "" {
		pairs["sign"] = strings.ToUpper(v)
	}
	if raw.LotNumber != 0 {
		pairs["lot"] = strconv.FormatInt(raw.LotNumber, 10)
	}
	if raw.DocumentNumber != 0 {
		pairs["document"] = strconv.FormatInt(raw.DocumentNumber, 10)
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+pairs[k])
	}
	return strings.Join(parts, fingerprintSeparator)
}
