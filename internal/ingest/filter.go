package ingest

import (
	"strings"
	"unicode"
)

// EntryTypeBalance is the entry-type indicator sources use for a synthetic
// running-balance line.
const EntryTypeBalance = "S"

// balanceMarkerPhrases are matched against the description after squashing,
// so "SALDO ANTERIOR", "Closing Balance" and "B A L A N C E" all match.
var balanceMarkerPhrases = []string{"balance", "saldo"}

// IsBalanceMarker reports whether an entry is a running-balance pseudo-entry.
// Markers are normalized for context but must never reach the fingerprint
// generator or the synchronizer, and never consume a create/update count.
func IsBalanceMarker(description, entryTypeIndicator string) bool {
	if strings.EqualFold(strings.TrimSpace(entryTypeIndicator), EntryTypeBalance) {
		return true
	}

	squashed := squash(description)
	for _, phrase := range balanceMarkerPhrases {
		if strings.Contains(squashed, phrase) {
			return true
		}
	}
	return false
}

// squash lowercases and strips everything that is not a letter, so marker
// phrases match regardless of spacing and punctuation.
func squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
