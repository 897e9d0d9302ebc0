package ingest

import "testing"

func TestIsBalanceMarker(t *testing.T) {
	tests := []struct {
		name        string
		description string
		entryType   string
		want        bool
	}{
		{
			name:        "balance entry type",
			description: "whatever",
			entryType:   "S",
			want:        true,
		},
		{
			name:        "lowercase balance entry type",
			description: "whatever",
			entryType:   "s",
			want:        true,
		},
		{
			name:        "english balance phrase",
			description: "Closing Balance",
			want:        true,
		},
		{
			name:        "portuguese balance phrase",
			description: "SALDO ANTERIOR",
			want:        true,
		},
		{
			name:        "phrase survives spacing",
			description: "S A L D O",
			want:        true,
		},
		{
			name:        "phrase survives punctuation",
			description: "** BALANCE **",
			want:        true,
		},
		{
			name:        "ordinary transaction",
			description: "PIX JOAO DA SILVA",
			entryType:   "C",
			want:        false,
		},
		{
			name:        "empty description and entry type",
			description: "",
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBalanceMarker(tt.description, tt.entryType); got != tt.want {
				t.Errorf("IsBalanceMarker(%q, %q) = %v, want %v", tt.description, tt.entryType, got, tt.want)
			}
		})
	}
}
