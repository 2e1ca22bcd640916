package hashutil

import "testing"

func TestIdentifierKnownSeeds(t *testing.T) {
	tests := []struct {
		name string
		want uint32
	}{
		{"PLAYER", 65808821},
		{"CLASS", 246996147},
		{"RACE", 65824981},
		{"CURRENT", 788899},
		{"MAX", 104736179},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identifier(tt.name); got != tt.want {
				t.Errorf("Identifier(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}
