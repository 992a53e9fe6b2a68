package geocode

import "testing"

func TestPlaceLabel(t *testing.T) {
	tests := []struct {
		name     string
		place    Place
		expected string
	}{
		{
			name:     "leisure area wins",
			place:    Place{DisplayName: "x", Address: Address{Leisure: "Sjøflyhavna Kro", Village: "Snarøya", City: "Bærum"}},
			expected: "Sjøflyhavna Kro",
		},
		{
			name:     "village over city",
			place:    Place{DisplayName: "x", Address: Address{Village: "Son", City: "Vestby"}},
			expected: "Son",
		},
		{
			name:     "hamlet when no village",
			place:    Place{DisplayName: "x", Address: Address{Hamlet: "Knatvold", City: "Horten"}},
			expected: "Knatvold",
		},
		{
			name:     "isolated dwelling only without better match",
			place:    Place{DisplayName: "x", Address: Address{IsolatedDwelling: "Østre Bolærne"}},
			expected: "Østre Bolærne",
		},
		{
			name:     "suburb combined with city",
			place:    Place{DisplayName: "x", Address: Address{Suburb: "Vollen", City: "Asker"}},
			expected: "Vollen, Asker",
		},
		{
			name:     "city alone",
			place:    Place{DisplayName: "x", Address: Address{City: "Oslo"}},
			expected: "Oslo",
		},
		{
			name:     "town stands in for city",
			place:    Place{DisplayName: "x", Address: Address{Suburb: "Torød", Town: "Tønsberg"}},
			expected: "Torød, Tønsberg",
		},
		{
			name:     "display name as last resort",
			place:    Place{DisplayName: "59.1, 10.4, Oslofjorden"},
			expected: "59.1, 10.4, Oslofjorden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.place.Label(); got != tt.expected {
				t.Errorf("Label() = %q, want %q", got, tt.expected)
			}
		})
	}
}
