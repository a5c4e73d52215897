package scrub

import "testing"

func TestFindDistrict(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     string
	}{
		{"plain district", "ul. Puławska, Mokotów, Warszawa", "Mokotów"},
		{"hyphenated district", "Grochów, Praga-Południe, Warszawa", "Praga-Południe"},
		{"diacritic district", "Śródmieście, Warszawa, mazowieckie", "Śródmieście"},
		{"no district", "Piaseczno, mazowieckie", ""},
		{"district substring does not match", "Mokotowska 12, Warszawa", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindDistrict(tt.location); got != tt.want {
				t.Errorf("FindDistrict(%q) = %q, want %q", tt.location, got, tt.want)
			}
		})
	}
}

func TestKnownDistrict(t *testing.T) {
	if !KnownDistrict("Żoliborz") {
		t.Error("expected Żoliborz to be known")
	}
	if KnownDistrict("Piaseczno") {
		t.Error("expected Piaseczno to be unknown")
	}
}
