package fhir

import (
	"reflect"
	"testing"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		full   string
		given  []string
		family string
	}{
		{"Maria da Silva Santos", []string{"Maria", "da", "Silva"}, "Santos"},
		{"João Pereira", []string{"João"}, "Pereira"},
		{"Madonna", nil, "Madonna"},
		{"", nil, ""},
		{"  Ana   Lima  ", []string{"Ana"}, "Lima"},
	}
	for _, tt := range tests {
		t.Run(tt.full, func(t *testing.T) {
			given, family := SplitName(tt.full)
			if !reflect.DeepEqual(given, tt.given) || family != tt.family {
				t.Errorf("SplitName(%q) = %v, %q; want %v, %q", tt.full, given, family, tt.given, tt.family)
			}
		})
	}
}

func TestJoinNamePrefersText(t *testing.T) {
	name := HumanName{Text: "Maria da Silva Santos", Given: []string{"Maria"}, Family: "Santos"}
	if got := JoinName(name); got != "Maria da Silva Santos" {
		t.Errorf("JoinName = %q", got)
	}
}

func TestJoinNameFromParts(t *testing.T) {
	name := HumanName{Given: []string{"Maria", "da", "Silva"}, Family: "Santos"}
	if got := JoinName(name); got != "Maria da Silva Santos" {
		t.Errorf("JoinName = %q", got)
	}
}

// The split is lossy in general but a fixed point under round-tripping.
func TestNameRoundTripFixedPoint(t *testing.T) {
	for _, full := range []string{"Maria da Silva Santos", "João Pereira", "Madonna"} {
		name := NameToFHIR(full)
		if got := JoinName(name); got != full {
			t.Errorf("round trip of %q = %q", full, got)
		}
	}
}

func TestNameFromFHIRTakesFirst(t *testing.T) {
	names := []HumanName{
		{Text: "Maria Santos"},
		{Text: "M. Santos"},
	}
	if got := NameFromFHIR(names); got != "Maria Santos" {
		t.Errorf("NameFromFHIR = %q", got)
	}
	if got := NameFromFHIR(nil); got != "" {
		t.Errorf("NameFromFHIR(nil) = %q", got)
	}
}
