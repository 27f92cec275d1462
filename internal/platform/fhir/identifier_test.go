package fhir

import "testing"

func TestDigits(t *testing.T) {
	tests := []struct{ in, want string }{
		{"390.533.447-05", "39053344705"},
		{"12.345.678/0001-95", "12345678000195"},
		{"39053344705", "39053344705"},
		{"", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		if got := Digits(tt.in); got != tt.want {
			t.Errorf("Digits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindIdentifier(t *testing.T) {
	ids := []Identifier{
		{Use: "usual", Value: "some-uuid"},
		{Use: "official", System: SystemCPF, Value: "390.533.447-05"},
		{Use: "official", System: SystemCNS, Value: "700000000000001"},
	}
	if got := FindIdentifier(ids, SystemCPF); got != "39053344705" {
		t.Errorf("cpf = %q", got)
	}
	if got := FindIdentifier(ids, SystemCNS); got != "700000000000001" {
		t.Errorf("cns = %q", got)
	}
	if got := FindIdentifier(ids, SystemCRM); got != "" {
		t.Errorf("missing system = %q, want empty", got)
	}
}

func TestReferenceID(t *testing.T) {
	if got := ReferenceID("Patient/abc-123"); got != "abc-123" {
		t.Errorf("got %q", got)
	}
	if got := ReferenceID("abc-123"); got != "abc-123" {
		t.Errorf("bare id got %q", got)
	}
	if got := ReferenceID("http://host/fhir/Patient/abc"); got != "abc" {
		t.Errorf("absolute ref got %q", got)
	}
}

func TestReferenceHasType(t *testing.T) {
	if !ReferenceHasType("Patient/abc", "Patient") {
		t.Error("Patient/abc should match Patient")
	}
	if ReferenceHasType("Practitioner/abc", "Patient") {
		t.Error("Practitioner/abc must not match Patient")
	}
	if ReferenceHasType("abc", "Patient") {
		t.Error("bare id must not match any type")
	}
}

func TestGenderMapping(t *testing.T) {
	pairs := map[string]string{
		GenderMale:         "male",
		GenderFemale:       "female",
		GenderOther:        "other",
		GenderNotSpecified: "unknown",
	}
	for internal, code := range pairs {
		if got := GenderToFHIR(internal); got != code {
			t.Errorf("GenderToFHIR(%q) = %q", internal, got)
		}
		if got := GenderFromFHIR(code); got != internal {
			t.Errorf("GenderFromFHIR(%q) = %q", code, got)
		}
	}
	if got := GenderToFHIR("X"); got != "unknown" {
		t.Errorf("unknown internal = %q", got)
	}
	if got := GenderFromFHIR("nonbinary-code"); got != GenderNotSpecified {
		t.Errorf("unmapped FHIR code = %q", got)
	}
}
