package fhir

// Internal gender vocabulary.
const (
	GenderMale         = "MALE"
	GenderFemale       = "FEMALE"
	GenderOther        = "OTHER"
	GenderNotSpecified = "NOT_SPECIFIED"
)

var genderToFHIR = map[string]string{
	GenderMale:         "male",
	GenderFemale:       "female",
	GenderOther:        "other",
	GenderNotSpecified: "unknown",
}

var genderFromFHIR = map[string]string{
	"male":    GenderMale,
	"female":  GenderFemale,
	"other":   GenderOther,
	"unknown": GenderNotSpecified,
}

// GenderToFHIR maps the internal gender enumeration onto FHIR
// AdministrativeGender; anything unrecognized becomes "unknown".
func GenderToFHIR(gender string) string {
	if g, ok := genderToFHIR[gender]; ok {
		return g
	}
	return "unknown"
}

// GenderFromFHIR maps AdministrativeGender back to the internal vocabulary;
// anything unrecognized becomes NOT_SPECIFIED.
func GenderFromFHIR(gender string) string {
	if g, ok := genderFromFHIR[gender]; ok {
		return g
	}
	return GenderNotSpecified
}
