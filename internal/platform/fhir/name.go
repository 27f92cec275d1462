package fhir

import "strings"

// The platform stores a single free-text name; FHIR wants structured
// given[]/family. SplitName takes the last whitespace-delimited token as the
// family name and everything before it as given names. The split is a lossy
// heuristic: "Maria de Souza" becomes given=["Maria","de"], family="Souza",
// and re-joining yields the same string, but the original tokenization is
// not guaranteed to be recovered for names that were structured differently
// at the source. Re-converting is a fixed point.
func SplitName(full string) (given []string, family string) {
	tokens := strings.Fields(full)
	if len(tokens) == 0 {
		return nil, ""
	}
	if len(tokens) == 1 {
		return nil, tokens[0]
	}
	return tokens[:len(tokens)-1], tokens[len(tokens)-1]
}

// JoinName composes the internal free-text name from a FHIR HumanName.
// The text field wins when present; otherwise given names and family are
// joined with single spaces.
func JoinName(name HumanName) string {
	if name.Text != "" {
		return name.Text
	}
	parts := make([]string, 0, len(name.Given)+1)
	for _, g := range name.Given {
		if g = strings.TrimSpace(g); g != "" {
			parts = append(parts, g)
		}
	}
	if f := strings.TrimSpace(name.Family); f != "" {
		parts = append(parts, f)
	}
	return strings.Join(parts, " ")
}

// NameToFHIR builds the official HumanName for a free-text name, carrying
// the original string in text.
func NameToFHIR(full string) HumanName {
	given, family := SplitName(full)
	return HumanName{
		Use:    "official",
		Text:   full,
		Family: family,
		Given:  given,
	}
}

// NameFromFHIR picks the first name entry and composes the internal
// free-text representation.
func NameFromFHIR(names []HumanName) string {
	if len(names) == 0 {
		return ""
	}
	return JoinName(names[0])
}
