package fhir

import "strings"

// SortSpec is a single _sort directive.
type SortSpec struct {
	Field      string
	Descending bool
}

// ParseSort parses the _sort parameter: a comma-separated field list where a
// leading "-" marks descending order. "-date,status" sorts by date DESC then
// status ASC.
func ParseSort(sortParam string) []SortSpec {
	if sortParam == "" {
		return nil
	}
	parts := strings.Split(sortParam, ",")
	specs := make([]SortSpec, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		spec := SortSpec{Field: part}
		if strings.HasPrefix(part, "-") {
			spec.Descending = true
			spec.Field = part[1:]
		}
		if spec.Field != "" {
			specs = append(specs, spec)
		}
	}
	return specs
}
