package fhir

import (
	"fmt"
	"strings"
)

// FormatReference builds a "ResourceType/id" reference string.
func FormatReference(resourceType, id string) string {
	return fmt.Sprintf("%s/%s", resourceType, id)
}

// ReferenceID extracts the target id from a reference value, tolerating
// either "ResourceType/id" or a bare "id". The trailing path segment wins.
func ReferenceID(ref string) string {
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}

// ReferenceHasType reports whether a reference points at the given resource
// type ("Patient/123" has type "Patient"). Bare ids match no type.
func ReferenceHasType(ref, resourceType string) bool {
	return strings.HasPrefix(ref, resourceType+"/")
}
