package fhir

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SearchPrefix is a FHIR search prefix for ordered values.
type SearchPrefix string

const (
	PrefixEq SearchPrefix = "eq"
	PrefixNe SearchPrefix = "ne"
	PrefixGt SearchPrefix = "gt"
	PrefixLt SearchPrefix = "lt"
	PrefixGe SearchPrefix = "ge"
	PrefixLe SearchPrefix = "le"
	PrefixSa SearchPrefix = "sa"
	PrefixEb SearchPrefix = "eb"
	PrefixAp SearchPrefix = "ap"
)

// SearchModifier is a FHIR search parameter modifier (":exact" etc.).
type SearchModifier string

const (
	ModifierExact    SearchModifier = "exact"
	ModifierContains SearchModifier = "contains"
)

// ParsedSearch holds a search value with its extracted prefix.
type ParsedSearch struct {
	Prefix SearchPrefix
	Value  string
}

// ParseSearchValue extracts the comparison prefix from a FHIR search value.
// "ge2024-01-01" -> (ge, "2024-01-01"); a value without a prefix is eq.
func ParseSearchValue(raw string) ParsedSearch {
	if len(raw) >= 2 {
		prefix := SearchPrefix(strings.ToLower(raw[:2]))
		switch prefix {
		case PrefixEq, PrefixNe, PrefixGt, PrefixLt, PrefixGe, PrefixLe, PrefixSa, PrefixEb, PrefixAp:
			return ParsedSearch{Prefix: prefix, Value: raw[2:]}
		}
	}
	return ParsedSearch{Prefix: PrefixEq, Value: raw}
}

// ParseParamModifier splits "name:exact" into ("name", exact).
func ParseParamModifier(paramName string) (string, SearchModifier) {
	parts := strings.SplitN(paramName, ":", 2)
	if len(parts) == 2 {
		return parts[0], SearchModifier(parts[1])
	}
	return parts[0], ""
}

// DateSearchClause generates a SQL predicate for a date search value with
// prefix support. sa and eb collapse to strict > and <, and ap collapses to
// eq; the approximation window the spec allows for ap is intentionally not
// implemented. argIdx is the next positional parameter index.
func DateSearchClause(column, value string, argIdx int) (string, []interface{}, int) {
	parsed := ParseSearchValue(value)

	t, err := ParseFlexDate(parsed.Value)
	if err != nil {
		return fmt.Sprintf("%s::text = $%d", column, argIdx), []interface{}{parsed.Value}, argIdx + 1
	}

	switch parsed.Prefix {
	case PrefixGt, PrefixSa:
		return fmt.Sprintf("%s > $%d", column, argIdx), []interface{}{t}, argIdx + 1
	case PrefixLt, PrefixEb:
		return fmt.Sprintf("%s < $%d", column, argIdx), []interface{}{t}, argIdx + 1
	case PrefixGe:
		return fmt.Sprintf("%s >= $%d", column, argIdx), []interface{}{t}, argIdx + 1
	case PrefixLe:
		return fmt.Sprintf("%s <= $%d", column, argIdx), []interface{}{t}, argIdx + 1
	case PrefixNe:
		// Date-only values exclude the whole day, mirroring eq.
		if len(parsed.Value) == 10 {
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			clause := fmt.Sprintf("(%s < $%d OR %s > $%d)", column, argIdx, column, argIdx+1)
			return clause, []interface{}{t, endOfDay}, argIdx + 2
		}
		return fmt.Sprintf("%s != $%d", column, argIdx), []interface{}{t}, argIdx + 1
	default: // eq, ap
		// Date-only values match the whole day.
		if len(parsed.Value) == 10 {
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			clause := fmt.Sprintf("(%s >= $%d AND %s <= $%d)", column, argIdx, column, argIdx+1)
			return clause, []interface{}{t, endOfDay}, argIdx + 2
		}
		return fmt.Sprintf("%s = $%d", column, argIdx), []interface{}{t}, argIdx + 1
	}
}

// TokenSearchClause matches a token value, supporting "system|code" pairs.
func TokenSearchClause(systemCol, codeCol, value string, argIdx int) (string, []interface{}, int) {
	if strings.Contains(value, "|") && systemCol != "" {
		parts := strings.SplitN(value, "|", 2)
		system, code := parts[0], parts[1]
		switch {
		case system != "" && code != "":
			clause := fmt.Sprintf("(%s = $%d AND %s = $%d)", systemCol, argIdx, codeCol, argIdx+1)
			return clause, []interface{}{system, code}, argIdx + 2
		case system != "":
			return fmt.Sprintf("%s = $%d", systemCol, argIdx), []interface{}{system}, argIdx + 1
		default:
			return fmt.Sprintf("%s = $%d", codeCol, argIdx), []interface{}{code}, argIdx + 1
		}
	}
	return fmt.Sprintf("%s = $%d", codeCol, argIdx), []interface{}{strings.TrimPrefix(value, "|")}, argIdx + 1
}

// StringSearchClause matches a string parameter. Default FHIR string search
// is a case-insensitive prefix match; :exact and :contains adjust it.
func StringSearchClause(column, value string, modifier SearchModifier, argIdx int) (string, []interface{}, int) {
	switch modifier {
	case ModifierExact:
		return fmt.Sprintf("%s = $%d", column, argIdx), []interface{}{value}, argIdx + 1
	case ModifierContains:
		return fmt.Sprintf("%s ILIKE $%d", column, argIdx), []interface{}{"%" + value + "%"}, argIdx + 1
	default:
		return fmt.Sprintf("%s ILIKE $%d", column, argIdx), []interface{}{value + "%"}, argIdx + 1
	}
}

// ReferenceSearchClause matches a reference parameter against a uuid
// foreign-key column. Both "Patient/123" and a bare "123" resolve to the id
// 123. A value that is not a valid uuid can never match a row, so it yields
// an always-false clause instead of a cast error from the database.
func ReferenceSearchClause(column, value string, argIdx int) (string, []interface{}, int) {
	id := ReferenceID(value)
	if _, err := uuid.Parse(id); err != nil {
		return "FALSE", nil, argIdx
	}
	return fmt.Sprintf("%s = $%d", column, argIdx), []interface{}{id}, argIdx + 1
}

// ParseFlexDate parses the date precisions FHIR search values allow.
func ParseFlexDate(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
		"2006-01",
		"2006",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}
