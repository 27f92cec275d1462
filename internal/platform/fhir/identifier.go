package fhir

import "strings"

// Canonical system URIs for the Brazilian national identifiers carried as
// FHIR identifier entries.
const (
	SystemCPF  = "https://fhir.clinicore.com.br/NamingSystem/cpf"
	SystemCNS  = "https://fhir.clinicore.com.br/NamingSystem/cns"
	SystemCRM  = "https://fhir.clinicore.com.br/NamingSystem/crm"
	SystemCNPJ = "https://fhir.clinicore.com.br/NamingSystem/cnpj"
)

// Digits strips every non-digit character, normalizing punctuated national
// identifiers ("123.456.789-01" -> "12345678901").
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FindIdentifier scans identifier[] for the given system URI and returns the
// digit-normalized value, or "" when absent.
func FindIdentifier(ids []Identifier, system string) string {
	for _, id := range ids {
		if id.System == system && id.Value != "" {
			return Digits(id.Value)
		}
	}
	return ""
}

// SelfIdentifier is the "usual" identifier every resource carries, pointing
// at the record's own id.
func SelfIdentifier(id string) Identifier {
	return Identifier{Use: "usual", Value: id}
}

// NationalIdentifier builds an official identifier entry for a national
// identifier system.
func NationalIdentifier(system, value string) Identifier {
	return Identifier{Use: "official", System: system, Value: value}
}
