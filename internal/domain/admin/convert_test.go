package admin

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/fhir"
)

func strp(s string) *string { return &s }

func TestClinicToFHIR(t *testing.T) {
	c := &Clinic{
		ID:           uuid.New(),
		Name:         "Clínica Vida Plena",
		CNPJ:         strp("12345678000195"),
		Phone:        strp("+55 11 3333-4444"),
		AddressLine:  strp("Av. Paulista, 1000"),
		AddressCity:  strp("São Paulo"),
		AddressState: strp("SP"),
		Version:      1,
		UpdatedAt:    time.Now().UTC(),
	}

	r := c.ToFHIR()

	if r.ResourceType != "Organization" {
		t.Fatalf("resourceType = %q", r.ResourceType)
	}
	if r.Name != "Clínica Vida Plena" {
		t.Errorf("name = %q", r.Name)
	}
	if got := fhir.FindIdentifier(r.Identifier, fhir.SystemCNPJ); got != "12345678000195" {
		t.Errorf("cnpj identifier = %q", got)
	}
	if len(r.Address) != 1 || r.Address[0].City != "São Paulo" {
		t.Errorf("address = %+v", r.Address)
	}
}

func TestClinicRoundTrip(t *testing.T) {
	orig := &Clinic{
		ID:        uuid.New(),
		Name:      "Clínica Central",
		CNPJ:      strp("11222333000181"),
		Email:     strp("contato@central.example.com"),
		Version:   4,
		UpdatedAt: time.Now().UTC(),
	}

	back := ClinicFromFHIR(orig.ToFHIR())

	if back.Name != orig.Name {
		t.Errorf("name = %q, want %q", back.Name, orig.Name)
	}
	if back.CNPJ == nil || *back.CNPJ != *orig.CNPJ {
		t.Errorf("cnpj = %v, want %v", back.CNPJ, orig.CNPJ)
	}
	if back.Email == nil || *back.Email != *orig.Email {
		t.Errorf("email = %v, want %v", back.Email, orig.Email)
	}
}

func TestClinicFromFHIRNormalizesCNPJ(t *testing.T) {
	res := &OrganizationResource{
		ResourceType: "Organization",
		Name:         "Clínica Norte",
		Identifier: []fhir.Identifier{
			{System: fhir.SystemCNPJ, Value: "12.345.678/0001-95"},
		},
	}

	c := ClinicFromFHIR(res)

	if c.CNPJ == nil || *c.CNPJ != "12345678000195" {
		t.Errorf("cnpj = %v, want digits only", c.CNPJ)
	}
}
