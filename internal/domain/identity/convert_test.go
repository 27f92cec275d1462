package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/fhir"
)

func strp(s string) *string { return &s }

func TestPatientToFHIR(t *testing.T) {
	birth := time.Date(1988, 3, 12, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	p := &Patient{
		ID:        uuid.MustParse("5f6c2d5e-3f6a-4c3b-9a51-0d3e2b1a9c88"),
		FullName:  "Maria da Silva Santos",
		CPF:       strp("39053344705"),
		CNS:       strp("700000000000001"),
		Gender:    fhir.GenderFemale,
		BirthDate: &birth,
		Phone:     strp("+55 11 91234-5678"),
		Email:     strp("maria@example.com"),
		Version:   3,
		UpdatedAt: updated,
	}

	r := p.ToFHIR()

	if r.ResourceType != "Patient" {
		t.Fatalf("resourceType = %q, want Patient", r.ResourceType)
	}
	if r.ID != p.ID.String() {
		t.Errorf("id = %q, want %q", r.ID, p.ID.String())
	}
	if r.Meta == nil || r.Meta.VersionID != "3" {
		t.Errorf("meta.versionId = %v, want 3", r.Meta)
	}
	if r.Gender != "female" {
		t.Errorf("gender = %q, want female", r.Gender)
	}
	if r.BirthDate != "1988-03-12" {
		t.Errorf("birthDate = %q, want 1988-03-12", r.BirthDate)
	}
	if len(r.Name) != 1 || r.Name[0].Text != "Maria da Silva Santos" {
		t.Fatalf("name = %+v", r.Name)
	}
	if r.Name[0].Family != "Santos" {
		t.Errorf("family = %q, want Santos", r.Name[0].Family)
	}
	if got, want := len(r.Name[0].Given), 3; got != want {
		t.Errorf("given has %d parts, want %d", got, want)
	}

	if got := fhir.FindIdentifier(r.Identifier, fhir.SystemCPF); got != "39053344705" {
		t.Errorf("cpf identifier = %q", got)
	}
	if got := fhir.FindIdentifier(r.Identifier, fhir.SystemCNS); got != "700000000000001" {
		t.Errorf("cns identifier = %q", got)
	}
	if len(r.Telecom) != 2 {
		t.Errorf("telecom = %+v, want phone and email", r.Telecom)
	}
}

func TestPatientRoundTrip(t *testing.T) {
	birth := time.Date(1970, 12, 1, 0, 0, 0, 0, time.UTC)
	orig := &Patient{
		ID:        uuid.New(),
		FullName:  "João Pereira",
		CPF:       strp("52998224725"),
		Gender:    fhir.GenderMale,
		BirthDate: &birth,
		Phone:     strp("+55 21 99876-5432"),
		Version:   1,
		UpdatedAt: time.Now().UTC(),
	}

	back := PatientFromFHIR(orig.ToFHIR())

	if back.FullName != orig.FullName {
		t.Errorf("full name = %q, want %q", back.FullName, orig.FullName)
	}
	if back.Gender != orig.Gender {
		t.Errorf("gender = %q, want %q", back.Gender, orig.Gender)
	}
	if back.CPF == nil || *back.CPF != *orig.CPF {
		t.Errorf("cpf = %v, want %v", back.CPF, orig.CPF)
	}
	if back.BirthDate == nil || !back.BirthDate.Equal(birth) {
		t.Errorf("birth date = %v, want %v", back.BirthDate, birth)
	}
	if back.Phone == nil || *back.Phone != *orig.Phone {
		t.Errorf("phone = %v, want %v", back.Phone, orig.Phone)
	}
}

func TestPatientFromFHIRNormalizesIdentifiers(t *testing.T) {
	res := &PatientResource{
		ResourceType: "Patient",
		Name:         []fhir.HumanName{{Given: []string{"Ana"}, Family: "Lima"}},
		Identifier: []fhir.Identifier{
			{System: fhir.SystemCPF, Value: "390.533.447-05"},
		},
		Gender: "other",
	}

	p := PatientFromFHIR(res)

	if p.CPF == nil || *p.CPF != "39053344705" {
		t.Errorf("cpf = %v, want digits only", p.CPF)
	}
	if p.FullName != "Ana Lima" {
		t.Errorf("full name = %q, want Ana Lima", p.FullName)
	}
	if p.Gender != fhir.GenderOther {
		t.Errorf("gender = %q, want %q", p.Gender, fhir.GenderOther)
	}
}

func TestDoctorToFHIR(t *testing.T) {
	d := &Doctor{
		ID:        uuid.New(),
		FullName:  "Carlos Eduardo Mota",
		CRM:       strp("123456"),
		Specialty: strp("Cardiologia"),
		Gender:    fhir.GenderMale,
		Version:   2,
		UpdatedAt: time.Now().UTC(),
	}

	r := d.ToFHIR()

	if r.ResourceType != "Practitioner" {
		t.Fatalf("resourceType = %q", r.ResourceType)
	}
	if got := fhir.FindIdentifier(r.Identifier, fhir.SystemCRM); got != "123456" {
		t.Errorf("crm identifier = %q", got)
	}
	if len(r.Qualification) != 1 || r.Qualification[0].Code.Text != "Cardiologia" {
		t.Errorf("qualification = %+v", r.Qualification)
	}

	back := DoctorFromFHIR(r)
	if back.Specialty == nil || *back.Specialty != "Cardiologia" {
		t.Errorf("specialty round trip = %v", back.Specialty)
	}
	if back.CRM == nil || *back.CRM != "123456" {
		t.Errorf("crm round trip = %v", back.CRM)
	}
}
