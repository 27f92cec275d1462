package identity

import (
	"time"

	"github.com/clinicore/interop/internal/platform/fhir"
)

// PatientResource is the FHIR R4 Patient projection of a Patient record.
type PatientResource struct {
	ResourceType string              `json:"resourceType"`
	ID           string              `json:"id,omitempty"`
	Meta         *fhir.Meta          `json:"meta,omitempty"`
	Identifier   []fhir.Identifier   `json:"identifier,omitempty"`
	Active       *bool               `json:"active,omitempty"`
	Name         []fhir.HumanName    `json:"name,omitempty"`
	Telecom      []fhir.ContactPoint `json:"telecom,omitempty"`
	Gender       string              `json:"gender,omitempty"`
	BirthDate    string              `json:"birthDate,omitempty"`
	Address      []fhir.Address      `json:"address,omitempty"`
}

// PractitionerResource is the FHIR R4 Practitioner projection of a Doctor.
type PractitionerResource struct {
	ResourceType  string                      `json:"resourceType"`
	ID            string                      `json:"id,omitempty"`
	Meta          *fhir.Meta                  `json:"meta,omitempty"`
	Identifier    []fhir.Identifier           `json:"identifier,omitempty"`
	Active        *bool                       `json:"active,omitempty"`
	Name          []fhir.HumanName            `json:"name,omitempty"`
	Telecom       []fhir.ContactPoint         `json:"telecom,omitempty"`
	Gender        string                      `json:"gender,omitempty"`
	Qualification []PractitionerQualification `json:"qualification,omitempty"`
}

// PractitionerQualification carries the doctor's specialty as free text.
type PractitionerQualification struct {
	Code fhir.CodeableConcept `json:"code"`
}

// ToFHIR builds the FHIR Patient view of p.
func (p *Patient) ToFHIR() *PatientResource {
	active := p.DeletedAt == nil
	r := &PatientResource{
		ResourceType: "Patient",
		ID:           p.ID.String(),
		Meta:         fhir.NewMeta(p.Version, p.UpdatedAt),
		Identifier:   []fhir.Identifier{fhir.SelfIdentifier(p.ID.String())},
		Active:       &active,
		Name:         []fhir.HumanName{fhir.NameToFHIR(p.FullName)},
		Gender:       fhir.GenderToFHIR(p.Gender),
	}
	if p.CPF != nil && *p.CPF != "" {
		r.Identifier = append(r.Identifier, fhir.NationalIdentifier(fhir.SystemCPF, *p.CPF))
	}
	if p.CNS != nil && *p.CNS != "" {
		r.Identifier = append(r.Identifier, fhir.NationalIdentifier(fhir.SystemCNS, *p.CNS))
	}
	if p.BirthDate != nil {
		r.BirthDate = p.BirthDate.Format("2006-01-02")
	}
	if p.Phone != nil && *p.Phone != "" {
		r.Telecom = append(r.Telecom, fhir.ContactPoint{System: "phone", Value: *p.Phone})
	}
	if p.Email != nil && *p.Email != "" {
		r.Telecom = append(r.Telecom, fhir.ContactPoint{System: "email", Value: *p.Email})
	}
	if addr := buildAddress(p.AddressLine, p.AddressCity, p.AddressState, p.AddressPostalCode); addr != nil {
		r.Address = []fhir.Address{*addr}
	}
	return r
}

// PatientFromFHIR maps an inbound Patient resource onto the internal model.
// Resource id and meta are ignored; identity comes from the request path or
// is assigned on create.
func PatientFromFHIR(r *PatientResource) *Patient {
	p := &Patient{
		FullName: fhir.NameFromFHIR(r.Name),
		Gender:   fhir.GenderFromFHIR(r.Gender),
	}
	if cpf := fhir.FindIdentifier(r.Identifier, fhir.SystemCPF); cpf != "" {
		p.CPF = &cpf
	}
	if cns := fhir.FindIdentifier(r.Identifier, fhir.SystemCNS); cns != "" {
		p.CNS = &cns
	}
	if r.BirthDate != "" {
		if t, err := time.Parse("2006-01-02", r.BirthDate); err == nil {
			p.BirthDate = &t
		}
	}
	p.Phone = telecomValue(r.Telecom, "phone")
	p.Email = telecomValue(r.Telecom, "email")
	if len(r.Address) > 0 {
		a := r.Address[0]
		if len(a.Line) > 0 {
			p.AddressLine = strPtr(a.Line[0])
		}
		p.AddressCity = strPtr(a.City)
		p.AddressState = strPtr(a.State)
		p.AddressPostalCode = strPtr(a.PostalCode)
	}
	return p
}

// ToFHIR builds the FHIR Practitioner view of d.
func (d *Doctor) ToFHIR() *PractitionerResource {
	active := d.DeletedAt == nil
	r := &PractitionerResource{
		ResourceType: "Practitioner",
		ID:           d.ID.String(),
		Meta:         fhir.NewMeta(d.Version, d.UpdatedAt),
		Identifier:   []fhir.Identifier{fhir.SelfIdentifier(d.ID.String())},
		Active:       &active,
		Name:         []fhir.HumanName{fhir.NameToFHIR(d.FullName)},
		Gender:       fhir.GenderToFHIR(d.Gender),
	}
	if d.CRM != nil && *d.CRM != "" {
		r.Identifier = append(r.Identifier, fhir.NationalIdentifier(fhir.SystemCRM, *d.CRM))
	}
	if d.Phone != nil && *d.Phone != "" {
		r.Telecom = append(r.Telecom, fhir.ContactPoint{System: "phone", Value: *d.Phone})
	}
	if d.Email != nil && *d.Email != "" {
		r.Telecom = append(r.Telecom, fhir.ContactPoint{System: "email", Value: *d.Email})
	}
	if d.Specialty != nil && *d.Specialty != "" {
		r.Qualification = []PractitionerQualification{
			{Code: fhir.CodeableConcept{Text: *d.Specialty}},
		}
	}
	return r
}

// DoctorFromFHIR maps an inbound Practitioner resource onto the internal model.
func DoctorFromFHIR(r *PractitionerResource) *Doctor {
	d := &Doctor{
		FullName: fhir.NameFromFHIR(r.Name),
		Gender:   fhir.GenderFromFHIR(r.Gender),
	}
	if crm := fhir.FindIdentifier(r.Identifier, fhir.SystemCRM); crm != "" {
		d.CRM = &crm
	}
	d.Phone = telecomValue(r.Telecom, "phone")
	d.Email = telecomValue(r.Telecom, "email")
	if len(r.Qualification) > 0 && r.Qualification[0].Code.Text != "" {
		d.Specialty = strPtr(r.Qualification[0].Code.Text)
	}
	return d
}

func telecomValue(points []fhir.ContactPoint, system string) *string {
	for _, pt := range points {
		if pt.System == system && pt.Value != "" {
			v := pt.Value
			return &v
		}
	}
	return nil
}

func buildAddress(line, city, state, postal *string) *fhir.Address {
	a := fhir.Address{}
	empty := true
	if line != nil && *line != "" {
		a.Line = []string{*line}
		empty = false
	}
	if city != nil && *city != "" {
		a.City = *city
		empty = false
	}
	if state != nil && *state != "" {
		a.State = *state
		empty = false
	}
	if postal != nil && *postal != "" {
		a.PostalCode = *postal
		empty = false
	}
	if empty {
		return nil
	}
	a.Use = "home"
	return &a
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
