package admin

import (
	"github.com/clinicore/interop/internal/platform/fhir"
)

// OrganizationResource is the FHIR R4 Organization projection of a Clinic.
type OrganizationResource struct {
	ResourceType string              `json:"resourceType"`
	ID           string              `json:"id,omitempty"`
	Meta         *fhir.Meta          `json:"meta,omitempty"`
	Identifier   []fhir.Identifier   `json:"identifier,omitempty"`
	Active       *bool               `json:"active,omitempty"`
	Name         string              `json:"name,omitempty"`
	Telecom      []fhir.ContactPoint `json:"telecom,omitempty"`
	Address      []fhir.Address      `json:"address,omitempty"`
}

// ToFHIR builds the FHIR Organization view of c.
func (c *Clinic) ToFHIR() *OrganizationResource {
	active := c.DeletedAt == nil
	r := &OrganizationResource{
		ResourceType: "Organization",
		ID:           c.ID.String(),
		Meta:         fhir.NewMeta(c.Version, c.UpdatedAt),
		Identifier:   []fhir.Identifier{fhir.SelfIdentifier(c.ID.String())},
		Active:       &active,
		Name:         c.Name,
	}
	if c.CNPJ != nil && *c.CNPJ != "" {
		r.Identifier = append(r.Identifier, fhir.NationalIdentifier(fhir.SystemCNPJ, *c.CNPJ))
	}
	if c.Phone != nil && *c.Phone != "" {
		r.Telecom = append(r.Telecom, fhir.ContactPoint{System: "phone", Value: *c.Phone})
	}
	if c.Email != nil && *c.Email != "" {
		r.Telecom = append(r.Telecom, fhir.ContactPoint{System: "email", Value: *c.Email})
	}
	addr := fhir.Address{Use: "work"}
	hasAddr := false
	if c.AddressLine != nil && *c.AddressLine != "" {
		addr.Line = []string{*c.AddressLine}
		hasAddr = true
	}
	if c.AddressCity != nil && *c.AddressCity != "" {
		addr.City = *c.AddressCity
		hasAddr = true
	}
	if c.AddressState != nil && *c.AddressState != "" {
		addr.State = *c.AddressState
		hasAddr = true
	}
	if c.AddressPostalCode != nil && *c.AddressPostalCode != "" {
		addr.PostalCode = *c.AddressPostalCode
		hasAddr = true
	}
	if hasAddr {
		r.Address = []fhir.Address{addr}
	}
	return r
}

// ClinicFromFHIR maps an inbound Organization resource onto the internal
// model. Resource id and meta are ignored.
func ClinicFromFHIR(r *OrganizationResource) *Clinic {
	c := &Clinic{Name: r.Name}
	if cnpj := fhir.FindIdentifier(r.Identifier, fhir.SystemCNPJ); cnpj != "" {
		c.CNPJ = &cnpj
	}
	for _, pt := range r.Telecom {
		if pt.Value == "" {
			continue
		}
		v := pt.Value
		switch pt.System {
		case "phone":
			if c.Phone == nil {
				c.Phone = &v
			}
		case "email":
			if c.Email == nil {
				c.Email = &v
			}
		}
	}
	if len(r.Address) > 0 {
		a := r.Address[0]
		if len(a.Line) > 0 && a.Line[0] != "" {
			line := a.Line[0]
			c.AddressLine = &line
		}
		if a.City != "" {
			city := a.City
			c.AddressCity = &city
		}
		if a.State != "" {
			state := a.State
			c.AddressState = &state
		}
		if a.PostalCode != "" {
			postal := a.PostalCode
			c.AddressPostalCode = &postal
		}
	}
	return c
}
