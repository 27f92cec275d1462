package medication

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/fhir"
)

// MedicationRequestResource is the FHIR R4 MedicationRequest projection of a
// Prescription.
type MedicationRequestResource struct {
	ResourceType              string                `json:"resourceType"`
	ID                        string                `json:"id,omitempty"`
	Meta                      *fhir.Meta            `json:"meta,omitempty"`
	Identifier                []fhir.Identifier     `json:"identifier,omitempty"`
	Status                    string                `json:"status"`
	Intent                    string                `json:"intent"`
	MedicationCodeableConcept *fhir.CodeableConcept `json:"medicationCodeableConcept,omitempty"`
	Subject                   *fhir.Reference       `json:"subject,omitempty"`
	Requester                 *fhir.Reference       `json:"requester,omitempty"`
	AuthoredOn                string                `json:"authoredOn,omitempty"`
	DosageInstruction         []fhir.Dosage         `json:"dosageInstruction,omitempty"`
	Note                      []fhir.Annotation     `json:"note,omitempty"`
}

var statusToFHIR = map[string]string{
	StatusDraft:     "draft",
	StatusActive:    "active",
	StatusCompleted: "completed",
	StatusCancelled: "cancelled",
}

var statusFromFHIR = map[string]string{
	"draft":     StatusDraft,
	"active":    StatusActive,
	"completed": StatusCompleted,
	"cancelled": StatusCancelled,
}

func StatusToFHIR(status string) string {
	if code, ok := statusToFHIR[status]; ok {
		return code
	}
	return "unknown"
}

func StatusFromFHIR(code string) string {
	if status, ok := statusFromFHIR[code]; ok {
		return status
	}
	return StatusDraft
}

// ToFHIR builds the FHIR MedicationRequest view of p. The first item names
// the medication; every item contributes one dosageInstruction.
func (p *Prescription) ToFHIR() *MedicationRequestResource {
	r := &MedicationRequestResource{
		ResourceType: "MedicationRequest",
		ID:           p.ID.String(),
		Meta:         fhir.NewMeta(p.Version, p.UpdatedAt),
		Identifier:   []fhir.Identifier{fhir.SelfIdentifier(p.ID.String())},
		Status:       StatusToFHIR(p.Status),
		Intent:       "order",
		Subject:      &fhir.Reference{Reference: fhir.FormatReference("Patient", p.PatientID.String())},
	}
	if len(p.Items) > 0 {
		r.MedicationCodeableConcept = &fhir.CodeableConcept{Text: p.Items[0].MedicationName}
	}
	if p.DoctorID != nil {
		r.Requester = &fhir.Reference{Reference: fhir.FormatReference("Practitioner", p.DoctorID.String())}
	}
	if !p.PrescribedAt.IsZero() {
		r.AuthoredOn = p.PrescribedAt.UTC().Format(time.RFC3339)
	}
	for i, item := range p.Items {
		d := fhir.Dosage{Sequence: i + 1, Text: item.DosageText}
		if item.Instructions != nil {
			d.PatientInstruction = *item.Instructions
		}
		r.DosageInstruction = append(r.DosageInstruction, d)
	}
	if p.Notes != nil && *p.Notes != "" {
		r.Note = []fhir.Annotation{{Text: *p.Notes}}
	}
	return r
}

// PrescriptionFromFHIR maps an inbound MedicationRequest resource onto the
// internal model. Each dosageInstruction becomes one item; only the first
// item carries the medication name, the rest keep their dosage text only.
func PrescriptionFromFHIR(r *MedicationRequestResource) *Prescription {
	p := &Prescription{Status: StatusFromFHIR(r.Status)}
	if r.Subject != nil {
		if id, err := uuid.Parse(fhir.ReferenceID(r.Subject.Reference)); err == nil {
			p.PatientID = id
		}
	}
	if r.Requester != nil {
		if id, err := uuid.Parse(fhir.ReferenceID(r.Requester.Reference)); err == nil {
			p.DoctorID = &id
		}
	}
	if r.AuthoredOn != "" {
		if t, err := fhir.ParseFlexDate(r.AuthoredOn); err == nil {
			p.PrescribedAt = t
		}
	}
	medication := ""
	if r.MedicationCodeableConcept != nil {
		medication = r.MedicationCodeableConcept.Text
	}
	for i, d := range r.DosageInstruction {
		item := PrescriptionItem{Position: i + 1, DosageText: d.Text}
		if i == 0 {
			item.MedicationName = medication
		}
		if d.PatientInstruction != "" {
			instr := d.PatientInstruction
			item.Instructions = &instr
		}
		p.Items = append(p.Items, item)
	}
	if len(p.Items) == 0 && medication != "" {
		p.Items = []PrescriptionItem{{Position: 1, MedicationName: medication}}
	}
	if len(r.Note) > 0 && r.Note[0].Text != "" {
		note := r.Note[0].Text
		p.Notes = &note
	}
	return p
}
