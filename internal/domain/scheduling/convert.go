package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/fhir"
)

// AppointmentResource is the FHIR R4 Appointment projection.
type AppointmentResource struct {
	ResourceType string                        `json:"resourceType"`
	ID           string                        `json:"id,omitempty"`
	Meta         *fhir.Meta                    `json:"meta,omitempty"`
	Identifier   []fhir.Identifier             `json:"identifier,omitempty"`
	Status       string                        `json:"status"`
	Description  string                        `json:"description,omitempty"`
	Start        string                        `json:"start,omitempty"`
	End          string                        `json:"end,omitempty"`
	Participant  []fhir.AppointmentParticipant `json:"participant,omitempty"`
}

// Status lookup tables between the internal vocabulary and FHIR
// appointmentstatus codes. Unknown values take the conservative default on
// both sides.
var statusToFHIR = map[string]string{
	StatusScheduled:  "pending",
	StatusConfirmed:  "booked",
	StatusInProgress: "arrived",
	StatusCompleted:  "fulfilled",
	StatusCancelled:  "cancelled",
	StatusNoShow:     "noshow",
}

var statusFromFHIR = map[string]string{
	"pending":   StatusScheduled,
	"booked":    StatusConfirmed,
	"arrived":   StatusInProgress,
	"fulfilled": StatusCompleted,
	"cancelled": StatusCancelled,
	"noshow":    StatusNoShow,
}

func StatusToFHIR(status string) string {
	if code, ok := statusToFHIR[status]; ok {
		return code
	}
	return "proposed"
}

func StatusFromFHIR(code string) string {
	if status, ok := statusFromFHIR[code]; ok {
		return status
	}
	return StatusScheduled
}

// ToFHIR builds the FHIR Appointment view of a. Patient and Practitioner
// participants are always present; the Organization participant only when a
// clinic is attached.
func (a *Appointment) ToFHIR() *AppointmentResource {
	r := &AppointmentResource{
		ResourceType: "Appointment",
		ID:           a.ID.String(),
		Meta:         fhir.NewMeta(a.Version, a.UpdatedAt),
		Identifier:   []fhir.Identifier{fhir.SelfIdentifier(a.ID.String())},
		Status:       StatusToFHIR(a.Status),
		Start:        a.ScheduledAt.UTC().Format(time.RFC3339),
		Participant: []fhir.AppointmentParticipant{
			participant("Patient", a.PatientID.String()),
			participant("Practitioner", a.DoctorID.String()),
		},
	}
	if a.Reason != nil && *a.Reason != "" {
		r.Description = *a.Reason
	}
	if a.EndsAt != nil {
		r.End = a.EndsAt.UTC().Format(time.RFC3339)
	}
	if a.ClinicID != nil {
		r.Participant = append(r.Participant, participant("Organization", a.ClinicID.String()))
	}
	return r
}

// AppointmentFromFHIR maps an inbound Appointment resource onto the internal
// model. participant[] is unordered, so the scan takes the first actor of
// each resource type.
func AppointmentFromFHIR(r *AppointmentResource) *Appointment {
	a := &Appointment{Status: StatusFromFHIR(r.Status)}
	if r.Description != "" {
		desc := r.Description
		a.Reason = &desc
	}
	if t, err := fhir.ParseFlexDate(r.Start); err == nil && r.Start != "" {
		a.ScheduledAt = t
	}
	if r.End != "" {
		if t, err := fhir.ParseFlexDate(r.End); err == nil {
			a.EndsAt = &t
		}
	}
	for _, p := range r.Participant {
		if p.Actor == nil {
			continue
		}
		ref := p.Actor.Reference
		id, err := uuid.Parse(fhir.ReferenceID(ref))
		if err != nil {
			continue
		}
		switch {
		case fhir.ReferenceHasType(ref, "Patient") && a.PatientID == uuid.Nil:
			a.PatientID = id
		case fhir.ReferenceHasType(ref, "Practitioner") && a.DoctorID == uuid.Nil:
			a.DoctorID = id
		case fhir.ReferenceHasType(ref, "Organization") && a.ClinicID == nil:
			clinic := id
			a.ClinicID = &clinic
		}
	}
	return a
}

func participant(resourceType, id string) fhir.AppointmentParticipant {
	return fhir.AppointmentParticipant{
		Actor:  &fhir.Reference{Reference: fhir.FormatReference(resourceType, id)},
		Status: "accepted",
	}
}
