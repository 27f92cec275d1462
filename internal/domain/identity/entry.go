package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinicore/interop/internal/platform/fhir"
)

// PatientEntryHandler adapts the service to Bundle entry processing.
type PatientEntryHandler struct {
	svc *Service
}

func NewPatientEntryHandler(svc *Service) *PatientEntryHandler {
	return &PatientEntryHandler{svc: svc}
}

func (h *PatientEntryHandler) CreateEntry(ctx context.Context, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res PatientResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed Patient resource: %v", fhir.ErrInvalid, err)
	}
	p := PatientFromFHIR(&res)
	if err := h.svc.CreatePatient(ctx, p); err != nil {
		return nil, err
	}
	return patientResult(p, true), nil
}

func (h *PatientEntryHandler) ReadEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	p, err := h.svc.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	return patientResult(p, false), nil
}

func (h *PatientEntryHandler) UpdateEntry(ctx context.Context, id string, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res PatientResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed Patient resource: %v", fhir.ErrInvalid, err)
	}
	p, err := h.svc.UpdatePatient(ctx, id, PatientFromFHIR(&res), 0)
	if err != nil {
		return nil, err
	}
	return patientResult(p, false), nil
}

func (h *PatientEntryHandler) DeleteEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	if err := h.svc.DeletePatient(ctx, id); err != nil {
		return nil, err
	}
	return &fhir.EntryResult{
		ResourceType: "Patient",
		ID:           id,
		LastModified: time.Now().UTC(),
	}, nil
}

func patientResult(p *Patient, created bool) *fhir.EntryResult {
	return &fhir.EntryResult{
		Resource:     p.ToFHIR(),
		ResourceType: "Patient",
		ID:           p.ID.String(),
		Version:      p.Version,
		LastModified: p.UpdatedAt,
		Created:      created,
	}
}

// PractitionerEntryHandler adapts the service to Bundle entry processing.
// Only create and read are registered for Practitioner.
type PractitionerEntryHandler struct {
	svc *Service
}

func NewPractitionerEntryHandler(svc *Service) *PractitionerEntryHandler {
	return &PractitionerEntryHandler{svc: svc}
}

func (h *PractitionerEntryHandler) CreateEntry(ctx context.Context, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res PractitionerResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed Practitioner resource: %v", fhir.ErrInvalid, err)
	}
	d := DoctorFromFHIR(&res)
	if err := h.svc.CreateDoctor(ctx, d); err != nil {
		return nil, err
	}
	return practitionerResult(d, true), nil
}

func (h *PractitionerEntryHandler) ReadEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	d, err := h.svc.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	return practitionerResult(d, false), nil
}

func (h *PractitionerEntryHandler) UpdateEntry(ctx context.Context, id string, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res PractitionerResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed Practitioner resource: %v", fhir.ErrInvalid, err)
	}
	d, err := h.svc.UpdateDoctor(ctx, id, DoctorFromFHIR(&res), 0)
	if err != nil {
		return nil, err
	}
	return practitionerResult(d, false), nil
}

func (h *PractitionerEntryHandler) DeleteEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	if err := h.svc.DeleteDoctor(ctx, id); err != nil {
		return nil, err
	}
	return &fhir.EntryResult{
		ResourceType: "Practitioner",
		ID:           id,
		LastModified: time.Now().UTC(),
	}, nil
}

func practitionerResult(d *Doctor, created bool) *fhir.EntryResult {
	return &fhir.EntryResult{
		Resource:     d.ToFHIR(),
		ResourceType: "Practitioner",
		ID:           d.ID.String(),
		Version:      d.Version,
		LastModified: d.UpdatedAt,
		Created:      created,
	}
}

// EverythingPatientFetcher resolves the subject of a $everything request
// as a converted Patient resource.
func (s *Service) EverythingPatientFetcher() fhir.PatientFetcher {
	return func(ctx context.Context, id string) (interface{}, error) {
		p, err := s.GetPatient(ctx, id)
		if err != nil {
			return nil, err
		}
		return p.ToFHIR(), nil
	}
}
