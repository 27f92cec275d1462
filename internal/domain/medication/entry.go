package medication

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clinicore/interop/internal/platform/fhir"
)

// EntryHandler adapts the prescription service to Bundle entry processing.
// MedicationRequest entries are not in the Bundle dispatch table today, but
// the adapter keeps the domain uniform for the $everything fan-out wiring.
type EntryHandler struct {
	svc *Service
}

func NewEntryHandler(svc *Service) *EntryHandler {
	return &EntryHandler{svc: svc}
}

func (h *EntryHandler) CreateEntry(ctx context.Context, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res MedicationRequestResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed MedicationRequest resource: %v", fhir.ErrInvalid, err)
	}
	p := PrescriptionFromFHIR(&res)
	if err := h.svc.CreatePrescription(ctx, p); err != nil {
		return nil, err
	}
	return prescriptionResult(p, true), nil
}

func (h *EntryHandler) ReadEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	p, err := h.svc.GetPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	return prescriptionResult(p, false), nil
}

func (h *EntryHandler) UpdateEntry(ctx context.Context, id string, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res MedicationRequestResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed MedicationRequest resource: %v", fhir.ErrInvalid, err)
	}
	p, err := h.svc.UpdatePrescription(ctx, id, PrescriptionFromFHIR(&res), 0)
	if err != nil {
		return nil, err
	}
	return prescriptionResult(p, false), nil
}

func (h *EntryHandler) DeleteEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	return nil, fmt.Errorf("%w: delete is not supported for MedicationRequest entries", fhir.ErrInvalid)
}

func prescriptionResult(p *Prescription, created bool) *fhir.EntryResult {
	return &fhir.EntryResult{
		Resource:     p.ToFHIR(),
		ResourceType: "MedicationRequest",
		ID:           p.ID.String(),
		Version:      p.Version,
		LastModified: p.UpdatedAt,
		Created:      created,
	}
}

// EverythingFetcher exposes the patient's prescriptions to the $everything
// fan-out.
func (s *Service) EverythingFetcher() fhir.RelatedFetcher {
	return func(ctx context.Context, patientID string, window fhir.DateWindow) ([]interface{}, error) {
		items, err := s.ListByPatient(ctx, patientID, window.Start, window.End)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(items))
		for i, p := range items {
			out[i] = p.ToFHIR()
		}
		return out, nil
	}
}
