package clinical

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clinicore/interop/internal/platform/fhir"
)

// ObservationEntryHandler adapts the lab result service to Bundle entry
// processing. Only create is registered for Observation.
type ObservationEntryHandler struct {
	svc *Service
}

func NewObservationEntryHandler(svc *Service) *ObservationEntryHandler {
	return &ObservationEntryHandler{svc: svc}
}

func (h *ObservationEntryHandler) CreateEntry(ctx context.Context, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res ObservationResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed Observation resource: %v", fhir.ErrInvalid, err)
	}
	lr := LabResultFromFHIR(&res)
	if err := h.svc.CreateLabResult(ctx, lr); err != nil {
		return nil, err
	}
	return &fhir.EntryResult{
		Resource:     lr.ToFHIR(),
		ResourceType: "Observation",
		ID:           lr.ID.String(),
		Version:      lr.Version,
		LastModified: lr.UpdatedAt,
		Created:      true,
	}, nil
}

func (h *ObservationEntryHandler) ReadEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	lr, err := h.svc.GetLabResult(ctx, id)
	if err != nil {
		return nil, err
	}
	return &fhir.EntryResult{
		Resource:     lr.ToFHIR(),
		ResourceType: "Observation",
		ID:           lr.ID.String(),
		Version:      lr.Version,
		LastModified: lr.UpdatedAt,
	}, nil
}

func (h *ObservationEntryHandler) UpdateEntry(ctx context.Context, id string, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res ObservationResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed Observation resource: %v", fhir.ErrInvalid, err)
	}
	lr, err := h.svc.UpdateLabResult(ctx, id, LabResultFromFHIR(&res), 0)
	if err != nil {
		return nil, err
	}
	return &fhir.EntryResult{
		Resource:     lr.ToFHIR(),
		ResourceType: "Observation",
		ID:           lr.ID.String(),
		Version:      lr.Version,
		LastModified: lr.UpdatedAt,
	}, nil
}

func (h *ObservationEntryHandler) DeleteEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	return nil, fmt.Errorf("%w: delete is not supported for Observation entries", fhir.ErrInvalid)
}

// ObservationEverythingFetcher exposes the patient's lab results to the
// $everything fan-out.
func (s *Service) ObservationEverythingFetcher() fhir.RelatedFetcher {
	return func(ctx context.Context, patientID string, window fhir.DateWindow) ([]interface{}, error) {
		items, err := s.ListLabResultsByPatient(ctx, patientID, window.Start, window.End)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(items))
		for i, lr := range items {
			out[i] = lr.ToFHIR()
		}
		return out, nil
	}
}

// ConditionEverythingFetcher exposes the patient's diagnoses to the
// $everything fan-out.
func (s *Service) ConditionEverythingFetcher() fhir.RelatedFetcher {
	return func(ctx context.Context, patientID string, window fhir.DateWindow) ([]interface{}, error) {
		items, err := s.ListDiagnosesByPatient(ctx, patientID, window.Start, window.End)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(items))
		for i, d := range items {
			out[i] = d.ToFHIR()
		}
		return out, nil
	}
}
