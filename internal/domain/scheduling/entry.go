package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinicore/interop/internal/platform/fhir"
)

// EntryHandler adapts the appointment service to Bundle entry processing.
// Only create is registered for Appointment.
type EntryHandler struct {
	svc *Service
}

func NewEntryHandler(svc *Service) *EntryHandler {
	return &EntryHandler{svc: svc}
}

func (h *EntryHandler) CreateEntry(ctx context.Context, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res AppointmentResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed Appointment resource: %v", fhir.ErrInvalid, err)
	}
	a := AppointmentFromFHIR(&res)
	if err := h.svc.CreateAppointment(ctx, a); err != nil {
		return nil, err
	}
	return appointmentResult(a, true), nil
}

func (h *EntryHandler) ReadEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	a, err := h.svc.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return appointmentResult(a, false), nil
}

func (h *EntryHandler) UpdateEntry(ctx context.Context, id string, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res AppointmentResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed Appointment resource: %v", fhir.ErrInvalid, err)
	}
	a, err := h.svc.UpdateAppointment(ctx, id, AppointmentFromFHIR(&res), 0)
	if err != nil {
		return nil, err
	}
	return appointmentResult(a, false), nil
}

func (h *EntryHandler) DeleteEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	if err := h.svc.DeleteAppointment(ctx, id); err != nil {
		return nil, err
	}
	return &fhir.EntryResult{
		ResourceType: "Appointment",
		ID:           id,
		LastModified: time.Now().UTC(),
	}, nil
}

func appointmentResult(a *Appointment, created bool) *fhir.EntryResult {
	return &fhir.EntryResult{
		Resource:     a.ToFHIR(),
		ResourceType: "Appointment",
		ID:           a.ID.String(),
		Version:      a.Version,
		LastModified: a.UpdatedAt,
		Created:      created,
	}
}

// EverythingFetcher exposes the patient's appointments to the $everything
// fan-out.
func (s *Service) EverythingFetcher() fhir.RelatedFetcher {
	return func(ctx context.Context, patientID string, window fhir.DateWindow) ([]interface{}, error) {
		items, err := s.ListByPatient(ctx, patientID, window.Start, window.End)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, len(items))
		for i, a := range items {
			out[i] = a.ToFHIR()
		}
		return out, nil
	}
}
