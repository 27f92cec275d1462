package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinicore/interop/internal/platform/fhir"
)

// EntryHandler adapts the clinic service to Bundle entry processing. Only
// create is registered for Organization.
type EntryHandler struct {
	svc *Service
}

func NewEntryHandler(svc *Service) *EntryHandler {
	return &EntryHandler{svc: svc}
}

func (h *EntryHandler) CreateEntry(ctx context.Context, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res OrganizationResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed Organization resource: %v", fhir.ErrInvalid, err)
	}
	clinic := ClinicFromFHIR(&res)
	if err := h.svc.CreateClinic(ctx, clinic); err != nil {
		return nil, err
	}
	return clinicResult(clinic, true), nil
}

func (h *EntryHandler) ReadEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	clinic, err := h.svc.GetClinic(ctx, id)
	if err != nil {
		return nil, err
	}
	return clinicResult(clinic, false), nil
}

func (h *EntryHandler) UpdateEntry(ctx context.Context, id string, raw json.RawMessage) (*fhir.EntryResult, error) {
	var res OrganizationResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: malformed Organization resource: %v", fhir.ErrInvalid, err)
	}
	clinic, err := h.svc.UpdateClinic(ctx, id, ClinicFromFHIR(&res), 0)
	if err != nil {
		return nil, err
	}
	return clinicResult(clinic, false), nil
}

func (h *EntryHandler) DeleteEntry(ctx context.Context, id string) (*fhir.EntryResult, error) {
	if err := h.svc.DeleteClinic(ctx, id); err != nil {
		return nil, err
	}
	return &fhir.EntryResult{
		ResourceType: "Organization",
		ID:           id,
		LastModified: time.Now().UTC(),
	}, nil
}

func clinicResult(c *Clinic, created bool) *fhir.EntryResult {
	return &fhir.EntryResult{
		Resource:     c.ToFHIR(),
		ResourceType: "Organization",
		ID:           c.ID.String(),
		Version:      c.Version,
		LastModified: c.UpdatedAt,
		Created:      created,
	}
}
