package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/audit"
	"github.com/clinicore/interop/internal/platform/fhir"
)

// Service holds the business rules for clinics.
type Service struct {
	clinics ClinicRepository
	auditor audit.Recorder
}

func NewService(clinics ClinicRepository, auditor audit.Recorder) *Service {
	return &Service{clinics: clinics, auditor: auditor}
}

func (s *Service) CreateClinic(ctx context.Context, c *Clinic) error {
	if c.Name == "" {
		return fmt.Errorf("%w: Organization.name is required", fhir.ErrInvalid)
	}
	if err := s.clinics.Create(ctx, c); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "create", ResourceType: "Organization", ResourceID: c.ID.String(), New: c})
	return nil
}

func (s *Service) GetClinic(ctx context.Context, id string) (*Clinic, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.clinics.GetByID(ctx, uid)
}

func (s *Service) UpdateClinic(ctx context.Context, id string, incoming *Clinic, expectedVersion int) (*Clinic, error) {
	existing, err := s.GetClinic(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && existing.Version != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, current is %d", fhir.ErrConflict, expectedVersion, existing.Version)
	}
	if incoming.Name == "" {
		return nil, fmt.Errorf("%w: Organization.name is required", fhir.ErrInvalid)
	}
	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt
	if err := s.clinics.Update(ctx, incoming); err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "update", ResourceType: "Organization", ResourceID: id, Old: existing, New: incoming})
	return incoming, nil
}

func (s *Service) DeleteClinic(ctx context.Context, id string) error {
	existing, err := s.GetClinic(ctx, id)
	if err != nil {
		return err
	}
	if err := s.clinics.Delete(ctx, existing.ID); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "delete", ResourceType: "Organization", ResourceID: id, Old: existing})
	return nil
}

func (s *Service) SearchClinics(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Clinic, int, error) {
	return s.clinics.Search(ctx, params, sort, limit, offset)
}
