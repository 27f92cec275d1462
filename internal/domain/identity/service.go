package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/audit"
	"github.com/clinicore/interop/internal/platform/fhir"
)

// Service holds the business rules for patients and doctors.
type Service struct {
	patients PatientRepository
	doctors  DoctorRepository
	auditor  audit.Recorder
}

func NewService(patients PatientRepository, doctors DoctorRepository, auditor audit.Recorder) *Service {
	return &Service{patients: patients, doctors: doctors, auditor: auditor}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FullName == "" {
		return fmt.Errorf("%w: Patient.name is required", fhir.ErrInvalid)
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "create", ResourceType: "Patient", ResourceID: p.ID.String(), New: p})
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.patients.GetByID(ctx, uid)
}

// UpdatePatient replaces the stored record. A non-zero expectedVersion that
// does not match the current version is a conflict.
func (s *Service) UpdatePatient(ctx context.Context, id string, incoming *Patient, expectedVersion int) (*Patient, error) {
	existing, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && existing.Version != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, current is %d", fhir.ErrConflict, expectedVersion, existing.Version)
	}
	if incoming.FullName == "" {
		return nil, fmt.Errorf("%w: Patient.name is required", fhir.ErrInvalid)
	}
	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt
	if err := s.patients.Update(ctx, incoming); err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "update", ResourceType: "Patient", ResourceID: id, Old: existing, New: incoming})
	return incoming, nil
}

func (s *Service) DeletePatient(ctx context.Context, id string) error {
	existing, err := s.GetPatient(ctx, id)
	if err != nil {
		return err
	}
	if err := s.patients.Delete(ctx, existing.ID); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "delete", ResourceType: "Patient", ResourceID: id, Old: existing})
	return nil
}

func (s *Service) SearchPatients(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.Search(ctx, params, sort, limit, offset)
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.FullName == "" {
		return fmt.Errorf("%w: Practitioner.name is required", fhir.ErrInvalid)
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "create", ResourceType: "Practitioner", ResourceID: d.ID.String(), New: d})
	return nil
}

func (s *Service) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.doctors.GetByID(ctx, uid)
}

func (s *Service) UpdateDoctor(ctx context.Context, id string, incoming *Doctor, expectedVersion int) (*Doctor, error) {
	existing, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && existing.Version != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, current is %d", fhir.ErrConflict, expectedVersion, existing.Version)
	}
	if incoming.FullName == "" {
		return nil, fmt.Errorf("%w: Practitioner.name is required", fhir.ErrInvalid)
	}
	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt
	if err := s.doctors.Update(ctx, incoming); err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "update", ResourceType: "Practitioner", ResourceID: id, Old: existing, New: incoming})
	return incoming, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id string) error {
	existing, err := s.GetDoctor(ctx, id)
	if err != nil {
		return err
	}
	if err := s.doctors.Delete(ctx, existing.ID); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "delete", ResourceType: "Practitioner", ResourceID: id, Old: existing})
	return nil
}

func (s *Service) SearchDoctors(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.Search(ctx, params, sort, limit, offset)
}
