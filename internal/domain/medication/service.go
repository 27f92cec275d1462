package medication

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/audit"
	"github.com/clinicore/interop/internal/platform/fhir"
)

// Service holds the business rules for prescriptions.
type Service struct {
	prescriptions PrescriptionRepository
	auditor       audit.Recorder
}

func NewService(prescriptions PrescriptionRepository, auditor audit.Recorder) *Service {
	return &Service{prescriptions: prescriptions, auditor: auditor}
}

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("%w: MedicationRequest.subject is required", fhir.ErrInvalid)
	}
	if len(p.Items) == 0 || p.Items[0].MedicationName == "" {
		return fmt.Errorf("%w: MedicationRequest.medication is required", fhir.ErrInvalid)
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.PrescribedAt.IsZero() {
		p.PrescribedAt = time.Now().UTC()
	}
	if err := s.prescriptions.Create(ctx, p); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "create", ResourceType: "MedicationRequest", ResourceID: p.ID.String(), New: p})
	return nil
}

func (s *Service) GetPrescription(ctx context.Context, id string) (*Prescription, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.prescriptions.GetByID(ctx, uid)
}

func (s *Service) UpdatePrescription(ctx context.Context, id string, incoming *Prescription, expectedVersion int) (*Prescription, error) {
	existing, err := s.GetPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && existing.Version != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, current is %d", fhir.ErrConflict, expectedVersion, existing.Version)
	}
	if incoming.PatientID == uuid.Nil {
		incoming.PatientID = existing.PatientID
	}
	if len(incoming.Items) == 0 {
		incoming.Items = existing.Items
		for i := range incoming.Items {
			incoming.Items[i].ID = uuid.Nil
		}
	}
	if incoming.PrescribedAt.IsZero() {
		incoming.PrescribedAt = existing.PrescribedAt
	}
	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt
	if err := s.prescriptions.Update(ctx, incoming); err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "update", ResourceType: "MedicationRequest", ResourceID: id, Old: existing, New: incoming})
	return incoming, nil
}

func (s *Service) DeletePrescription(ctx context.Context, id string) error {
	existing, err := s.GetPrescription(ctx, id)
	if err != nil {
		return err
	}
	if err := s.prescriptions.Delete(ctx, existing.ID); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "delete", ResourceType: "MedicationRequest", ResourceID: id, Old: existing})
	return nil
}

func (s *Service) SearchPrescriptions(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.Search(ctx, params, sort, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, from, to *time.Time) ([]*Prescription, error) {
	uid, err := uuid.Parse(patientID)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.prescriptions.ListByPatient(ctx, uid, from, to)
}
