package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/audit"
	"github.com/clinicore/interop/internal/platform/fhir"
)

// Service holds the business rules for lab results and diagnoses.
type Service struct {
	results   LabResultRepository
	diagnoses DiagnosisRepository
	auditor   audit.Recorder
}

func NewService(results LabResultRepository, diagnoses DiagnosisRepository, auditor audit.Recorder) *Service {
	return &Service{results: results, diagnoses: diagnoses, auditor: auditor}
}

func (s *Service) CreateLabResult(ctx context.Context, lr *LabResult) error {
	if lr.PatientID == uuid.Nil {
		return fmt.Errorf("%w: Observation.subject is required", fhir.ErrInvalid)
	}
	if lr.ExamName == "" {
		return fmt.Errorf("%w: Observation.code is required", fhir.ErrInvalid)
	}
	if lr.Status == "" {
		lr.Status = ResultPending
	}
	if lr.EffectiveAt.IsZero() {
		lr.EffectiveAt = time.Now().UTC()
	}
	if err := s.results.Create(ctx, lr); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "create", ResourceType: "Observation", ResourceID: lr.ID.String(), New: lr})
	return nil
}

func (s *Service) GetLabResult(ctx context.Context, id string) (*LabResult, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.results.GetByID(ctx, uid)
}

func (s *Service) UpdateLabResult(ctx context.Context, id string, incoming *LabResult, expectedVersion int) (*LabResult, error) {
	existing, err := s.GetLabResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && existing.Version != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, current is %d", fhir.ErrConflict, expectedVersion, existing.Version)
	}
	if incoming.PatientID == uuid.Nil {
		incoming.PatientID = existing.PatientID
	}
	if incoming.ExamName == "" {
		return nil, fmt.Errorf("%w: Observation.code is required", fhir.ErrInvalid)
	}
	if incoming.EffectiveAt.IsZero() {
		incoming.EffectiveAt = existing.EffectiveAt
	}
	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt
	if err := s.results.Update(ctx, incoming); err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "update", ResourceType: "Observation", ResourceID: id, Old: existing, New: incoming})
	return incoming, nil
}

func (s *Service) DeleteLabResult(ctx context.Context, id string) error {
	existing, err := s.GetLabResult(ctx, id)
	if err != nil {
		return err
	}
	if err := s.results.Delete(ctx, existing.ID); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "delete", ResourceType: "Observation", ResourceID: id, Old: existing})
	return nil
}

func (s *Service) SearchLabResults(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*LabResult, int, error) {
	return s.results.Search(ctx, params, sort, limit, offset)
}

func (s *Service) ListLabResultsByPatient(ctx context.Context, patientID string, from, to *time.Time) ([]*LabResult, error) {
	uid, err := uuid.Parse(patientID)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.results.ListByPatient(ctx, uid, from, to)
}

func (s *Service) CreateDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.PatientID == uuid.Nil {
		return fmt.Errorf("%w: Condition.subject is required", fhir.ErrInvalid)
	}
	if d.Description == "" && (d.ICDCode == nil || *d.ICDCode == "") {
		return fmt.Errorf("%w: Condition.code is required", fhir.ErrInvalid)
	}
	if d.Status == "" {
		d.Status = DiagnosisActive
	}
	if d.RecordedAt.IsZero() {
		d.RecordedAt = time.Now().UTC()
	}
	if err := s.diagnoses.Create(ctx, d); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "create", ResourceType: "Condition", ResourceID: d.ID.String(), New: d})
	return nil
}

func (s *Service) GetDiagnosis(ctx context.Context, id string) (*Diagnosis, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.diagnoses.GetByID(ctx, uid)
}

func (s *Service) UpdateDiagnosis(ctx context.Context, id string, incoming *Diagnosis, expectedVersion int) (*Diagnosis, error) {
	existing, err := s.GetDiagnosis(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && existing.Version != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, current is %d", fhir.ErrConflict, expectedVersion, existing.Version)
	}
	if incoming.PatientID == uuid.Nil {
		incoming.PatientID = existing.PatientID
	}
	if incoming.RecordedAt.IsZero() {
		incoming.RecordedAt = existing.RecordedAt
	}
	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt
	if err := s.diagnoses.Update(ctx, incoming); err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "update", ResourceType: "Condition", ResourceID: id, Old: existing, New: incoming})
	return incoming, nil
}

func (s *Service) DeleteDiagnosis(ctx context.Context, id string) error {
	existing, err := s.GetDiagnosis(ctx, id)
	if err != nil {
		return err
	}
	if err := s.diagnoses.Delete(ctx, existing.ID); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "delete", ResourceType: "Condition", ResourceID: id, Old: existing})
	return nil
}

func (s *Service) SearchDiagnoses(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Diagnosis, int, error) {
	return s.diagnoses.Search(ctx, params, sort, limit, offset)
}

func (s *Service) ListDiagnosesByPatient(ctx context.Context, patientID string, from, to *time.Time) ([]*Diagnosis, error) {
	uid, err := uuid.Parse(patientID)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.diagnoses.ListByPatient(ctx, uid, from, to)
}
