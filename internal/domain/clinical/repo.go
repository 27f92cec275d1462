package clinical

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LabResultRepository persists LabResult records. Missing or soft-deleted
// rows are reported as fhir.ErrNotFound.
type LabResultRepository interface {
	Create(ctx context.Context, lr *LabResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabResult, error)
	Update(ctx context.Context, lr *LabResult) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*LabResult, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time) ([]*LabResult, error)
}

// DiagnosisRepository persists Diagnosis records.
type DiagnosisRepository interface {
	Create(ctx context.Context, d *Diagnosis) error
	GetByID(ctx context.Context, id uuid.UUID) (*Diagnosis, error)
	Update(ctx context.Context, d *Diagnosis) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Diagnosis, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time) ([]*Diagnosis, error)
}
