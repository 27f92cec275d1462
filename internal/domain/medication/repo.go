package medication

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PrescriptionRepository persists Prescription records together with their
// line items. Missing or soft-deleted rows are reported as fhir.ErrNotFound.
type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Prescription, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time) ([]*Prescription, error)
}
