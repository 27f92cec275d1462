package identity

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository persists Patient records. Implementations report a
// missing or soft-deleted row as fhir.ErrNotFound.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Patient, int, error)
}

// DoctorRepository persists Doctor records.
type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Doctor, int, error)
}
