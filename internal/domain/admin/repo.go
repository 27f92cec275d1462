package admin

import (
	"context"

	"github.com/google/uuid"
)

// ClinicRepository persists Clinic records. Missing or soft-deleted rows are
// reported as fhir.ErrNotFound.
type ClinicRepository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	Update(ctx context.Context, c *Clinic) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Clinic, int, error)
}
