package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentRepository persists Appointment records. Missing or
// soft-deleted rows are reported as fhir.ErrNotFound.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time) ([]*Appointment, error)
}
