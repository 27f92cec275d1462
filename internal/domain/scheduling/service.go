package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/interop/internal/platform/audit"
	"github.com/clinicore/interop/internal/platform/fhir"
)

// Service holds the business rules for appointments.
type Service struct {
	appointments AppointmentRepository
	auditor      audit.Recorder
}

func NewService(appointments AppointmentRepository, auditor audit.Recorder) *Service {
	return &Service{appointments: appointments, auditor: auditor}
}

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("%w: Appointment requires a Patient participant", fhir.ErrInvalid)
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("%w: Appointment requires a Practitioner participant", fhir.ErrInvalid)
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("%w: Appointment.start is required", fhir.ErrInvalid)
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "create", ResourceType: "Appointment", ResourceID: a.ID.String(), New: a})
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.appointments.GetByID(ctx, uid)
}

func (s *Service) UpdateAppointment(ctx context.Context, id string, incoming *Appointment, expectedVersion int) (*Appointment, error) {
	existing, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && existing.Version != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, current is %d", fhir.ErrConflict, expectedVersion, existing.Version)
	}
	if incoming.PatientID == uuid.Nil {
		incoming.PatientID = existing.PatientID
	}
	if incoming.DoctorID == uuid.Nil {
		incoming.DoctorID = existing.DoctorID
	}
	if incoming.ScheduledAt.IsZero() {
		incoming.ScheduledAt = existing.ScheduledAt
	}
	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt
	if err := s.appointments.Update(ctx, incoming); err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "update", ResourceType: "Appointment", ResourceID: id, Old: existing, New: incoming})
	return incoming, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id string) error {
	existing, err := s.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.appointments.Delete(ctx, existing.ID); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{Action: "delete", ResourceType: "Appointment", ResourceID: id, Old: existing})
	return nil
}

func (s *Service) SearchAppointments(ctx context.Context, params map[string]string, sort string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.Search(ctx, params, sort, limit, offset)
}

// ListByPatient returns the patient's appointments inside an optional window,
// used by the Patient $everything fan-out.
func (s *Service) ListByPatient(ctx context.Context, patientID string, from, to *time.Time) ([]*Appointment, error) {
	uid, err := uuid.Parse(patientID)
	if err != nil {
		return nil, fhir.ErrNotFound
	}
	return s.appointments.ListByPatient(ctx, uid, from, to)
}
