// Package scheduling manages appointments and their FHIR projection.
package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses in the internal vocabulary.
const (
	StatusScheduled  = "SCHEDULED"
	StatusConfirmed  = "CONFIRMED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
	StatusNoShow     = "NO_SHOW"
)

// Appointment is a scheduled encounter between a patient and a doctor.
type Appointment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ClinicID    *uuid.UUID `db:"clinic_id" json:"clinic_id,omitempty"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	EndsAt      *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	Status      string     `db:"status" json:"status"`
	Reason      *string    `db:"reason" json:"reason,omitempty"`
	Version     int        `db:"version_id" json:"version_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
