// Package medication manages prescriptions and their FHIR MedicationRequest
// projection. A prescription with several line items still maps to a single
// MedicationRequest; the mapping is lossy by design.
package medication

import (
	"time"

	"github.com/google/uuid"
)

// Prescription statuses in the internal vocabulary.
const (
	StatusDraft     = "DRAFT"
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// Prescription is an order for one or more medications.
type Prescription struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	PatientID    uuid.UUID          `db:"patient_id" json:"patient_id"`
	DoctorID     *uuid.UUID         `db:"doctor_id" json:"doctor_id,omitempty"`
	Status       string             `db:"status" json:"status"`
	PrescribedAt time.Time          `db:"prescribed_at" json:"prescribed_at"`
	Notes        *string            `db:"notes" json:"notes,omitempty"`
	Items        []PrescriptionItem `json:"items"`
	Version      int                `db:"version_id" json:"version_id"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time         `db:"deleted_at" json:"deleted_at,omitempty"`
}

// PrescriptionItem is one medication line on a prescription.
type PrescriptionItem struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	Position       int       `db:"position" json:"position"`
	MedicationName string    `db:"medication_name" json:"medication_name"`
	DosageText     string    `db:"dosage_text" json:"dosage_text,omitempty"`
	Instructions   *string   `db:"instructions" json:"instructions,omitempty"`
}
