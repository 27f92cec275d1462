// Package clinical manages lab results and diagnoses and their FHIR
// projections (Observation and Condition).
package clinical

import (
	"time"

	"github.com/google/uuid"
)

// Lab result statuses in the internal vocabulary.
const (
	ResultPending   = "PENDING"
	ResultFinal     = "FINAL"
	ResultAmended   = "AMENDED"
	ResultCancelled = "CANCELLED"
)

// Diagnosis statuses in the internal vocabulary.
const (
	DiagnosisActive   = "ACTIVE"
	DiagnosisResolved = "RESOLVED"
)

// LabResult is a single exam result. Value is stored as text; numeric
// values are recognized at conversion time.
type LabResult struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID       *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	ExamName       string     `db:"exam_name" json:"exam_name"`
	Value          string     `db:"value" json:"value"`
	Unit           *string    `db:"unit" json:"unit,omitempty"`
	ReferenceRange *string    `db:"reference_range" json:"reference_range,omitempty"`
	IsCritical     bool       `db:"is_critical" json:"is_critical"`
	Status         string     `db:"status" json:"status"`
	EffectiveAt    time.Time  `db:"effective_at" json:"effective_at"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	Version        int        `db:"version_id" json:"version_id"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Diagnosis is a clinical finding coded in ICD-10.
type Diagnosis struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID    *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	ICDCode     *string    `db:"icd_code" json:"icd_code,omitempty"`
	Description string     `db:"description" json:"description"`
	Status      string     `db:"status" json:"status"`
	RecordedAt  time.Time  `db:"recorded_at" json:"recorded_at"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	Version     int        `db:"version_id" json:"version_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
