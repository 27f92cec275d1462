// Package identity manages patients and doctors and their FHIR
// projections (Patient and Practitioner).
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a person receiving care at a clinic.
type Patient struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	FullName          string     `db:"full_name" json:"full_name"`
	CPF               *string    `db:"cpf" json:"cpf,omitempty"`
	CNS               *string    `db:"cns" json:"cns,omitempty"`
	Gender            string     `db:"gender" json:"gender"`
	BirthDate         *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Phone             *string    `db:"phone" json:"phone,omitempty"`
	Email             *string    `db:"email" json:"email,omitempty"`
	AddressLine       *string    `db:"address_line" json:"address_line,omitempty"`
	AddressCity       *string    `db:"address_city" json:"address_city,omitempty"`
	AddressState      *string    `db:"address_state" json:"address_state,omitempty"`
	AddressPostalCode *string    `db:"address_postal_code" json:"address_postal_code,omitempty"`
	Version           int        `db:"version_id" json:"version_id"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt         *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Doctor is a licensed practitioner attached to the clinic.
type Doctor struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	FullName  string     `db:"full_name" json:"full_name"`
	CRM       *string    `db:"crm" json:"crm,omitempty"`
	Specialty *string    `db:"specialty" json:"specialty,omitempty"`
	Gender    string     `db:"gender" json:"gender"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Version   int        `db:"version_id" json:"version_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
