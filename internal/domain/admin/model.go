// Package admin manages clinics and their FHIR Organization projection.
package admin

import (
	"time"

	"github.com/google/uuid"
)

// Clinic is a care site operated on the platform.
type Clinic struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	CNPJ              *string    `db:"cnpj" json:"cnpj,omitempty"`
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
