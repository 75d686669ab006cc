package models

import (
	"time"

	"github.com/google/uuid"
)

// LicenseType statuses
const (
	LicenseTypeStatusActive   = "active"
	LicenseTypeStatusInactive = "inactive"
)

// LicenseType is a catalog entry describing a kind of permit (e.g. SIUP).
// RequiredDocuments, FormFields and Workflow are descriptive metadata used
// by clients to render forms; the lifecycle engine never consults them.
type LicenseType struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Name              string     `json:"name" db:"name"`
	Code              string     `json:"code" db:"code"` // unique, part of the license number
	Category          string     `json:"category" db:"category"`
	Description       *string    `json:"description" db:"description"`
	RequiredDocuments JSONB      `json:"required_documents,omitempty" db:"required_documents"`
	FormFields        JSONB      `json:"form_fields,omitempty" db:"form_fields"`
	Workflow          JSONB      `json:"workflow,omitempty" db:"workflow"`
	ValidityPeriod    int        `json:"validity_period" db:"validity_period"` // days
	Fee               *float64   `json:"fee" db:"fee"`
	Status            string     `json:"status" db:"status"`
	SortOrder         int        `json:"sort_order" db:"sort_order"`
	TenantID          *uuid.UUID `json:"tenant_id" db:"tenant_id"` // nil means available to all tenants
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}
