package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant statuses
const (
	TenantStatusActive    = "active"
	TenantStatusInactive  = "inactive"
	TenantStatusSuspended = "suspended"
)

// Tenant types
const (
	TenantTypeKota      = "kota"
	TenantTypeKabupaten = "kabupaten"
	TenantTypeProvinsi  = "provinsi"
)

// Tenant is a government licensing authority instance (a city or regency
// office). Users and licenses always belong to exactly one tenant.
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	Type      string    `json:"type" db:"type"`
	Region    string    `json:"region" db:"region"`
	Address   *string   `json:"address" db:"address"`
	Phone     *string   `json:"phone" db:"phone"`
	Email     *string   `json:"email" db:"email"`
	Status    string    `json:"status" db:"status"`
	Settings  JSONB     `json:"settings,omitempty" db:"settings"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
