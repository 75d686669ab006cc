package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantAdmin = "tenant_admin"
	RoleOfficer     = "officer"
	RoleApplicant   = "applicant"
)

// User account statuses
const (
	UserStatusActive              = "active"
	UserStatusInactive            = "inactive"
	UserStatusSuspended           = "suspended"
	UserStatusLocked              = "locked"
	UserStatusPendingVerification = "pending_verification"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     *uuid.UUID `json:"tenant_id" db:"tenant_id"` // nil only for super admins
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize in JSON
	FullName     string     `json:"full_name" db:"full_name"`
	Phone        *string    `json:"phone" db:"phone"`
	Role         string     `json:"role" db:"role"`
	Status       string     `json:"status" db:"status"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// IsReviewer reports whether the user's role can process license reviews.
func (u *User) IsReviewer() bool {
	return u.Role == RoleSuperAdmin || u.Role == RoleTenantAdmin || u.Role == RoleOfficer
}
