package models

import (
	"time"

	"github.com/google/uuid"
)

// License statuses. Status only ever changes through an accepted lifecycle
// transition (see internal/lifecycle).
const (
	StatusDraft            = "draft"
	StatusSubmitted        = "submitted"
	StatusInReview         = "in_review"
	StatusRequiresRevision = "requires_revision"
	StatusApproved         = "approved"
	StatusRejected         = "rejected"
	StatusExpired          = "expired"
	StatusRevoked          = "revoked"
)

// License is a single permit application. TenantID never changes after
// creation and LicenseNumber is globally unique. Version backs the
// optimistic lock on status updates.
type License struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	LicenseNumber       string     `json:"license_number" db:"license_number"`
	BusinessName        string     `json:"business_name" db:"business_name"`
	BusinessAddress     string     `json:"business_address" db:"business_address"`
	BusinessType        string     `json:"business_type" db:"business_type"`
	BusinessDescription *string    `json:"business_description" db:"business_description"`
	Status              string     `json:"status" db:"status"`
	BusinessData        JSONB      `json:"business_data,omitempty" db:"business_data"`
	Requirements        JSONB      `json:"requirements,omitempty" db:"requirements"`
	Notes               *string    `json:"notes" db:"notes"`
	ReviewerNotes       *string    `json:"reviewer_notes" db:"reviewer_notes"`
	RejectionReason     *string    `json:"rejection_reason" db:"rejection_reason"`
	ApplicationDate     *time.Time `json:"application_date" db:"application_date"`
	ApprovalDate        *time.Time `json:"approval_date" db:"approval_date"`
	ValidFrom           *time.Time `json:"valid_from" db:"valid_from"`
	ValidUntil          *time.Time `json:"valid_until" db:"valid_until"`
	TenantID            uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	ApplicantID         uuid.UUID  `json:"applicant_id" db:"applicant_id"`
	LicenseTypeID       uuid.UUID  `json:"license_type_id" db:"license_type_id"`
	ReviewerID          *uuid.UUID `json:"reviewer_id" db:"reviewer_id"`
	Version             int        `json:"version" db:"version"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// IsTerminal reports whether the license has reached a final status.
// Revocation of an approved license is still a valid transition; terminal
// here means "content can no longer be edited".
func (l *License) IsTerminal() bool {
	switch l.Status {
	case StatusApproved, StatusRejected, StatusExpired, StatusRevoked:
		return true
	}
	return false
}

// LicenseSearchFilter holds search and filter criteria for license queries.
type LicenseSearchFilter struct {
	Query         string     `json:"query,omitempty"` // matches business name, license number
	Status        *string    `json:"status,omitempty"`
	LicenseTypeID *uuid.UUID `json:"license_type_id,omitempty"`
	ApplicantID   *uuid.UUID `json:"applicant_id,omitempty"`
	SortBy        string     `json:"sort_by,omitempty"`    // created_at, business_name, status
	SortOrder     string     `json:"sort_order,omitempty"` // asc, desc
	Limit         int        `json:"limit,omitempty"`
	Offset        int        `json:"offset,omitempty"`
}
