package models

import (
	"time"

	"github.com/google/uuid"
)

// Workflow actions. The lifecycle machine accepts the transition subset;
// read/update/delete exist for authorization decisions and the ledger.
const (
	ActionCreate          = "create"
	ActionUpdate          = "update"
	ActionSubmit          = "submit"
	ActionBeginReview     = "begin_review"
	ActionRequestRevision = "request_revision"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionRevoke          = "revoke"
	ActionExpire          = "expire"
	ActionDelete          = "delete"
	ActionRead            = "read"
	ActionReadHistory     = "read_history"
)

// LicenseWorkflow is one immutable audit ledger entry: who did what, when,
// from which status to which status. Entries are created once per accepted
// transition and never updated or deleted.
type LicenseWorkflow struct {
	ID         uuid.UUID `json:"id" db:"id"`
	LicenseID  uuid.UUID `json:"license_id" db:"license_id"`
	Action     string    `json:"action" db:"action"`
	FromStatus string    `json:"from_status" db:"from_status"`
	ToStatus   string    `json:"to_status" db:"to_status"`
	Comment    *string   `json:"comment" db:"comment"`
	Metadata   JSONB     `json:"metadata,omitempty" db:"metadata"`
	ActorID    uuid.UUID `json:"actor_id" db:"actor_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
