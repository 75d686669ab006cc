package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationTypeEmail = "email"
	NotificationTypeInApp = "in_app"
)

// Notification statuses
const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// Notification is one persisted outbound message. Delivery is best-effort;
// failed rows are retried by the background scheduler.
type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	UserID    *uuid.UUID `json:"user_id" db:"user_id"`
	Type      string     `json:"type" db:"type"`
	Recipient string     `json:"recipient" db:"recipient"`
	Subject   string     `json:"subject" db:"subject"`
	Content   string     `json:"content" db:"content"`
	Status    string     `json:"status" db:"status"`
	ReadAt    *time.Time `json:"read_at" db:"read_at"`
	Metadata  JSONB      `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
