package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded file attached to a license application. The file
// body lives in object storage under ObjectKey; this row is the index.
type Document struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	LicenseID   uuid.UUID `json:"license_id" db:"license_id"`
	Name        string    `json:"name" db:"name"`
	ObjectKey   string    `json:"object_key" db:"object_key"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	UploadedBy  uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
