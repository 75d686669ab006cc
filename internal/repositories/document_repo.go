package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"perizinan/internal/common"
	"perizinan/internal/models"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *models.Document) error
	// GetByID carries no tenant predicate; callers authorize against the
	// owning license.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByLicense(ctx context.Context, tenantID, licenseID uuid.UUID) ([]*models.Document, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type documentRepo struct {
	db DB
}

func NewDocumentRepository(db DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, document *models.Document) error {
	query := `
		INSERT INTO documents (id, tenant_id, license_id, name, object_key, content_type, size, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query, document.ID, document.TenantID, document.LicenseID,
		document.Name, document.ObjectKey, document.ContentType, document.Size, document.UploadedBy)
	return err
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `
		SELECT id, tenant_id, license_id, name, object_key, content_type, size, uploaded_by, created_at
		FROM documents
		WHERE id = $1
	`
	document := &models.Document{}
	err := r.db.QueryRow(ctx, query, id).Scan(&document.ID, &document.TenantID,
		&document.LicenseID, &document.Name, &document.ObjectKey, &document.ContentType,
		&document.Size, &document.UploadedBy, &document.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return document, nil
}

func (r *documentRepo) ListByLicense(ctx context.Context, tenantID, licenseID uuid.UUID) ([]*models.Document, error) {
	query := `
		SELECT id, tenant_id, license_id, name, object_key, content_type, size, uploaded_by, created_at
		FROM documents
		WHERE tenant_id = $1 AND license_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID, licenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		document := &models.Document{}
		if err := rows.Scan(&document.ID, &document.TenantID, &document.LicenseID,
			&document.Name, &document.ObjectKey, &document.ContentType, &document.Size,
			&document.UploadedBy, &document.CreatedAt); err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}
	return documents, rows.Err()
}

func (r *documentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM documents WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return err
}
