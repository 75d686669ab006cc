package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"perizinan/internal/common"
	"perizinan/internal/models"
)

const licenseTypeColumns = `id, name, code, category, description, required_documents, form_fields, workflow, validity_period, fee, status, sort_order, tenant_id, created_at, updated_at`

type LicenseTypeRepository interface {
	Create(ctx context.Context, licenseType *models.LicenseType) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LicenseType, error)
	GetByCode(ctx context.Context, code string) (*models.LicenseType, error)
	Update(ctx context.Context, licenseType *models.LicenseType) error
	// ListForTenant returns active types visible to the tenant: its own
	// plus the global ones (null tenant).
	ListForTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.LicenseType, error)
}

type licenseTypeRepo struct {
	db DB
}

func NewLicenseTypeRepository(db DB) LicenseTypeRepository {
	return &licenseTypeRepo{db: db}
}

func (r *licenseTypeRepo) Create(ctx context.Context, licenseType *models.LicenseType) error {
	requiredDocuments, formFields, workflow, err := r.marshalMeta(licenseType)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO license_types (id, name, code, category, description, required_documents, form_fields, workflow, validity_period, fee, status, sort_order, tenant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, licenseType.ID, licenseType.Name, licenseType.Code,
		licenseType.Category, licenseType.Description, requiredDocuments, formFields, workflow,
		licenseType.ValidityPeriod, licenseType.Fee, licenseType.Status, licenseType.SortOrder,
		licenseType.TenantID)
	return err
}

func (r *licenseTypeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.LicenseType, error) {
	query := `SELECT ` + licenseTypeColumns + ` FROM license_types WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *licenseTypeRepo) GetByCode(ctx context.Context, code string) (*models.LicenseType, error) {
	query := `SELECT ` + licenseTypeColumns + ` FROM license_types WHERE code = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, code))
}

func (r *licenseTypeRepo) Update(ctx context.Context, licenseType *models.LicenseType) error {
	requiredDocuments, formFields, workflow, err := r.marshalMeta(licenseType)
	if err != nil {
		return err
	}
	query := `
		UPDATE license_types
		SET name = $1, category = $2, description = $3, required_documents = $4, form_fields = $5,
		    workflow = $6, validity_period = $7, fee = $8, status = $9, sort_order = $10, updated_at = NOW()
		WHERE id = $11
	`
	_, err = r.db.Exec(ctx, query, licenseType.Name, licenseType.Category, licenseType.Description,
		requiredDocuments, formFields, workflow, licenseType.ValidityPeriod, licenseType.Fee,
		licenseType.Status, licenseType.SortOrder, licenseType.ID)
	return err
}

func (r *licenseTypeRepo) ListForTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.LicenseType, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `
		SELECT ` + licenseTypeColumns + `
		FROM license_types
		WHERE (tenant_id = $1 OR tenant_id IS NULL) AND status = $2
		ORDER BY sort_order ASC, name ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, models.LicenseTypeStatusActive, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var licenseTypes []*models.LicenseType
	for rows.Next() {
		licenseType, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		licenseTypes = append(licenseTypes, licenseType)
	}
	return licenseTypes, rows.Err()
}

func (r *licenseTypeRepo) marshalMeta(licenseType *models.LicenseType) (requiredDocuments, formFields, workflow []byte, err error) {
	if requiredDocuments, err = marshalJSONB(licenseType.RequiredDocuments); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal required_documents: %w", err)
	}
	if formFields, err = marshalJSONB(licenseType.FormFields); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal form_fields: %w", err)
	}
	if workflow, err = marshalJSONB(licenseType.Workflow); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal workflow: %w", err)
	}
	return requiredDocuments, formFields, workflow, nil
}

func (r *licenseTypeRepo) scanOne(row rowScanner) (*models.LicenseType, error) {
	licenseType := &models.LicenseType{}
	var requiredDocuments, formFields, workflow []byte
	err := row.Scan(&licenseType.ID, &licenseType.Name, &licenseType.Code, &licenseType.Category,
		&licenseType.Description, &requiredDocuments, &formFields, &workflow,
		&licenseType.ValidityPeriod, &licenseType.Fee, &licenseType.Status, &licenseType.SortOrder,
		&licenseType.TenantID, &licenseType.CreatedAt, &licenseType.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if len(requiredDocuments) > 0 {
		if err := json.Unmarshal(requiredDocuments, &licenseType.RequiredDocuments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal required_documents: %w", err)
		}
	}
	if len(formFields) > 0 {
		if err := json.Unmarshal(formFields, &licenseType.FormFields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal form_fields: %w", err)
		}
	}
	if len(workflow) > 0 {
		if err := json.Unmarshal(workflow, &licenseType.Workflow); err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
		}
	}
	return licenseType, nil
}
