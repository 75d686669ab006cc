package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"perizinan/internal/common"
	"perizinan/internal/models"
)

const licenseColumns = `id, license_number, business_name, business_address, business_type, business_description, status, business_data, requirements, notes, reviewer_notes, rejection_reason, application_date, approval_date, valid_from, valid_until, tenant_id, applicant_id, license_type_id, reviewer_id, version, deleted_at, created_at, updated_at`

type LicenseRepository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, license *models.License) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.License, error)
	// UpdateTx persists all mutable fields under the optimistic lock: the
	// row is matched on (id, version) and the version is bumped. Zero rows
	// affected means a concurrent writer won.
	UpdateTx(ctx context.Context, tx pgx.Tx, license *models.License) error
	SoftDeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, version int) error
	List(ctx context.Context, tenantID *uuid.UUID, filter *models.LicenseSearchFilter) ([]*models.License, int, error)
	ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*models.License, error)
}

type licenseRepo struct {
	db DB
}

func NewLicenseRepository(db DB) LicenseRepository {
	return &licenseRepo{db: db}
}

func (r *licenseRepo) CreateTx(ctx context.Context, tx pgx.Tx, license *models.License) error {
	query := `
		INSERT INTO licenses (` + licenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, NOW(), NOW())
	`
	businessData, err := marshalJSONB(license.BusinessData)
	if err != nil {
		return fmt.Errorf("failed to marshal business_data: %w", err)
	}
	requirements, err := marshalJSONB(license.Requirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	_, err = tx.Exec(ctx, query,
		license.ID, license.LicenseNumber, license.BusinessName, license.BusinessAddress,
		license.BusinessType, license.BusinessDescription, license.Status,
		businessData, requirements, license.Notes, license.ReviewerNotes,
		license.RejectionReason, license.ApplicationDate, license.ApprovalDate,
		license.ValidFrom, license.ValidUntil, license.TenantID, license.ApplicantID,
		license.LicenseTypeID, license.ReviewerID, license.Version, license.DeletedAt,
	)
	return err
}

func (r *licenseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	query := `
		SELECT ` + licenseColumns + `
		FROM licenses
		WHERE id = $1 AND deleted_at IS NULL
	`
	license, err := scanLicense(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return license, nil
}

func (r *licenseRepo) UpdateTx(ctx context.Context, tx pgx.Tx, license *models.License) error {
	query := `
		UPDATE licenses
		SET business_name = $1, business_address = $2, business_type = $3, business_description = $4,
		    status = $5, business_data = $6, requirements = $7, notes = $8, reviewer_notes = $9,
		    rejection_reason = $10, application_date = $11, approval_date = $12, valid_from = $13,
		    valid_until = $14, reviewer_id = $15, version = version + 1, updated_at = NOW()
		WHERE id = $16 AND version = $17 AND deleted_at IS NULL
	`
	businessData, err := marshalJSONB(license.BusinessData)
	if err != nil {
		return fmt.Errorf("failed to marshal business_data: %w", err)
	}
	requirements, err := marshalJSONB(license.Requirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	tag, err := tx.Exec(ctx, query,
		license.BusinessName, license.BusinessAddress, license.BusinessType, license.BusinessDescription,
		license.Status, businessData, requirements, license.Notes, license.ReviewerNotes,
		license.RejectionReason, license.ApplicationDate, license.ApprovalDate, license.ValidFrom,
		license.ValidUntil, license.ReviewerID, license.ID, license.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrConcurrentModification
	}
	license.Version++
	return nil
}

func (r *licenseRepo) SoftDeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, version int) error {
	query := `
		UPDATE licenses
		SET deleted_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL
	`
	tag, err := tx.Exec(ctx, query, id, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrConcurrentModification
	}
	return nil
}

// List returns one page of licenses plus the total match count. A nil
// tenantID means no tenant restriction (super admin).
func (r *licenseRepo) List(ctx context.Context, tenantID *uuid.UUID, filter *models.LicenseSearchFilter) ([]*models.License, int, error) {
	if filter == nil {
		filter = &models.LicenseSearchFilter{}
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.SortBy == "" {
		filter.SortBy = "created_at"
	}
	if filter.SortOrder == "" {
		filter.SortOrder = "desc"
	}

	where := "WHERE deleted_at IS NULL"
	args := []interface{}{}
	argIdx := 0

	if tenantID != nil {
		argIdx++
		where += fmt.Sprintf(" AND tenant_id = $%d", argIdx)
		args = append(args, *tenantID)
	}
	if filter.ApplicantID != nil {
		argIdx++
		where += fmt.Sprintf(" AND applicant_id = $%d", argIdx)
		args = append(args, *filter.ApplicantID)
	}
	if filter.Status != nil {
		argIdx++
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
	}
	if filter.LicenseTypeID != nil {
		argIdx++
		where += fmt.Sprintf(" AND license_type_id = $%d", argIdx)
		args = append(args, *filter.LicenseTypeID)
	}
	if filter.Query != "" {
		argIdx++
		where += fmt.Sprintf(" AND (business_name ILIKE $%d OR license_number ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Query+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM licenses "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	validSortFields := map[string]bool{
		"created_at": true, "updated_at": true, "business_name": true, "status": true, "license_number": true,
	}
	sortField := "created_at"
	if validSortFields[filter.SortBy] {
		sortField = filter.SortBy
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM licenses %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		licenseColumns, where, sortField, sortOrder, argIdx+1, argIdx+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var licenses []*models.License
	for rows.Next() {
		license, err := scanLicense(rows)
		if err != nil {
			return nil, 0, err
		}
		licenses = append(licenses, license)
	}
	return licenses, total, rows.Err()
}

// ListExpired returns approved licenses whose validity window has elapsed,
// across all tenants. Used by the expiry sweep.
func (r *licenseRepo) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*models.License, error) {
	query := `
		SELECT ` + licenseColumns + `
		FROM licenses
		WHERE status = $1 AND valid_until IS NOT NULL AND valid_until < $2 AND deleted_at IS NULL
		ORDER BY valid_until ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, models.StatusApproved, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var licenses []*models.License
	for rows.Next() {
		license, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		licenses = append(licenses, license)
	}
	return licenses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLicense(row rowScanner) (*models.License, error) {
	license := &models.License{}
	var businessData, requirements []byte

	err := row.Scan(
		&license.ID, &license.LicenseNumber, &license.BusinessName, &license.BusinessAddress,
		&license.BusinessType, &license.BusinessDescription, &license.Status,
		&businessData, &requirements, &license.Notes, &license.ReviewerNotes,
		&license.RejectionReason, &license.ApplicationDate, &license.ApprovalDate,
		&license.ValidFrom, &license.ValidUntil, &license.TenantID, &license.ApplicantID,
		&license.LicenseTypeID, &license.ReviewerID, &license.Version, &license.DeletedAt,
		&license.CreatedAt, &license.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(businessData) > 0 {
		if err := json.Unmarshal(businessData, &license.BusinessData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal business_data: %w", err)
		}
	}
	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &license.Requirements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal requirements: %w", err)
		}
	}
	return license, nil
}

func marshalJSONB(value models.JSONB) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}
