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

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetByCode(ctx context.Context, code string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	CountLicenses(ctx context.Context, tenantID uuid.UUID) (int, error)
}

type tenantRepo struct {
	db DB
}

func NewTenantRepository(db DB) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	settings, err := marshalJSONB(tenant.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	query := `
		INSERT INTO tenants (id, name, code, type, region, address, phone, email, status, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Code, tenant.Type,
		tenant.Region, tenant.Address, tenant.Phone, tenant.Email, tenant.Status, settings)
	return err
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT id, name, code, type, region, address, phone, email, status, settings, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *tenantRepo) GetByCode(ctx context.Context, code string) (*models.Tenant, error) {
	query := `
		SELECT id, name, code, type, region, address, phone, email, status, settings, created_at, updated_at
		FROM tenants
		WHERE code = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, code))
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	settings, err := marshalJSONB(tenant.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	query := `
		UPDATE tenants
		SET name = $1, type = $2, region = $3, address = $4, phone = $5, email = $6, status = $7, settings = $8, updated_at = NOW()
		WHERE id = $9
	`
	_, err = r.db.Exec(ctx, query, tenant.Name, tenant.Type, tenant.Region,
		tenant.Address, tenant.Phone, tenant.Email, tenant.Status, settings, tenant.ID)
	return err
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT id, name, code, type, region, address, phone, email, status, settings, created_at, updated_at
		FROM tenants
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) CountLicenses(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM licenses WHERE tenant_id = $1`, tenantID).Scan(&count)
	return count, err
}

func (r *tenantRepo) scanOne(row rowScanner) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	var settings []byte
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Code, &tenant.Type, &tenant.Region,
		&tenant.Address, &tenant.Phone, &tenant.Email, &tenant.Status, &settings,
		&tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &tenant.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}
	return tenant, nil
}
