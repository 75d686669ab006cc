package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"perizinan/internal/common"
	"perizinan/internal/models"
	"perizinan/internal/repositories"
)

type CreateTenantInput struct {
	Name     string       `json:"name"`
	Code     string       `json:"code"`
	Type     string       `json:"type"`
	Region   string       `json:"region"`
	Address  *string      `json:"address"`
	Phone    *string      `json:"phone"`
	Email    *string      `json:"email"`
	Settings models.JSONB `json:"settings"`
}

type UpdateTenantInput struct {
	Name     *string      `json:"name"`
	Type     *string      `json:"type"`
	Region   *string      `json:"region"`
	Address  *string      `json:"address"`
	Phone    *string      `json:"phone"`
	Email    *string      `json:"email"`
	Status   *string      `json:"status"`
	Settings models.JSONB `json:"settings"`
}

// TenantService manages licensing authority instances and their staff.
// Tenant mutations are restricted to super admins; a tenant admin may read
// their own tenant and manage its user accounts.
type TenantService interface {
	Create(ctx context.Context, actor common.Identity, input *CreateTenantInput) (*models.Tenant, error)
	Get(ctx context.Context, actor common.Identity, id uuid.UUID) (*models.Tenant, error)
	Update(ctx context.Context, actor common.Identity, id uuid.UUID, input *UpdateTenantInput) (*models.Tenant, error)
	List(ctx context.Context, actor common.Identity, limit, offset int) ([]*models.Tenant, error)
	// Stats returns operational counters for a tenant, currently the number
	// of licenses it holds.
	Stats(ctx context.Context, actor common.Identity, id uuid.UUID) (models.JSONB, error)
	ListUsers(ctx context.Context, actor common.Identity, tenantID uuid.UUID, limit, offset int) ([]*models.User, error)
	SetUserStatus(ctx context.Context, actor common.Identity, userID uuid.UUID, status string) (*models.User, error)
}

type tenantService struct {
	tenants repositories.TenantRepository
	users   repositories.UserRepository
}

func NewTenantService(tenants repositories.TenantRepository, users repositories.UserRepository) TenantService {
	return &tenantService{tenants: tenants, users: users}
}

var validTenantTypes = map[string]bool{
	models.TenantTypeKota:      true,
	models.TenantTypeKabupaten: true,
	models.TenantTypeProvinsi:  true,
}

func (s *tenantService) Create(ctx context.Context, actor common.Identity, input *CreateTenantInput) (*models.Tenant, error) {
	if !actor.IsSuperAdmin() {
		return nil, common.NewForbidden(common.ReasonInsufficientRole)
	}
	if input.Name == "" {
		return nil, &common.ValidationError{Field: "name", Message: "is required"}
	}
	if input.Code == "" {
		return nil, &common.ValidationError{Field: "code", Message: "is required"}
	}
	if !validTenantTypes[input.Type] {
		return nil, &common.ValidationError{Field: "type", Message: "must be kota, kabupaten or provinsi"}
	}

	if _, err := s.tenants.GetByCode(ctx, input.Code); err == nil {
		return nil, &common.ValidationError{Field: "code", Message: "is already in use"}
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	tenant := &models.Tenant{
		ID:       uuid.New(),
		Name:     input.Name,
		Code:     input.Code,
		Type:     input.Type,
		Region:   input.Region,
		Address:  input.Address,
		Phone:    input.Phone,
		Email:    input.Email,
		Status:   models.TenantStatusActive,
		Settings: input.Settings,
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *tenantService) Get(ctx context.Context, actor common.Identity, id uuid.UUID) (*models.Tenant, error) {
	if !actor.IsSuperAdmin() && actor.TenantID != id {
		return nil, common.NewForbidden(common.ReasonCrossTenant)
	}
	return s.tenants.GetByID(ctx, id)
}

func (s *tenantService) Update(ctx context.Context, actor common.Identity, id uuid.UUID, input *UpdateTenantInput) (*models.Tenant, error) {
	if !actor.IsSuperAdmin() {
		return nil, common.NewForbidden(common.ReasonInsufficientRole)
	}

	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		tenant.Name = *input.Name
	}
	if input.Type != nil {
		if !validTenantTypes[*input.Type] {
			return nil, &common.ValidationError{Field: "type", Message: "must be kota, kabupaten or provinsi"}
		}
		tenant.Type = *input.Type
	}
	if input.Region != nil {
		tenant.Region = *input.Region
	}
	if input.Address != nil {
		tenant.Address = input.Address
	}
	if input.Phone != nil {
		tenant.Phone = input.Phone
	}
	if input.Email != nil {
		tenant.Email = input.Email
	}
	if input.Status != nil {
		switch *input.Status {
		case models.TenantStatusActive, models.TenantStatusInactive, models.TenantStatusSuspended:
			tenant.Status = *input.Status
		default:
			return nil, &common.ValidationError{Field: "status", Message: "must be active, inactive or suspended"}
		}
	}
	if input.Settings != nil {
		tenant.Settings = input.Settings
	}

	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *tenantService) List(ctx context.Context, actor common.Identity, limit, offset int) ([]*models.Tenant, error) {
	if !actor.IsSuperAdmin() {
		return nil, common.NewForbidden(common.ReasonInsufficientRole)
	}
	return s.tenants.List(ctx, limit, offset)
}

func (s *tenantService) Stats(ctx context.Context, actor common.Identity, id uuid.UUID) (models.JSONB, error) {
	if !actor.IsSuperAdmin() && actor.TenantID != id {
		return nil, common.NewForbidden(common.ReasonCrossTenant)
	}
	count, err := s.tenants.CountLicenses(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.JSONB{"license_count": count}, nil
}

func (s *tenantService) ListUsers(ctx context.Context, actor common.Identity, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	if !actor.IsSuperAdmin() {
		if actor.Role != models.RoleTenantAdmin {
			return nil, common.NewForbidden(common.ReasonInsufficientRole)
		}
		if actor.TenantID != tenantID {
			return nil, common.NewForbidden(common.ReasonCrossTenant)
		}
	}
	return s.users.ListByTenant(ctx, tenantID, limit, offset)
}

func (s *tenantService) SetUserStatus(ctx context.Context, actor common.Identity, userID uuid.UUID, status string) (*models.User, error) {
	switch status {
	case models.UserStatusActive, models.UserStatusInactive, models.UserStatusSuspended, models.UserStatusLocked:
	default:
		return nil, &common.ValidationError{Field: "status", Message: "is not a valid account status"}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperAdmin() {
		if actor.Role != models.RoleTenantAdmin {
			return nil, common.NewForbidden(common.ReasonInsufficientRole)
		}
		if user.TenantID == nil || *user.TenantID != actor.TenantID {
			return nil, common.NewForbidden(common.ReasonCrossTenant)
		}
	}

	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
