package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"perizinan/internal/caching"
	"perizinan/internal/common"
	"perizinan/internal/models"
	"perizinan/internal/repositories"
)

type CreateLicenseTypeInput struct {
	Name              string       `json:"name"`
	Code              string       `json:"code"`
	Category          string       `json:"category"`
	Description       *string      `json:"description"`
	RequiredDocuments models.JSONB `json:"required_documents"`
	FormFields        models.JSONB `json:"form_fields"`
	Workflow          models.JSONB `json:"workflow"`
	ValidityPeriod    int          `json:"validity_period"`
	Fee               *float64     `json:"fee"`
	SortOrder         int          `json:"sort_order"`
	Global            bool         `json:"global"` // super admin only: available to every tenant
}

type UpdateLicenseTypeInput struct {
	Name              *string      `json:"name"`
	Category          *string      `json:"category"`
	Description       *string      `json:"description"`
	RequiredDocuments models.JSONB `json:"required_documents"`
	FormFields        models.JSONB `json:"form_fields"`
	Workflow          models.JSONB `json:"workflow"`
	ValidityPeriod    *int         `json:"validity_period"`
	Fee               *float64     `json:"fee"`
	Status            *string      `json:"status"`
	SortOrder         *int         `json:"sort_order"`
}

// LicenseTypeService manages the permit catalog. Tenant admins manage their
// own tenant's entries; global entries belong to super admins.
type LicenseTypeService interface {
	Create(ctx context.Context, actor common.Identity, input *CreateLicenseTypeInput) (*models.LicenseType, error)
	Get(ctx context.Context, actor common.Identity, id uuid.UUID) (*models.LicenseType, error)
	Update(ctx context.Context, actor common.Identity, id uuid.UUID, input *UpdateLicenseTypeInput) (*models.LicenseType, error)
	List(ctx context.Context, actor common.Identity, limit, offset int) ([]*models.LicenseType, error)
}

type licenseTypeService struct {
	licenseTypes repositories.LicenseTypeRepository
	cache        caching.CacheService
}

func NewLicenseTypeService(licenseTypes repositories.LicenseTypeRepository, cache caching.CacheService) LicenseTypeService {
	return &licenseTypeService{licenseTypes: licenseTypes, cache: cache}
}

func (s *licenseTypeService) Create(ctx context.Context, actor common.Identity, input *CreateLicenseTypeInput) (*models.LicenseType, error) {
	if actor.Role != models.RoleTenantAdmin && !actor.IsSuperAdmin() {
		return nil, common.NewForbidden(common.ReasonInsufficientRole)
	}
	if input.Name == "" {
		return nil, &common.ValidationError{Field: "name", Message: "is required"}
	}
	if input.Code == "" {
		return nil, &common.ValidationError{Field: "code", Message: "is required"}
	}
	if input.ValidityPeriod <= 0 {
		return nil, &common.ValidationError{Field: "validity_period", Message: "must be positive"}
	}
	if input.Global && !actor.IsSuperAdmin() {
		return nil, common.NewForbidden(common.ReasonInsufficientRole)
	}

	if _, err := s.licenseTypes.GetByCode(ctx, input.Code); err == nil {
		return nil, &common.ValidationError{Field: "code", Message: "is already in use"}
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	licenseType := &models.LicenseType{
		ID:                uuid.New(),
		Name:              input.Name,
		Code:              input.Code,
		Category:          input.Category,
		Description:       input.Description,
		RequiredDocuments: input.RequiredDocuments,
		FormFields:        input.FormFields,
		Workflow:          input.Workflow,
		ValidityPeriod:    input.ValidityPeriod,
		Fee:               input.Fee,
		Status:            models.LicenseTypeStatusActive,
		SortOrder:         input.SortOrder,
	}
	if !input.Global {
		tenantID := actor.TenantID
		licenseType.TenantID = &tenantID
	}

	if err := s.licenseTypes.Create(ctx, licenseType); err != nil {
		return nil, err
	}
	return licenseType, nil
}

func (s *licenseTypeService) Get(ctx context.Context, actor common.Identity, id uuid.UUID) (*models.LicenseType, error) {
	if cached, ok := s.cache.GetLicenseType(ctx, id); ok {
		if err := s.checkVisible(actor, cached); err != nil {
			return nil, err
		}
		return cached, nil
	}
	licenseType, err := s.licenseTypes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(actor, licenseType); err != nil {
		return nil, err
	}
	s.cache.SetLicenseType(ctx, licenseType)
	return licenseType, nil
}

func (s *licenseTypeService) Update(ctx context.Context, actor common.Identity, id uuid.UUID, input *UpdateLicenseTypeInput) (*models.LicenseType, error) {
	if actor.Role != models.RoleTenantAdmin && !actor.IsSuperAdmin() {
		return nil, common.NewForbidden(common.ReasonInsufficientRole)
	}

	licenseType, err := s.licenseTypes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Global entries are managed by super admins only.
	if licenseType.TenantID == nil && !actor.IsSuperAdmin() {
		return nil, common.NewForbidden(common.ReasonInsufficientRole)
	}
	if licenseType.TenantID != nil && !actor.IsSuperAdmin() && *licenseType.TenantID != actor.TenantID {
		return nil, common.NewForbidden(common.ReasonCrossTenant)
	}

	if input.Name != nil {
		licenseType.Name = *input.Name
	}
	if input.Category != nil {
		licenseType.Category = *input.Category
	}
	if input.Description != nil {
		licenseType.Description = input.Description
	}
	if input.RequiredDocuments != nil {
		licenseType.RequiredDocuments = input.RequiredDocuments
	}
	if input.FormFields != nil {
		licenseType.FormFields = input.FormFields
	}
	if input.Workflow != nil {
		licenseType.Workflow = input.Workflow
	}
	if input.ValidityPeriod != nil {
		if *input.ValidityPeriod <= 0 {
			return nil, &common.ValidationError{Field: "validity_period", Message: "must be positive"}
		}
		licenseType.ValidityPeriod = *input.ValidityPeriod
	}
	if input.Fee != nil {
		licenseType.Fee = input.Fee
	}
	if input.Status != nil {
		switch *input.Status {
		case models.LicenseTypeStatusActive, models.LicenseTypeStatusInactive:
			licenseType.Status = *input.Status
		default:
			return nil, &common.ValidationError{Field: "status", Message: "must be active or inactive"}
		}
	}
	if input.SortOrder != nil {
		licenseType.SortOrder = *input.SortOrder
	}

	if err := s.licenseTypes.Update(ctx, licenseType); err != nil {
		return nil, err
	}
	s.cache.DeleteLicenseType(ctx, licenseType.ID)
	return licenseType, nil
}

func (s *licenseTypeService) List(ctx context.Context, actor common.Identity, limit, offset int) ([]*models.LicenseType, error) {
	return s.licenseTypes.ListForTenant(ctx, actor.TenantID, limit, offset)
}

func (s *licenseTypeService) checkVisible(actor common.Identity, licenseType *models.LicenseType) error {
	if actor.IsSuperAdmin() || licenseType.TenantID == nil {
		return nil
	}
	if *licenseType.TenantID != actor.TenantID {
		return common.NewForbidden(common.ReasonCrossTenant)
	}
	return nil
}
