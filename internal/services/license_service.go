package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"perizinan/internal/authz"
	"perizinan/internal/caching"
	"perizinan/internal/common"
	"perizinan/internal/lifecycle"
	"perizinan/internal/models"
	"perizinan/internal/repositories"
)

// CreateLicenseInput is a new application. The actor becomes the applicant
// and the license is stamped with the actor's tenant.
type CreateLicenseInput struct {
	LicenseTypeID       uuid.UUID    `json:"license_type_id"`
	BusinessName        string       `json:"business_name"`
	BusinessAddress     string       `json:"business_address"`
	BusinessType        string       `json:"business_type"`
	BusinessDescription *string      `json:"business_description"`
	BusinessData        models.JSONB `json:"business_data"`
	Requirements        models.JSONB `json:"requirements"`
	Notes               *string      `json:"notes"`
}

// UpdateLicenseInput carries content edits. Nil pointers leave the field
// unchanged.
type UpdateLicenseInput struct {
	BusinessName        *string      `json:"business_name"`
	BusinessAddress     *string      `json:"business_address"`
	BusinessType        *string      `json:"business_type"`
	BusinessDescription *string      `json:"business_description"`
	BusinessData        models.JSONB `json:"business_data"`
	Requirements        models.JSONB `json:"requirements"`
	Notes               *string      `json:"notes"`
}

// ApproveLicenseInput carries the reviewer's decision details. ValidFrom and
// ValidUntil default to now and now plus the type's validity period.
type ApproveLicenseInput struct {
	ReviewerNotes *string    `json:"reviewer_notes"`
	ValidFrom     *time.Time `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
}

// LicenseService drives the license lifecycle. Every method takes the acting
// identity explicitly; authorization is checked before the state machine so
// a forbidden caller learns nothing about transition validity.
type LicenseService interface {
	Create(ctx context.Context, actor common.Identity, input *CreateLicenseInput) (*models.License, error)
	Update(ctx context.Context, actor common.Identity, id uuid.UUID, input *UpdateLicenseInput) (*models.License, error)
	Submit(ctx context.Context, actor common.Identity, id uuid.UUID, comment *string) (*models.License, error)
	BeginReview(ctx context.Context, actor common.Identity, id uuid.UUID, comment *string) (*models.License, error)
	RequestRevision(ctx context.Context, actor common.Identity, id uuid.UUID, comment *string) (*models.License, error)
	Approve(ctx context.Context, actor common.Identity, id uuid.UUID, input *ApproveLicenseInput) (*models.License, error)
	Reject(ctx context.Context, actor common.Identity, id uuid.UUID, reason string) (*models.License, error)
	Revoke(ctx context.Context, actor common.Identity, id uuid.UUID, comment *string) (*models.License, error)
	Expire(ctx context.Context, actor common.Identity, id uuid.UUID) (*models.License, error)
	Delete(ctx context.Context, actor common.Identity, id uuid.UUID) error
	Get(ctx context.Context, actor common.Identity, id uuid.UUID) (*models.License, error)
	List(ctx context.Context, actor common.Identity, filter *models.LicenseSearchFilter) ([]*models.License, int, error)
	History(ctx context.Context, actor common.Identity, id uuid.UUID, limit, offset int) ([]*models.LicenseWorkflow, error)
}

type licenseService struct {
	db           repositories.DB
	licenses     repositories.LicenseRepository
	workflows    repositories.LicenseWorkflowRepository
	sequences    repositories.SequenceRepository
	licenseTypes repositories.LicenseTypeRepository
	machine      *lifecycle.Machine
	cache        caching.CacheService
	notifier     NotificationService
}

func NewLicenseService(
	db repositories.DB,
	licenses repositories.LicenseRepository,
	workflows repositories.LicenseWorkflowRepository,
	sequences repositories.SequenceRepository,
	licenseTypes repositories.LicenseTypeRepository,
	cache caching.CacheService,
	notifier NotificationService,
) LicenseService {
	return &licenseService{
		db:           db,
		licenses:     licenses,
		workflows:    workflows,
		sequences:    sequences,
		licenseTypes: licenseTypes,
		machine:      lifecycle.New(),
		cache:        cache,
		notifier:     notifier,
	}
}

func (s *licenseService) Create(ctx context.Context, actor common.Identity, input *CreateLicenseInput) (*models.License, error) {
	if err := authz.Check(actor, actor.TenantID, actor.UserID, models.ActionCreate); err != nil {
		return nil, err
	}
	if input.BusinessName == "" {
		return nil, &common.ValidationError{Field: "business_name", Message: "is required"}
	}
	if input.LicenseTypeID == uuid.Nil {
		return nil, &common.ValidationError{Field: "license_type_id", Message: "is required"}
	}

	licenseType, err := s.loadLicenseType(ctx, input.LicenseTypeID)
	if err != nil {
		return nil, err
	}
	if licenseType.Status != models.LicenseTypeStatusActive {
		return nil, &common.ValidationError{Field: "license_type_id", Message: "license type is not active"}
	}
	if licenseType.TenantID != nil && *licenseType.TenantID != actor.TenantID {
		return nil, &common.ValidationError{Field: "license_type_id", Message: "license type is not available for this tenant"}
	}

	// Allocate before opening the transaction. A failed creation leaves a
	// gap in the sequence, which is acceptable; a duplicate number is not.
	yearMonth := time.Now().Format("200601")
	sequence, err := s.sequences.Allocate(ctx, actor.TenantID, licenseType.Code, yearMonth)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	license := &models.License{
		ID:                  uuid.New(),
		LicenseNumber:       repositories.FormatLicenseNumber(licenseType.Code, yearMonth, sequence),
		BusinessName:        input.BusinessName,
		BusinessAddress:     input.BusinessAddress,
		BusinessType:        input.BusinessType,
		BusinessDescription: input.BusinessDescription,
		Status:              models.StatusDraft,
		BusinessData:        input.BusinessData,
		Requirements:        input.Requirements,
		Notes:               input.Notes,
		TenantID:            actor.TenantID,
		ApplicantID:         actor.UserID,
		LicenseTypeID:       licenseType.ID,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.licenses.CreateTx(ctx, tx, license); err != nil {
		return nil, err
	}
	entry := &models.LicenseWorkflow{
		LicenseID:  license.ID,
		Action:     models.ActionCreate,
		FromStatus: "",
		ToStatus:   models.StatusDraft,
		ActorID:    actor.UserID,
	}
	if err := s.workflows.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return license, nil
}

func (s *licenseService) Update(ctx context.Context, actor common.Identity, id uuid.UUID, input *UpdateLicenseInput) (*models.License, error) {
	license, err := s.licenses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, license.TenantID, license.ApplicantID, models.ActionUpdate); err != nil {
		return nil, err
	}
	if license.IsTerminal() {
		return nil, common.ErrTerminalStateImmutable
	}
	if !lifecycle.CanEdit(license.Status) {
		return nil, &common.InvalidTransitionError{Status: license.Status, Action: models.ActionUpdate}
	}

	if input.BusinessName != nil {
		license.BusinessName = *input.BusinessName
	}
	if input.BusinessAddress != nil {
		license.BusinessAddress = *input.BusinessAddress
	}
	if input.BusinessType != nil {
		license.BusinessType = *input.BusinessType
	}
	if input.BusinessDescription != nil {
		license.BusinessDescription = input.BusinessDescription
	}
	if input.BusinessData != nil {
		license.BusinessData = input.BusinessData
	}
	if input.Requirements != nil {
		license.Requirements = input.Requirements
	}
	if input.Notes != nil {
		license.Notes = input.Notes
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.licenses.UpdateTx(ctx, tx, license); err != nil {
		return nil, err
	}
	// Content edits keep from == to so the status history replays exactly
	// from the ledger.
	entry := &models.LicenseWorkflow{
		LicenseID:  license.ID,
		Action:     models.ActionUpdate,
		FromStatus: license.Status,
		ToStatus:   license.Status,
		ActorID:    actor.UserID,
	}
	if err := s.workflows.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.cache.DeleteLicense(ctx, license.ID)
	return license, nil
}

func (s *licenseService) Submit(ctx context.Context, actor common.Identity, id uuid.UUID, comment *string) (*models.License, error) {
	return s.transition(ctx, actor, id, models.ActionSubmit, comment, func(license *models.License) error {
		if license.ApplicationDate == nil {
			now := time.Now()
			license.ApplicationDate = &now
		}
		return nil
	})
}

func (s *licenseService) BeginReview(ctx context.Context, actor common.Identity, id uuid.UUID, comment *string) (*models.License, error) {
	return s.transition(ctx, actor, id, models.ActionBeginReview, comment, func(license *models.License) error {
		reviewerID := actor.UserID
		license.ReviewerID = &reviewerID
		return nil
	})
}

func (s *licenseService) RequestRevision(ctx context.Context, actor common.Identity, id uuid.UUID, comment *string) (*models.License, error) {
	if comment == nil || *comment == "" {
		return nil, &common.ValidationError{Field: "comment", Message: "is required when requesting a revision"}
	}
	return s.transition(ctx, actor, id, models.ActionRequestRevision, comment, func(license *models.License) error {
		license.ReviewerNotes = comment
		return nil
	})
}

func (s *licenseService) Approve(ctx context.Context, actor common.Identity, id uuid.UUID, input *ApproveLicenseInput) (*models.License, error) {
	if input == nil {
		input = &ApproveLicenseInput{}
	}
	return s.transition(ctx, actor, id, models.ActionApprove, input.ReviewerNotes, func(license *models.License) error {
		now := time.Now()
		reviewerID := actor.UserID
		license.ReviewerID = &reviewerID
		license.ReviewerNotes = input.ReviewerNotes
		license.ApprovalDate = &now

		validFrom := now
		if input.ValidFrom != nil {
			validFrom = *input.ValidFrom
		}
		license.ValidFrom = &validFrom

		if input.ValidUntil != nil {
			license.ValidUntil = input.ValidUntil
			return nil
		}
		licenseType, err := s.loadLicenseType(ctx, license.LicenseTypeID)
		if err != nil {
			return fmt.Errorf("failed to resolve validity period: %w", err)
		}
		validUntil := validFrom.AddDate(0, 0, licenseType.ValidityPeriod)
		license.ValidUntil = &validUntil
		return nil
	})
}

func (s *licenseService) Reject(ctx context.Context, actor common.Identity, id uuid.UUID, reason string) (*models.License, error) {
	if reason == "" {
		return nil, &common.ValidationError{Field: "reason", Message: "is required when rejecting"}
	}
	return s.transition(ctx, actor, id, models.ActionReject, &reason, func(license *models.License) error {
		reviewerID := actor.UserID
		license.ReviewerID = &reviewerID
		license.RejectionReason = &reason
		return nil
	})
}

func (s *licenseService) Revoke(ctx context.Context, actor common.Identity, id uuid.UUID, comment *string) (*models.License, error) {
	return s.transition(ctx, actor, id, models.ActionRevoke, comment, nil)
}

func (s *licenseService) Expire(ctx context.Context, actor common.Identity, id uuid.UUID) (*models.License, error) {
	return s.transition(ctx, actor, id, models.ActionExpire, nil, nil)
}

func (s *licenseService) Delete(ctx context.Context, actor common.Identity, id uuid.UUID) error {
	license, err := s.licenses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Check(actor, license.TenantID, license.ApplicantID, models.ActionDelete); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.licenses.SoftDeleteTx(ctx, tx, license.ID, license.Version); err != nil {
		return err
	}
	entry := &models.LicenseWorkflow{
		LicenseID:  license.ID,
		Action:     models.ActionDelete,
		FromStatus: license.Status,
		ToStatus:   license.Status,
		ActorID:    actor.UserID,
	}
	if err := s.workflows.CreateTx(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.cache.DeleteLicense(ctx, license.ID)
	return nil
}

func (s *licenseService) Get(ctx context.Context, actor common.Identity, id uuid.UUID) (*models.License, error) {
	if cached, ok := s.cache.GetLicense(ctx, id); ok {
		if err := authz.Check(actor, cached.TenantID, cached.ApplicantID, models.ActionRead); err != nil {
			return nil, err
		}
		return cached, nil
	}

	license, err := s.licenses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, license.TenantID, license.ApplicantID, models.ActionRead); err != nil {
		return nil, err
	}
	s.cache.SetLicense(ctx, license)
	return license, nil
}

func (s *licenseService) List(ctx context.Context, actor common.Identity, filter *models.LicenseSearchFilter) ([]*models.License, int, error) {
	if filter == nil {
		filter = &models.LicenseSearchFilter{}
	}

	var tenantID *uuid.UUID
	if !actor.IsSuperAdmin() {
		scoped := actor.TenantID
		tenantID = &scoped
	}
	// Applicants only ever see their own applications.
	if actor.Role == models.RoleApplicant {
		applicantID := actor.UserID
		filter.ApplicantID = &applicantID
	}

	return s.licenses.List(ctx, tenantID, filter)
}

func (s *licenseService) History(ctx context.Context, actor common.Identity, id uuid.UUID, limit, offset int) ([]*models.LicenseWorkflow, error) {
	license, err := s.licenses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, license.TenantID, license.ApplicantID, models.ActionReadHistory); err != nil {
		return nil, err
	}
	return s.workflows.ListByLicense(ctx, license.ID, limit, offset)
}

// transition is the single path every status change goes through: load,
// authorize, validate against the state machine, mutate, then persist the
// license row and the ledger entry in one transaction. mutate runs after the
// machine accepted the action and before the write.
func (s *licenseService) transition(ctx context.Context, actor common.Identity, id uuid.UUID, action string, comment *string, mutate func(*models.License) error) (*models.License, error) {
	license, err := s.licenses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, license.TenantID, license.ApplicantID, action); err != nil {
		return nil, err
	}

	fromStatus := license.Status
	toStatus, err := s.machine.Apply(ctx, fromStatus, action)
	if err != nil {
		return nil, err
	}

	license.Status = toStatus
	if mutate != nil {
		if err := mutate(license); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.licenses.UpdateTx(ctx, tx, license); err != nil {
		return nil, err
	}
	entry := &models.LicenseWorkflow{
		LicenseID:  license.ID,
		Action:     action,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Comment:    comment,
		ActorID:    actor.UserID,
	}
	if err := s.workflows.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.cache.DeleteLicense(ctx, license.ID)

	// Delivery failures never roll back a committed transition.
	if s.notifier != nil {
		if err := s.notifier.NotifyLicenseEvent(ctx, license, action); err != nil {
			log.Printf("notify license %s %s: %v", license.ID, action, err)
		}
	}
	return license, nil
}

func (s *licenseService) loadLicenseType(ctx context.Context, id uuid.UUID) (*models.LicenseType, error) {
	if cached, ok := s.cache.GetLicenseType(ctx, id); ok {
		return cached, nil
	}
	licenseType, err := s.licenseTypes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetLicenseType(ctx, licenseType)
	return licenseType, nil
}
