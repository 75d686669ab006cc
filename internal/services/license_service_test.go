package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"perizinan/internal/caching"
	"perizinan/internal/common"
	"perizinan/internal/models"
	"perizinan/testhelpers"
)

type mockLicenseRepo struct{ mock.Mock }

func (m *mockLicenseRepo) CreateTx(ctx context.Context, tx pgx.Tx, license *models.License) error {
	return m.Called(ctx, tx, license).Error(0)
}

func (m *mockLicenseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	args := m.Called(ctx, id)
	if license := args.Get(0); license != nil {
		return license.(*models.License), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLicenseRepo) UpdateTx(ctx context.Context, tx pgx.Tx, license *models.License) error {
	return m.Called(ctx, tx, license).Error(0)
}

func (m *mockLicenseRepo) SoftDeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, version int) error {
	return m.Called(ctx, tx, id, version).Error(0)
}

func (m *mockLicenseRepo) List(ctx context.Context, tenantID *uuid.UUID, filter *models.LicenseSearchFilter) ([]*models.License, int, error) {
	args := m.Called(ctx, tenantID, filter)
	var licenses []*models.License
	if v := args.Get(0); v != nil {
		licenses = v.([]*models.License)
	}
	return licenses, args.Int(1), args.Error(2)
}

func (m *mockLicenseRepo) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*models.License, error) {
	args := m.Called(ctx, asOf, limit)
	var licenses []*models.License
	if v := args.Get(0); v != nil {
		licenses = v.([]*models.License)
	}
	return licenses, args.Error(1)
}

type mockWorkflowRepo struct {
	mock.Mock
	entries []*models.LicenseWorkflow
}

func (m *mockWorkflowRepo) CreateTx(ctx context.Context, tx pgx.Tx, entry *models.LicenseWorkflow) error {
	m.entries = append(m.entries, entry)
	return m.Called(ctx, tx, entry).Error(0)
}

func (m *mockWorkflowRepo) ListByLicense(ctx context.Context, licenseID uuid.UUID, limit, offset int) ([]*models.LicenseWorkflow, error) {
	args := m.Called(ctx, licenseID, limit, offset)
	var entries []*models.LicenseWorkflow
	if v := args.Get(0); v != nil {
		entries = v.([]*models.LicenseWorkflow)
	}
	return entries, args.Error(1)
}

type mockSequenceRepo struct{ mock.Mock }

func (m *mockSequenceRepo) Allocate(ctx context.Context, tenantID uuid.UUID, licenseTypeCode, yearMonth string) (int, error) {
	args := m.Called(ctx, tenantID, licenseTypeCode, yearMonth)
	return args.Int(0), args.Error(1)
}

type mockLicenseTypeRepo struct{ mock.Mock }

func (m *mockLicenseTypeRepo) Create(ctx context.Context, licenseType *models.LicenseType) error {
	return m.Called(ctx, licenseType).Error(0)
}

func (m *mockLicenseTypeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.LicenseType, error) {
	args := m.Called(ctx, id)
	if licenseType := args.Get(0); licenseType != nil {
		return licenseType.(*models.LicenseType), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLicenseTypeRepo) GetByCode(ctx context.Context, code string) (*models.LicenseType, error) {
	args := m.Called(ctx, code)
	if licenseType := args.Get(0); licenseType != nil {
		return licenseType.(*models.LicenseType), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLicenseTypeRepo) Update(ctx context.Context, licenseType *models.LicenseType) error {
	return m.Called(ctx, licenseType).Error(0)
}

func (m *mockLicenseTypeRepo) ListForTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.LicenseType, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	var licenseTypes []*models.LicenseType
	if v := args.Get(0); v != nil {
		licenseTypes = v.([]*models.LicenseType)
	}
	return licenseTypes, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyLicenseEvent(ctx context.Context, license *models.License, action string) error {
	return m.Called(ctx, license, action).Error(0)
}

func (m *mockNotifier) ListForUser(ctx context.Context, actor common.Identity, limit, offset int) ([]*models.Notification, error) {
	args := m.Called(ctx, actor, limit, offset)
	return nil, args.Error(1)
}

func (m *mockNotifier) MarkRead(ctx context.Context, actor common.Identity, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockNotifier) RetryFailed(ctx context.Context, limit int) error {
	return m.Called(ctx, limit).Error(0)
}

type LicenseServiceSuite struct {
	suite.Suite
	db        pgxmock.PgxPoolIface
	licenses  *mockLicenseRepo
	workflows *mockWorkflowRepo
	sequences *mockSequenceRepo
	types     *mockLicenseTypeRepo
	notifier  *mockNotifier
	service   LicenseService

	tenantID  uuid.UUID
	applicant common.Identity
	officer   common.Identity
}

func (s *LicenseServiceSuite) SetupTest() {
	db, err := pgxmock.NewPool()
	s.Require().NoError(err)
	s.db = db
	s.licenses = &mockLicenseRepo{}
	s.workflows = &mockWorkflowRepo{}
	s.sequences = &mockSequenceRepo{}
	s.types = &mockLicenseTypeRepo{}
	s.notifier = &mockNotifier{}
	s.service = NewLicenseService(db, s.licenses, s.workflows, s.sequences, s.types, caching.NewNoopCache(), s.notifier)

	s.tenantID = uuid.New()
	s.applicant = testhelpers.NewTestIdentity(s.tenantID, models.RoleApplicant)
	s.officer = testhelpers.NewTestIdentity(s.tenantID, models.RoleOfficer)
}

func (s *LicenseServiceSuite) TearDownTest() {
	s.db.Close()
}

func (s *LicenseServiceSuite) expectTxCommit() {
	s.db.ExpectBegin()
	s.db.ExpectCommit()
	s.db.ExpectRollback()
}

func (s *LicenseServiceSuite) expectTxRollback() {
	s.db.ExpectBegin()
	s.db.ExpectRollback()
}

func (s *LicenseServiceSuite) TestCreateFormatsSequentialNumbers() {
	licenseType := testhelpers.NewTestLicenseType(nil)
	yearMonth := time.Now().Format("200601")

	s.types.On("GetByID", mock.Anything, licenseType.ID).Return(licenseType, nil)
	s.sequences.On("Allocate", mock.Anything, s.tenantID, "SIUP", yearMonth).Return(1, nil).Once()
	s.sequences.On("Allocate", mock.Anything, s.tenantID, "SIUP", yearMonth).Return(2, nil).Once()
	s.licenses.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.workflows.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	s.expectTxCommit()
	s.expectTxCommit()

	input := &CreateLicenseInput{LicenseTypeID: licenseType.ID, BusinessName: "Warung Maju Jaya"}

	first, err := s.service.Create(context.Background(), s.applicant, input)
	s.Require().NoError(err)
	s.Equal(fmt.Sprintf("SIUP/%s/0001", yearMonth), first.LicenseNumber)
	s.Equal(models.StatusDraft, first.Status)
	s.Equal(1, first.Version)
	s.Equal(s.tenantID, first.TenantID)
	s.Equal(s.applicant.UserID, first.ApplicantID)

	second, err := s.service.Create(context.Background(), s.applicant, input)
	s.Require().NoError(err)
	s.Equal(fmt.Sprintf("SIUP/%s/0002", yearMonth), second.LicenseNumber)

	// Creation writes the initial ledger entry.
	s.Require().Len(s.workflows.entries, 2)
	s.Equal(models.ActionCreate, s.workflows.entries[0].Action)
	s.Equal("", s.workflows.entries[0].FromStatus)
	s.Equal(models.StatusDraft, s.workflows.entries[0].ToStatus)
	s.Equal(s.applicant.UserID, s.workflows.entries[0].ActorID)
}

func (s *LicenseServiceSuite) TestCreateAbortsWhenAllocationFails() {
	licenseType := testhelpers.NewTestLicenseType(nil)
	s.types.On("GetByID", mock.Anything, licenseType.ID).Return(licenseType, nil)
	s.sequences.On("Allocate", mock.Anything, s.tenantID, "SIUP", mock.Anything).
		Return(0, fmt.Errorf("%w: connection reset", common.ErrAllocationFailed))

	_, err := s.service.Create(context.Background(), s.applicant, &CreateLicenseInput{
		LicenseTypeID: licenseType.ID,
		BusinessName:  "Warung Maju Jaya",
	})
	s.ErrorIs(err, common.ErrAllocationFailed)
	s.licenses.AssertNotCalled(s.T(), "CreateTx", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LicenseServiceSuite) TestCreateRejectedForOfficer() {
	_, err := s.service.Create(context.Background(), s.officer, &CreateLicenseInput{
		LicenseTypeID: uuid.New(),
		BusinessName:  "Warung Maju Jaya",
	})
	var forbidden *common.ForbiddenError
	s.Require().ErrorAs(err, &forbidden)
	s.Equal(common.ReasonInsufficientRole, forbidden.Reason)
}

func (s *LicenseServiceSuite) TestSubmitReviewApproveFlow() {
	licenseType := testhelpers.NewTestLicenseType(nil)
	license := testhelpers.NewTestLicense(s.tenantID, s.applicant.UserID, licenseType.ID, models.StatusDraft)

	s.licenses.On("GetByID", mock.Anything, license.ID).Return(license, nil)
	s.licenses.On("UpdateTx", mock.Anything, mock.Anything, license).Return(nil)
	s.workflows.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.types.On("GetByID", mock.Anything, licenseType.ID).Return(licenseType, nil)
	s.notifier.On("NotifyLicenseEvent", mock.Anything, license, mock.Anything).Return(nil)

	s.expectTxCommit()
	s.expectTxCommit()
	s.expectTxCommit()

	ctx := context.Background()

	submitted, err := s.service.Submit(ctx, s.applicant, license.ID, nil)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, submitted.Status)
	s.NotNil(submitted.ApplicationDate)

	reviewed, err := s.service.BeginReview(ctx, s.officer, license.ID, nil)
	s.Require().NoError(err)
	s.Equal(models.StatusInReview, reviewed.Status)
	s.Require().NotNil(reviewed.ReviewerID)
	s.Equal(s.officer.UserID, *reviewed.ReviewerID)

	approved, err := s.service.Approve(ctx, s.officer, license.ID, nil)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.NotNil(approved.ApprovalDate)
	s.Require().NotNil(approved.ValidFrom)
	s.Require().NotNil(approved.ValidUntil)
	s.Equal(approved.ValidFrom.AddDate(0, 0, licenseType.ValidityPeriod), *approved.ValidUntil)

	// The ledger replays to the final status.
	s.Require().Len(s.workflows.entries, 3)
	status := models.StatusDraft
	for _, entry := range s.workflows.entries {
		s.Equal(status, entry.FromStatus)
		status = entry.ToStatus
	}
	s.Equal(models.StatusApproved, status)

	s.Equal(models.ActionSubmit, s.workflows.entries[0].Action)
	s.Equal(models.ActionBeginReview, s.workflows.entries[1].Action)
	s.Equal(models.ActionApprove, s.workflows.entries[2].Action)
	s.Equal(s.applicant.UserID, s.workflows.entries[0].ActorID)
	s.Equal(s.officer.UserID, s.workflows.entries[2].ActorID)
}

func (s *LicenseServiceSuite) TestApproveFromDraftIsInvalid() {
	license := testhelpers.NewTestLicense(s.tenantID, s.applicant.UserID, uuid.New(), models.StatusDraft)
	s.licenses.On("GetByID", mock.Anything, license.ID).Return(license, nil)

	_, err := s.service.Approve(context.Background(), s.officer, license.ID, nil)

	var invalid *common.InvalidTransitionError
	s.Require().ErrorAs(err, &invalid)
	s.Equal(models.StatusDraft, invalid.Status)
	s.Equal(models.ActionApprove, invalid.Action)

	// Nothing was persisted.
	s.licenses.AssertNotCalled(s.T(), "UpdateTx", mock.Anything, mock.Anything, mock.Anything)
	s.Empty(s.workflows.entries)
	s.Equal(models.StatusDraft, license.Status)
}

func (s *LicenseServiceSuite) TestCrossTenantApproveDenied() {
	license := testhelpers.NewTestLicense(s.tenantID, s.applicant.UserID, uuid.New(), models.StatusSubmitted)
	s.licenses.On("GetByID", mock.Anything, license.ID).Return(license, nil)

	outsider := testhelpers.NewTestIdentity(uuid.New(), models.RoleOfficer)
	_, err := s.service.Approve(context.Background(), outsider, license.ID, nil)

	var forbidden *common.ForbiddenError
	s.Require().ErrorAs(err, &forbidden)
	s.Equal(common.ReasonCrossTenant, forbidden.Reason)
	s.Equal(models.StatusSubmitted, license.Status)
}

func (s *LicenseServiceSuite) TestApplicantCannotApproveOwnLicense() {
	license := testhelpers.NewTestLicense(s.tenantID, s.applicant.UserID, uuid.New(), models.StatusSubmitted)
	s.licenses.On("GetByID", mock.Anything, license.ID).Return(license, nil)

	_, err := s.service.Approve(context.Background(), s.applicant, license.ID, nil)

	var forbidden *common.ForbiddenError
	s.Require().ErrorAs(err, &forbidden)
	s.Equal(common.ReasonInsufficientRole, forbidden.Reason)
}

func (s *LicenseServiceSuite) TestConcurrentTransitionLosesCleanly() {
	license := testhelpers.NewTestLicense(s.tenantID, s.applicant.UserID, uuid.New(), models.StatusDraft)
	s.licenses.On("GetByID", mock.Anything, license.ID).Return(license, nil)
	s.licenses.On("UpdateTx", mock.Anything, mock.Anything, license).Return(common.ErrConcurrentModification)

	s.expectTxRollback()

	_, err := s.service.Submit(context.Background(), s.applicant, license.ID, nil)
	s.ErrorIs(err, common.ErrConcurrentModification)
	s.notifier.AssertNotCalled(s.T(), "NotifyLicenseEvent", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LicenseServiceSuite) TestNotificationFailureDoesNotRollBack() {
	license := testhelpers.NewTestLicense(s.tenantID, s.applicant.UserID, uuid.New(), models.StatusDraft)
	s.licenses.On("GetByID", mock.Anything, license.ID).Return(license, nil)
	s.licenses.On("UpdateTx", mock.Anything, mock.Anything, license).Return(nil)
	s.workflows.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.notifier.On("NotifyLicenseEvent", mock.Anything, license, models.ActionSubmit).
		Return(errors.New("smtp unavailable"))

	s.expectTxCommit()

	submitted, err := s.service.Submit(context.Background(), s.applicant, license.ID, nil)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, submitted.Status)
}

func (s *LicenseServiceSuite) TestUpdateRefusedInTerminalStatus() {
	license := testhelpers.NewTestLicense(s.tenantID, s.applicant.UserID, uuid.New(), models.StatusApproved)
	s.licenses.On("GetByID", mock.Anything, license.ID).Return(license, nil)

	name := "New Name"
	_, err := s.service.Update(context.Background(), s.applicant, license.ID, &UpdateLicenseInput{BusinessName: &name})
	s.ErrorIs(err, common.ErrTerminalStateImmutable)
}

func (s *LicenseServiceSuite) TestUpdateRefusedDuringReview() {
	license := testhelpers.NewTestLicense(s.tenantID, s.applicant.UserID, uuid.New(), models.StatusInReview)
	s.licenses.On("GetByID", mock.Anything, license.ID).Return(license, nil)

	name := "New Name"
	_, err := s.service.Update(context.Background(), s.applicant, license.ID, &UpdateLicenseInput{BusinessName: &name})

	var invalid *common.InvalidTransitionError
	s.Require().ErrorAs(err, &invalid)
	s.Equal(models.StatusInReview, invalid.Status)
}

func (s *LicenseServiceSuite) TestRejectRequiresReason() {
	_, err := s.service.Reject(context.Background(), s.officer, uuid.New(), "")
	var validation *common.ValidationError
	s.Require().ErrorAs(err, &validation)
	s.Equal("reason", validation.Field)
}

func (s *LicenseServiceSuite) TestDeleteWritesAuditedTombstone() {
	license := testhelpers.NewTestLicense(s.tenantID, s.applicant.UserID, uuid.New(), models.StatusDraft)
	s.licenses.On("GetByID", mock.Anything, license.ID).Return(license, nil)
	s.licenses.On("SoftDeleteTx", mock.Anything, mock.Anything, license.ID, license.Version).Return(nil)
	s.workflows.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	s.expectTxCommit()

	err := s.service.Delete(context.Background(), s.officer, license.ID)
	s.Require().NoError(err)

	s.Require().Len(s.workflows.entries, 1)
	s.Equal(models.ActionDelete, s.workflows.entries[0].Action)
	s.Equal(s.workflows.entries[0].FromStatus, s.workflows.entries[0].ToStatus)
	s.Equal(s.officer.UserID, s.workflows.entries[0].ActorID)
}

func (s *LicenseServiceSuite) TestListScopesApplicantToOwnLicenses() {
	s.licenses.On("List", mock.Anything, mock.Anything, mock.Anything).Return(nil, 0, nil)

	_, _, err := s.service.List(context.Background(), s.applicant, &models.LicenseSearchFilter{})
	s.Require().NoError(err)

	call := s.licenses.Calls[0]
	tenantID := call.Arguments.Get(1).(*uuid.UUID)
	filter := call.Arguments.Get(2).(*models.LicenseSearchFilter)
	s.Require().NotNil(tenantID)
	s.Equal(s.tenantID, *tenantID)
	s.Require().NotNil(filter.ApplicantID)
	s.Equal(s.applicant.UserID, *filter.ApplicantID)
}

func (s *LicenseServiceSuite) TestListUnscopedForSuperAdmin() {
	s.licenses.On("List", mock.Anything, mock.Anything, mock.Anything).Return(nil, 0, nil)

	superAdmin := common.Identity{UserID: uuid.New(), Role: models.RoleSuperAdmin}
	_, _, err := s.service.List(context.Background(), superAdmin, nil)
	s.Require().NoError(err)

	call := s.licenses.Calls[0]
	s.Nil(call.Arguments.Get(1))
}

func TestLicenseServiceSuite(t *testing.T) {
	suite.Run(t, new(LicenseServiceSuite))
}
