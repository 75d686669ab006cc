package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"perizinan/internal/common"
	"perizinan/internal/models"
)

var (
	tenantA = uuid.New()
	tenantB = uuid.New()
	owner   = uuid.New()
)

func identity(role string, tenantID uuid.UUID) common.Identity {
	return common.Identity{UserID: uuid.New(), TenantID: tenantID, Role: role}
}

func TestSuperAdminAlwaysAllowed(t *testing.T) {
	admin := common.Identity{UserID: uuid.New(), TenantID: uuid.Nil, Role: models.RoleSuperAdmin}

	for _, action := range []string{
		models.ActionCreate, models.ActionSubmit, models.ActionBeginReview,
		models.ActionApprove, models.ActionReject, models.ActionRevoke,
		models.ActionExpire, models.ActionUpdate, models.ActionDelete,
		models.ActionRead, models.ActionReadHistory,
	} {
		assert.True(t, Decide(admin, tenantB, owner, action).Allowed, "super admin denied %s", action)
	}
}

func TestCrossTenantDenied(t *testing.T) {
	officer := identity(models.RoleOfficer, tenantA)

	d := Decide(officer, tenantB, owner, models.ActionApprove)
	assert.False(t, d.Allowed)
	assert.Equal(t, common.ReasonCrossTenant, d.Reason)

	// Reads are tenant-confined too.
	d = Decide(officer, tenantB, owner, models.ActionRead)
	assert.False(t, d.Allowed)
	assert.Equal(t, common.ReasonCrossTenant, d.Reason)
}

func TestCreateIgnoresTenantMatch(t *testing.T) {
	applicant := identity(models.RoleApplicant, tenantA)

	// Create stamps the actor's own tenant, so the target tenant argument
	// is irrelevant.
	assert.True(t, Decide(applicant, tenantB, owner, models.ActionCreate).Allowed)
}

func TestApplicantOwnership(t *testing.T) {
	applicant := common.Identity{UserID: owner, TenantID: tenantA, Role: models.RoleApplicant}
	stranger := identity(models.RoleApplicant, tenantA)

	assert.True(t, Decide(applicant, tenantA, owner, models.ActionSubmit).Allowed)
	assert.True(t, Decide(applicant, tenantA, owner, models.ActionUpdate).Allowed)
	assert.True(t, Decide(applicant, tenantA, owner, models.ActionRead).Allowed)
	assert.True(t, Decide(applicant, tenantA, owner, models.ActionReadHistory).Allowed)

	d := Decide(stranger, tenantA, owner, models.ActionSubmit)
	assert.False(t, d.Allowed)
	assert.Equal(t, common.ReasonOwnership, d.Reason)
}

func TestApplicantCannotReview(t *testing.T) {
	applicant := common.Identity{UserID: owner, TenantID: tenantA, Role: models.RoleApplicant}

	for _, action := range []string{
		models.ActionBeginReview, models.ActionApprove, models.ActionReject,
		models.ActionRequestRevision, models.ActionRevoke, models.ActionDelete,
	} {
		d := Decide(applicant, tenantA, owner, action)
		assert.False(t, d.Allowed, "applicant allowed %s", action)
		assert.Equal(t, common.ReasonInsufficientRole, d.Reason)
	}
}

func TestReviewerActionsWithinTenant(t *testing.T) {
	for _, role := range []string{models.RoleOfficer, models.RoleTenantAdmin} {
		actor := identity(role, tenantA)
		for _, action := range []string{
			models.ActionBeginReview, models.ActionRequestRevision,
			models.ActionApprove, models.ActionReject, models.ActionRevoke,
			models.ActionRead, models.ActionUpdate, models.ActionDelete,
		} {
			assert.True(t, Decide(actor, tenantA, owner, action).Allowed, "%s denied %s", role, action)
		}
	}
}

func TestOfficerCannotCreateOrSubmit(t *testing.T) {
	officer := identity(models.RoleOfficer, tenantA)

	d := Decide(officer, tenantA, owner, models.ActionCreate)
	assert.False(t, d.Allowed)
	assert.Equal(t, common.ReasonInsufficientRole, d.Reason)

	d = Decide(officer, tenantA, owner, models.ActionSubmit)
	assert.False(t, d.Allowed)
	assert.Equal(t, common.ReasonInsufficientRole, d.Reason)
}

func TestUnknownRoleDeniedByDefault(t *testing.T) {
	ghost := identity("auditor", tenantA)

	d := Decide(ghost, tenantA, owner, models.ActionRead)
	assert.False(t, d.Allowed)
	assert.Equal(t, common.ReasonInsufficientRole, d.Reason)
}

func TestCheckReturnsForbiddenError(t *testing.T) {
	officer := identity(models.RoleOfficer, tenantA)

	err := Check(officer, tenantB, owner, models.ActionApprove)
	assert.Error(t, err)

	var forbidden *common.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
	assert.Equal(t, common.ReasonCrossTenant, forbidden.Reason)

	assert.NoError(t, Check(officer, tenantA, owner, models.ActionApprove))
}
