// Package authz implements the deny-by-default authorization matrix that
// guards every license operation. Decide is a pure function so it can back
// permission-check endpoints without touching the lifecycle engine; the
// engine always evaluates it before consulting the state machine.
package authz

import (
	"github.com/google/uuid"

	"perizinan/internal/common"
	"perizinan/internal/models"
)

// Decision is the outcome of an authorization check. Reason is set only
// when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// reviewerActions are the actions an officer or tenant admin may take on
// licenses within their own tenant.
var reviewerActions = map[string]bool{
	models.ActionBeginReview:     true,
	models.ActionRequestRevision: true,
	models.ActionApprove:         true,
	models.ActionReject:          true,
	models.ActionRevoke:          true,
	models.ActionExpire:          true,
	models.ActionRead:            true,
	models.ActionReadHistory:     true,
	models.ActionUpdate:          true,
	models.ActionDelete:          true,
}

// applicantOwnActions are the actions an applicant may take on licenses
// they own. Create is handled separately since no license exists yet.
var applicantOwnActions = map[string]bool{
	models.ActionSubmit:      true,
	models.ActionUpdate:      true,
	models.ActionRead:        true,
	models.ActionReadHistory: true,
}

// Decide evaluates (actor, license ownership, action) against the matrix.
// licenseTenantID and applicantID describe the target license; for create
// they are ignored because the license is stamped with the actor's tenant.
//
// Rules, in order: super admin always allowed; tenant mismatch denied
// (except create); applicants confined to their own licenses and the
// submit/update/read actions; officers and tenant admins get the review
// actions within their tenant; everything else is denied.
func Decide(actor common.Identity, licenseTenantID, applicantID uuid.UUID, action string) Decision {
	if actor.IsSuperAdmin() {
		return allow
	}

	if action == models.ActionCreate {
		if actor.Role == models.RoleApplicant {
			return allow
		}
		return deny(common.ReasonInsufficientRole)
	}

	if actor.TenantID != licenseTenantID {
		return deny(common.ReasonCrossTenant)
	}

	switch actor.Role {
	case models.RoleApplicant:
		if !applicantOwnActions[action] {
			return deny(common.ReasonInsufficientRole)
		}
		if actor.UserID != applicantID {
			return deny(common.ReasonOwnership)
		}
		return allow

	case models.RoleOfficer, models.RoleTenantAdmin:
		if reviewerActions[action] {
			return allow
		}
		return deny(common.ReasonInsufficientRole)
	}

	return deny(common.ReasonInsufficientRole)
}

// Check is the error-returning form of Decide used by the lifecycle engine.
func Check(actor common.Identity, licenseTenantID, applicantID uuid.UUID, action string) error {
	if d := Decide(actor, licenseTenantID, applicantID, action); !d.Allowed {
		return common.NewForbidden(d.Reason)
	}
	return nil
}
