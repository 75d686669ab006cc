package common

import (
	"errors"
	"fmt"
)

// Forbidden sub-reasons carried by ForbiddenError.
const (
	ReasonCrossTenant      = "cross_tenant_access_denied"
	ReasonOwnership        = "ownership_required"
	ReasonInsufficientRole = "insufficient_role"
)

// Sentinel errors for conditions without extra context.
var (
	ErrNotFound = errors.New("not found")

	// ErrTerminalStateImmutable is returned for content edits against an
	// approved/rejected/expired/revoked license.
	ErrTerminalStateImmutable = errors.New("license is in a terminal status and can no longer be modified")

	// ErrAllocationFailed means the sequence allocator could not guarantee a
	// unique number. Safe to retry.
	ErrAllocationFailed = errors.New("license number allocation failed")

	// ErrConcurrentModification means the optimistic version check failed:
	// another request committed a transition first. Safe to retry.
	ErrConcurrentModification = errors.New("license was modified concurrently")
)

// ForbiddenError is an authorization-matrix denial with a sub-reason.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// NewForbidden returns a ForbiddenError with the given sub-reason.
func NewForbidden(reason string) *ForbiddenError {
	return &ForbiddenError{Reason: reason}
}

// InvalidTransitionError is a state-machine denial. It names the current
// status and the attempted action; nothing was mutated.
type InvalidTransitionError struct {
	Status string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %q is not valid from status %q", e.Action, e.Status)
}

// ValidationError signals malformed input caught before the core logic.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}
