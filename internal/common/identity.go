package common

import (
	"context"

	"github.com/google/uuid"

	"perizinan/internal/models"
)

type contextKey string

const (
	// IdentityKey stores the resolved caller identity in the request context.
	IdentityKey contextKey = "identity"
)

// Identity is the resolved caller of a request: who they are, which tenant
// they belong to and what role they hold. It is passed explicitly into
// every core operation rather than read from ambient state.
type Identity struct {
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"` // uuid.Nil for platform super admins
	Role     string    `json:"role"`
}

// IsSuperAdmin reports whether the identity is a platform-wide super admin.
func (i Identity) IsSuperAdmin() bool {
	return i.Role == models.RoleSuperAdmin
}

// SystemIdentity returns the synthetic actor used for time-driven
// transitions such as license expiry.
func SystemIdentity() Identity {
	return Identity{UserID: uuid.Nil, TenantID: uuid.Nil, Role: models.RoleSuperAdmin}
}

// IdentityFromContext extracts the caller identity set by the JWT middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}
