package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the verified caller attached to a request.
type Identity struct {
	UserID  uuid.UUID
	IsAdmin bool
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFrom extracts the identity placed by the auth gate.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// CanAccess reports whether the caller may act on a resource owned by owner.
// Admins may act on anything; ownerless resources are admin-only.
func (i Identity) CanAccess(owner *uuid.UUID) bool {
	if i.IsAdmin {
		return true
	}
	return owner != nil && *owner == i.UserID
}
