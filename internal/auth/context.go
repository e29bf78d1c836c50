package auth

import "context"

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is the caller attached to the request context by JWTAuth.
// RoleID is nil for users without an assigned role; authorization fails
// closed on it.
type Identity struct {
	UserID string
	RoleID *uint
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) Identity {
	if v, ok := ctx.Value(identityKey).(Identity); ok {
		return v
	}
	return Identity{}
}

func Subject(ctx context.Context) string {
	return FromContext(ctx).UserID
}
