package auth

import "context"

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached by WithIdentity, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok {
		return nil
	}
	return &id
}
