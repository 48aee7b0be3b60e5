package auth

import "context"

// Identity is the authenticated admin behind a request.
type Identity struct {
	AdminID  string `json:"admin_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
