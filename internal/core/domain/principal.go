package domain

import "context"

// Principal is the identity reconstructed from session state for one request.
type Principal struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
}

// Complete reports whether every field required to trust the principal is set.
// Name is display-only and may be empty.
func (p Principal) Complete() bool {
	return p.UserID != "" && p.Email != "" && p.Role.Valid()
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal attached to ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.Complete()
}
