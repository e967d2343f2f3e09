package auth

import (
	"context"

	"github.com/dmitrymomot/growwise/pkg/session"
)

type profileContextKey struct{}

// WithProfile stores the authorized user's profile for handlers behind a Guard.
func WithProfile(ctx context.Context, p *session.Profile) context.Context {
	return context.WithValue(ctx, profileContextKey{}, p)
}

// ProfileFromContext returns the profile set by the Guard, or nil.
func ProfileFromContext(ctx context.Context) *session.Profile {
	p, _ := ctx.Value(profileContextKey{}).(*session.Profile)
	return p
}

// RoleFromContext returns the authoritative role of the guarded request.
func RoleFromContext(ctx context.Context) Role {
	if s, ok := session.FromContext(ctx); ok && s.Authenticated() {
		return NormalizeRole(s.Role)
	}
	return ""
}
