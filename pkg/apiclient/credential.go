package apiclient

import "context"

// Credential is the bearer token a request was sent with, tagged with the
// session it belongs to and the session epoch it was read at.
type Credential struct {
	SessionID string
	Token     string
	Epoch     uint64
}

// TokenSource returns the credential for the session bound to ctx.
type TokenSource interface {
	Credential(ctx context.Context) (Credential, bool)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (Credential, bool)

func (f TokenSourceFunc) Credential(ctx context.Context) (Credential, bool) {
	return f(ctx)
}

// UnauthorizedHandler reacts to a 401 from a protected endpoint.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context, cred Credential)
}

// UnauthorizedFunc adapts a function to UnauthorizedHandler.
type UnauthorizedFunc func(ctx context.Context, cred Credential)

func (f UnauthorizedFunc) HandleUnauthorized(ctx context.Context, cred Credential) {
	f(ctx, cred)
}

type credentialKey struct{}

// WithCredential pins the credential for requests made with the returned
// context; the TokenSource is not consulted.
func WithCredential(ctx context.Context, cred Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, cred)
}

func pinnedCredential(ctx context.Context) (Credential, bool) {
	cred, ok := ctx.Value(credentialKey{}).(Credential)
	return cred, ok
}
