package auth

import (
	"context"

	"github.com/dmitrymomot/growwise/pkg/apiclient"
	"github.com/dmitrymomot/growwise/pkg/session"
)

// SessionTokenSource reads the bearer token of the request's session from
// the store on every call, so no second copy of the token exists.
func SessionTokenSource(sessions *session.Manager) apiclient.TokenSource {
	return apiclient.TokenSourceFunc(func(ctx context.Context) (apiclient.Credential, bool) {
		sid := session.IDFromContext(ctx)
		if sid == "" {
			return apiclient.Credential{}, false
		}
		s, err := sessions.Get(ctx, sid)
		if err != nil || !s.Authenticated() {
			return apiclient.Credential{SessionID: sid}, false
		}
		return apiclient.Credential{SessionID: sid, Token: s.AccessToken, Epoch: s.Epoch}, true
	})
}
