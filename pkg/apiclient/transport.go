package apiclient

import (
	"net/http"
	"strings"
)

// Endpoints that exchange or create credentials. They never carry a bearer
// token and a 401 from them is a failed sign-in, not an expired session.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
)

type transport struct {
	base           http.RoundTripper
	basePath       string
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	exempt := t.isAuthEndpoint(req.URL.Path)

	var cred Credential
	if !exempt {
		var ok bool
		if cred, ok = pinnedCredential(ctx); !ok && t.tokens != nil {
			cred, _ = t.tokens.Credential(ctx)
		}
		if cred.Token != "" {
			req = req.Clone(ctx)
			req.Header.Set("Authorization", "Bearer "+cred.Token)
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !exempt && t.onUnauthorized != nil {
		t.onUnauthorized.HandleUnauthorized(ctx, cred)
	}
	return resp, nil
}

func (t *transport) isAuthEndpoint(path string) bool {
	path = strings.TrimPrefix(path, t.basePath)
	path = "/" + strings.Trim(path, "/")
	return path == PathLogin || path == PathRegister
}
