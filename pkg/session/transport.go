package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/growwise/pkg/cookie"
)

// Transport carries the session id between browser and server.
type Transport interface {
	// GetID extracts the session id from the request.
	GetID(r *http.Request) (string, error)

	// SetID sends the session id in the response.
	SetID(w http.ResponseWriter, id string, ttl time.Duration) error
}

// CookieTransport stores the id in an encrypted cookie.
type CookieTransport struct {
	cookieMgr     *cookie.Manager
	cookieName    string
	secureCookies bool
	options       []cookie.Option
}

// NewCookieTransport creates a cookie-based transport.
func NewCookieTransport(cookieMgr *cookie.Manager, cookieName string, secureCookies bool, opts ...cookie.Option) *CookieTransport {
	return &CookieTransport{
		cookieMgr:     cookieMgr,
		cookieName:    cookieName,
		secureCookies: secureCookies,
		options:       opts,
	}
}

func (t *CookieTransport) GetID(r *http.Request) (string, error) {
	id, err := t.cookieMgr.GetEncrypted(r, t.cookieName)
	if err != nil || id == "" {
		return "", ErrSessionNotFound
	}
	return id, nil
}

func (t *CookieTransport) SetID(w http.ResponseWriter, id string, ttl time.Duration) error {
	opts := []cookie.Option{
		cookie.WithMaxAge(int(ttl.Seconds())),
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	}
	if t.secureCookies {
		opts = append(opts, cookie.WithSecure(true))
	}
	opts = append(opts, t.options...)

	return t.cookieMgr.SetEncrypted(w, t.cookieName, id, opts...)
}

// HeaderTransport reads the id from a request header. Used by API clients
// and tests that do not keep cookies.
type HeaderTransport struct {
	headerName string
	prefix     string
}

// NewHeaderTransport creates a header-based transport with a "Bearer " prefix.
func NewHeaderTransport(headerName string) *HeaderTransport {
	return &HeaderTransport{headerName: headerName, prefix: "Bearer "}
}

func (t *HeaderTransport) GetID(r *http.Request) (string, error) {
	value := strings.TrimPrefix(r.Header.Get(t.headerName), t.prefix)
	if value == "" {
		return "", ErrSessionNotFound
	}
	return value, nil
}

func (t *HeaderTransport) SetID(w http.ResponseWriter, id string, ttl time.Duration) error {
	w.Header().Set(t.headerName, t.prefix+id)
	return nil
}
