package session

import "time"

// Profile is the identity returned by the API's /users/me endpoint.
// It is replaced as a whole, never patched.
type Profile struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Avatar    string `json:"avatar,omitempty"`
	ManagerID *int64 `json:"manager_id,omitempty"`
}

// Session is the persisted envelope for one browser.
type Session struct {
	ID string `json:"id"`

	AccessToken string `json:"access_token,omitempty"`
	// Role is the role returned by the API on login. Only a successful login sets it.
	Role string `json:"role,omitempty"`
	// SelectedRole is the role card picked on the landing page before signing in.
	SelectedRole string `json:"selected_role,omitempty"`

	User             *Profile `json:"user,omitempty"`
	IdentityBoot     string   `json:"identity_boot,omitempty"`
	IdentityFailures int      `json:"identity_failures,omitempty"`

	Error string `json:"error,omitempty"`
	Epoch uint64 `json:"epoch"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// CookieExpiresAt is the expiry last sent to the client.
	CookieExpiresAt time.Time `json:"cookie_expires_at"`
}

// Authenticated reports whether the envelope holds a bearer token.
// A cached User never makes a session authenticated on its own.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// Identity returns the profile when the session is authenticated.
func (s *Session) Identity() *Profile {
	if !s.Authenticated() {
		return nil
	}
	return s.User
}

// SignIn stores a fresh credential and starts a new epoch.
// The previous profile is dropped; it belongs to the old credential.
func (s *Session) SignIn(token, role string) {
	s.AccessToken = token
	s.Role = role
	s.User = nil
	s.IdentityBoot = ""
	s.IdentityFailures = 0
	s.Error = ""
	s.Epoch++
}

// SignOut clears the credential, role, profile and last error. A new epoch
// starts only if there was something to clear, so repeated calls leave the
// envelope unchanged.
func (s *Session) SignOut() {
	if s.AccessToken != "" || s.Role != "" || s.User != nil {
		s.Epoch++
	}
	s.AccessToken = ""
	s.Role = ""
	s.User = nil
	s.IdentityBoot = ""
	s.IdentityFailures = 0
	s.Error = ""
}

// IsExpired reports whether the envelope outlived its TTL.
func (s *Session) IsExpired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.User != nil {
		u := *s.User
		if s.User.ManagerID != nil {
			id := *s.User.ManagerID
			u.ManagerID = &id
		}
		c.User = &u
	}
	return &c
}
