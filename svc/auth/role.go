package auth

import (
	"strings"

	"golang.org/x/text/cases"
)

// Role is a normalized GrowWise role tag.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// NormalizeRole maps any case variant of a known role to its tag.
// Unknown values yield the empty role.
func NormalizeRole(raw string) Role {
	// A Caser is stateful, so each call gets its own.
	switch Role(cases.Fold().String(strings.TrimSpace(raw))) {
	case RoleManager:
		return RoleManager
	case RoleEmployee:
		return RoleEmployee
	}
	return ""
}

func (r Role) Valid() bool {
	return r == RoleManager || r == RoleEmployee
}

func (r Role) String() string {
	return string(r)
}

// HomePath is the dashboard a role lands on after signing in.
func (r Role) HomePath() string {
	if !r.Valid() {
		return "/"
	}
	return "/dashboard/" + string(r)
}
