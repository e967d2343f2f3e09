package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The API signs its tokens; this process only peeks at the claims and never
// trusts them for anything the API would not re-check.
var claimsParser = jwt.NewParser()

func parseClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := claimsParser.ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// RoleFromToken reads the "role" claim of a JWT access token.
func RoleFromToken(token string) Role {
	claims, ok := parseClaims(token)
	if !ok {
		return ""
	}
	raw, _ := claims["role"].(string)
	return NormalizeRole(raw)
}

// TokenExpired reports whether the token carries an "exp" claim in the past.
// Opaque tokens and tokens without exp never expire here.
func TokenExpired(token string, now time.Time) bool {
	claims, ok := parseClaims(token)
	if !ok {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
