// Package auth owns the GrowWise sign-in lifecycle on top of the persisted
// session envelope:
//
//   - Service: login, register, logout, identity fetch and error reset
//   - Invalidator: the single teardown path run when the API answers 401
//   - Guard: chi-compatible middleware gating pages behind a token and a role
//
// Only the access token in the envelope decides whether a browser is signed
// in. The role used for gating is the one returned by the login call, never
// the role on the cached profile.
package auth
