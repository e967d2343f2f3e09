// Package account serves the landing page and the sign-in, sign-up,
// sign-out and role selection endpoints.
package account
