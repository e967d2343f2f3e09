// Package feedback wraps the GrowWise feedback, team and notification
// endpoints. The payloads are decoded into plain structs and passed to the
// views unchanged; this package holds no state of its own.
//
// Every call goes through the shared API client, so the bearer token of the
// request's session is attached and a 401 ends that session.
package feedback
