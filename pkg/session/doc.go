// Package session persists the per-browser session envelope: the bearer
// token issued by the GrowWise API, the authoritative role, the landing-page
// role preference and the last fetched user profile.
//
// The envelope is the only durable copy of the credential. A browser carries
// nothing but an encrypted cookie naming the envelope; everything that needs
// to know "is there a token" reads the envelope through a Manager.
//
//	┌─────────┐ cookie  ┌───────────┐        ┌───────────────┐
//	│ Browser │ ──────► │ Transport │ ─────► │    Manager    │
//	└─────────┘         └───────────┘        └───────┬───────┘
//	                                                 │ Get / Save / Update
//	                                          ┌──────▼──────┐
//	                                          │    Store    │ memory | redis
//	                                          └─────────────┘
//
// Writers go through Manager.Update, an atomic read-modify-write. Each
// envelope carries an Epoch that is bumped whenever the credential changes,
// so a network call that started under an older credential can detect that
// its result is stale and drop it.
//
// A Manager has a boot id. A profile fetched under a different boot id is
// hidden on load, which makes a restarted process re-fetch identities instead
// of trusting whatever it finds in durable storage.
//
// Manager.Rotate moves an envelope to a fresh id when it gains privileges,
// so an id handed out before sign-in never names a signed-in session.
package session
