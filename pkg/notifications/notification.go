package notifications

import "time"

// Type is the notice severity.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Notice is one queued message for a session.
type Notice struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
