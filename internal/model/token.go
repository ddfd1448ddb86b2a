package model

import "time"

// SessionData contains the data stored with a session token. Identity is
// resolved upstream; the negotiation core only trusts the UserID.
type SessionData struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}
