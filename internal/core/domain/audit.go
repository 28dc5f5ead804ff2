package domain

import "time"

// AuthEventType names a security-relevant action recorded in the audit trail.
type AuthEventType string

const (
	EventRegister  AuthEventType = "register"
	EventLogin     AuthEventType = "login"
	EventLogout    AuthEventType = "logout"
	EventBootstrap AuthEventType = "bootstrap"
)

// AuthEvent is one audit-trail entry. Reason is empty on success.
type AuthEvent struct {
	Type    AuthEventType `json:"type" bson:"type"`
	Email   string        `json:"email" bson:"email"`
	UserID  string        `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Success bool          `json:"success" bson:"success"`
	Reason  string        `json:"reason,omitempty" bson:"reason,omitempty"`
	At      time.Time     `json:"at" bson:"at"`
}
