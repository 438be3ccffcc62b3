package domain

import "time"

// AuthEventType names an entry in the authentication audit trail.
type AuthEventType string

const (
	EventRegistered   AuthEventType = "registered"
	EventLoginSuccess AuthEventType = "login_success"
	EventLoginFailure AuthEventType = "login_failure"
	EventRefreshed    AuthEventType = "token_refreshed"
	EventLoggedOut    AuthEventType = "logged_out"
	EventActivation   AuthEventType = "activation_changed"
)

// AuthEvent is a single audit record. UserID is empty when the principal could
// not be identified (e.g. a failed login for an unknown email).
type AuthEvent struct {
	Type      AuthEventType
	UserID    string
	Email     string
	Reason    string
	Timestamp time.Time
}
