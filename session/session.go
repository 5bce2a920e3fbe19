// Package session holds the authenticated-user state kept on the client side:
// the access/refresh token pair and the signed-in user's record. The Session
// value itself is inert data; all mutation goes through a Store implementation
// so that in-memory state and persistent state can never drift apart.
package session

import "encoding/json"

// Role identifies which part of the application a user may operate.
type Role string

// Known roles. The set is closed on the server side; a Session may still
// carry an unknown role, which matches no guard rule.
const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// User is the signed-in user's record as returned by the /auth endpoints.
// Profile carries the role-specific profile document (doctor or patient
// details) verbatim; this package never inspects it.
type User struct {
	ID      int             `json:"id"`
	Email   string          `json:"email"`
	Role    Role            `json:"role"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

// Session is the complete client-side authentication state. The zero value
// is a valid, unauthenticated session.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// Authenticated reports whether the session holds an access token. It is
// derived from token presence alone: a stale User record with no access
// token still counts as unauthenticated.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Role returns the signed-in user's role, or the empty role when no user
// record is present.
func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// IsAdmin reports whether the session belongs to an admin user.
func (s Session) IsAdmin() bool { return s.Role() == RoleAdmin }

// IsDoctor reports whether the session belongs to a doctor.
func (s Session) IsDoctor() bool { return s.Role() == RoleDoctor }

// IsPatient reports whether the session belongs to a patient.
func (s Session) IsPatient() bool { return s.Role() == RolePatient }
