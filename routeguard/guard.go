// Package routeguard decides, for each navigation attempt, whether the
// current session may enter the target route. The decision is a pure
// function of the target's metadata and the session; the guard holds no
// state of its own and plugs into any navigation layer via Decide.
package routeguard

import "github.com/clinicore/clinicore-go/session"

// Destination names a navigation target for redirects.
type Destination string

// Known destinations.
const (
	DestLogin       Destination = "login"
	DestHome        Destination = "home"
	DestAdminHome   Destination = "admin"
	DestDoctorHome  Destination = "doctor"
	DestPatientHome Destination = "patient"
)

// Route is the navigation target's guard metadata.
type Route struct {
	// RequiresAuth gates the route behind an authenticated session.
	RequiresAuth bool
	// Role, when set, additionally restricts the route to one role.
	Role session.Role
}

// Decision is the guard's verdict. When Allow is false, Redirect names
// where the navigation should go instead.
type Decision struct {
	Allow    bool
	Redirect Destination
}

// allow is the verdict for permitted navigation.
var allow = Decision{Allow: true}

// Decide evaluates one navigation attempt.
//
// Routes without RequiresAuth always pass, whatever the session state.
// Unauthenticated sessions are sent to login. An authenticated session
// whose role does not match the route's requirement is sent to its own
// role's dashboard, or to the generic home when the role is unknown.
func Decide(target Route, sess session.Session) Decision {
	if !target.RequiresAuth {
		return allow
	}
	if !sess.Authenticated() {
		return Decision{Redirect: DestLogin}
	}
	if target.Role != "" && sess.Role() != target.Role {
		return Decision{Redirect: HomeFor(sess.Role())}
	}
	return allow
}

// HomeFor maps a role to its dashboard destination. Unknown roles map to
// the generic home.
func HomeFor(role session.Role) Destination {
	switch role {
	case session.RoleAdmin:
		return DestAdminHome
	case session.RoleDoctor:
		return DestDoctorHome
	case session.RolePatient:
		return DestPatientHome
	default:
		return DestHome
	}
}
