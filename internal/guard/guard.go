// Package guard decides, for every navigation, whether the current session may
// see a route group or must be redirected.
package guard

// RouteGroup is a navigation subtree and the roles allowed inside it.
type RouteGroup struct {
	Name         string
	AllowedRoles []Role
	// Entry marks the unauthenticated entry group (login, register).
	Entry bool
}

func (g RouteGroup) Allows(r Role) bool {
	for _, allowed := range g.AllowedRoles {
		if allowed == r {
			return true
		}
	}
	return false
}

type Reason string

const (
	ReasonAuthorized      Reason = "authorized"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonAlreadySignedIn Reason = "already_signed_in"
	ReasonRoleNotAllowed  Reason = "role_not_allowed"
	ReasonMissingRole     Reason = "missing_role"
)

// Decision is the outcome of one guard evaluation. Target is set only when
// Redirect is true.
type Decision struct {
	Redirect bool
	Target   string
	Reason   Reason
}

func allow(reason Reason) Decision {
	return Decision{Reason: reason}
}

func redirect(target string, reason Reason) Decision {
	return Decision{Redirect: true, Target: target, Reason: reason}
}

// Evaluate applies the guard rules in order:
//
//	A: no token outside the entry group  -> entry route
//	B: token inside the entry group      -> role home
//	C: role not allowed in the group     -> role home
//
// A token without a role never redirects. Evaluate is pure.
func Evaluate(session AuthSession, group RouteGroup) Decision {
	if !session.Authenticated() {
		if group.Entry {
			return allow(ReasonAuthorized)
		}
		return redirect(EntryRoute, ReasonUnauthenticated)
	}

	if !session.Role.Valid() {
		return allow(ReasonMissingRole)
	}

	if group.Entry {
		return redirect(session.Role.Home(), ReasonAlreadySignedIn)
	}
	if !group.Allows(session.Role) {
		return redirect(session.Role.Home(), ReasonRoleNotAllowed)
	}
	return allow(ReasonAuthorized)
}
