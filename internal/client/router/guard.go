package router

// SessionState is what the guard needs to know about the session.
type SessionState struct {
	Authenticated bool
	Craftsman     bool
}

// Decision is the outcome of a guarded navigation.
type Decision int

const (
	Allow Decision = iota
	// RedirectLogin sends an anonymous user to the login page.
	RedirectLogin
	// RedirectUpgrade sends a logged-in user without the craftsman role to
	// the role application page.
	RedirectUpgrade
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectUpgrade:
		return "redirect-upgrade"
	default:
		return "unknown"
	}
}

// Guard decides whether state may enter route. Rules are checked in order:
// authentication first, then the craftsman role.
func Guard(route Route, state SessionState) Decision {
	if route.RequiresAuth && !state.Authenticated {
		return RedirectLogin
	}
	if route.RequiresAuth && route.RequiresCraftsman && !state.Craftsman {
		return RedirectUpgrade
	}
	return Allow
}
