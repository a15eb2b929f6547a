package repl

import (
	"fmt"

	"github.com/kinance/kinance-go/internal/client/state"
)

// Access says in which session states a route is reachable.
type Access int

const (
	// Public routes are reachable in every state.
	Public Access = iota
	// GuestOnly routes are the auth screens, hidden once signed in.
	GuestOnly
	// MemberOnly routes need an authenticated session.
	MemberOnly
)

func (a Access) String() string {
	switch a {
	case GuestOnly:
		return "guest"
	case MemberOnly:
		return "member"
	default:
		return "public"
	}
}

// Route is one top-level shell command.
type Route struct {
	Name        string
	Aliases     []string
	Usage       string
	Subcommands []string
	Access      Access
}

// Allowed reports whether the route is reachable in snapshot s.
func (r Route) Allowed(s state.Snapshot) bool {
	switch r.Access {
	case GuestOnly:
		return !s.IsAuthenticated
	case MemberOnly:
		return s.IsAuthenticated
	default:
		return true
	}
}

// denial explains why the route is not reachable in s.
func (r Route) denial(s state.Snapshot) string {
	switch r.Access {
	case GuestOnly:
		return fmt.Sprintf("Already signed in as %s. Use 'logout' first.", displayName(s))
	case MemberOnly:
		return fmt.Sprintf("'%s' requires sign-in. Use 'login' or 'register'.", r.Name)
	default:
		return ""
	}
}

func (r Route) matches(name string) bool {
	if r.Name == name {
		return true
	}
	for _, a := range r.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// displayName is the label used for the signed-in user.
func displayName(s state.Snapshot) string {
	if !s.IsAuthenticated || s.User == nil {
		return "unknown user"
	}
	if s.User.Email != "" {
		return s.User.Email
	}
	return s.User.FullName()
}
