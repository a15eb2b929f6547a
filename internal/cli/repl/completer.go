package repl

import (
	"strings"

	"github.com/kinance/kinance-go/internal/client/state"
)

// Completer resolves and completes shell commands.
type Completer struct {
	routes []Route
}

// NewCompleter creates a Completer over routes. Order is preserved.
func NewCompleter(routes []Route) *Completer {
	return &Completer{routes: routes}
}

// Route looks a command up by name or alias.
func (c *Completer) Route(name string) (Route, bool) {
	for _, r := range c.routes {
		if r.matches(name) {
			return r, true
		}
	}
	return Route{}, false
}

// Routes returns the routes reachable in snapshot s.
func (c *Completer) Routes(s state.Snapshot) []Route {
	var out []Route
	for _, r := range c.routes {
		if r.Allowed(s) {
			out = append(out, r)
		}
	}
	return out
}

// Complete returns the reachable commands starting with prefix, including
// "<command> <subcommand>" forms.
func (c *Completer) Complete(prefix string, s state.Snapshot) []string {
	var suggestions []string
	for _, r := range c.Routes(s) {
		if strings.HasPrefix(r.Name, prefix) {
			suggestions = append(suggestions, r.Name)
		}
		for _, sub := range r.Subcommands {
			if full := r.Name + " " + sub; strings.HasPrefix(full, prefix) {
				suggestions = append(suggestions, full)
			}
		}
	}
	return suggestions
}
