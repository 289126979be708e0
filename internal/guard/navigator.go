package guard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownRoute = errors.New("unknown route")
	ErrRedirectLoop = errors.New("redirect loop")
)

const maxRedirectHops = 4

// Route binds a path prefix to its group.
type Route struct {
	Prefix string
	Group  RouteGroup
}

// RouteTable resolves a path to the route group with the longest matching
// prefix. Prefixes match on whole path segments.
type RouteTable struct {
	routes []Route
}

func NewRouteTable(routes ...Route) *RouteTable {
	sorted := append([]Route(nil), routes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &RouteTable{routes: sorted}
}

// DefaultRoutes is the navigation layout of the mobile app.
func DefaultRoutes() *RouteTable {
	return NewRouteTable(
		Route{Prefix: "/auth", Group: RouteGroup{Name: "auth", Entry: true}},
		Route{Prefix: "/patient", Group: RouteGroup{Name: "patient", AllowedRoles: []Role{RolePatient}}},
		Route{Prefix: "/doctor", Group: RouteGroup{Name: "doctor", AllowedRoles: []Role{RoleDoctor}}},
		Route{Prefix: "/pharmacist", Group: RouteGroup{Name: "pharmacist", AllowedRoles: []Role{RolePharmacist}}},
		Route{Prefix: "/payment", Group: RouteGroup{Name: "payment", AllowedRoles: []Role{RolePatient}}},
		Route{Prefix: "/appointments", Group: RouteGroup{Name: "appointments", AllowedRoles: []Role{RolePatient, RoleDoctor}}},
		Route{Prefix: "/prescriptions", Group: RouteGroup{Name: "prescriptions", AllowedRoles: Roles}},
	)
}

func (t *RouteTable) Lookup(path string) (RouteGroup, bool) {
	path = "/" + strings.Trim(strings.SplitN(path, "?", 2)[0], "/")
	for _, r := range t.routes {
		if path == r.Prefix || strings.HasPrefix(path, strings.TrimRight(r.Prefix, "/")+"/") {
			return r.Group, true
		}
	}
	return RouteGroup{}, false
}

// Resolve evaluates path and follows redirects until a route renders.
func (t *RouteTable) Resolve(session AuthSession, path string) (string, Decision, error) {
	var first Decision
	current := path
	seen := map[string]bool{}
	for hop := 0; hop <= maxRedirectHops; hop++ {
		if seen[current] {
			break
		}
		seen[current] = true

		group, ok := t.Lookup(current)
		if !ok {
			return "", Decision{}, fmt.Errorf("%w: %s", ErrUnknownRoute, current)
		}
		d := Evaluate(session, group)
		if hop == 0 {
			first = d
		}
		if !d.Redirect {
			return current, first, nil
		}
		current = d.Target
	}
	return "", Decision{}, fmt.Errorf("%w: starting at %s", ErrRedirectLoop, path)
}

// Navigator keeps the current location of one client consistent with its
// session. It re-runs the guard on every navigation and every session change.
type Navigator struct {
	table *RouteTable
	store *SessionStore

	mu       sync.Mutex
	location string
	decision Decision
	onChange func(location string, d Decision)
	cancel   func()
}

// NewNavigator starts at path. onChange, if set, is called whenever a session
// change moves the client to another route.
func NewNavigator(table *RouteTable, store *SessionStore, path string, onChange func(string, Decision)) (*Navigator, error) {
	n := &Navigator{table: table, store: store, onChange: onChange}
	if _, _, err := n.Navigate(path); err != nil {
		return nil, err
	}
	n.cancel = store.Subscribe(n.sessionChanged)
	return n, nil
}

func (n *Navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// Current returns the location together with the decision that led there.
func (n *Navigator) Current() (string, Decision) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location, n.decision
}

// Navigate moves to path, or wherever the guard sends the session instead.
func (n *Navigator) Navigate(path string) (string, Decision, error) {
	final, d, err := n.table.Resolve(n.store.Snapshot(), path)
	if err != nil {
		return "", Decision{}, err
	}
	n.mu.Lock()
	n.location = final
	n.decision = d
	n.mu.Unlock()
	return final, d, nil
}

func (n *Navigator) Close() {
	if n.cancel != nil {
		n.cancel()
	}
}

func (n *Navigator) sessionChanged(session AuthSession) {
	n.mu.Lock()
	current := n.location
	n.mu.Unlock()

	final, d, err := n.table.Resolve(session, current)
	if err != nil || final == current {
		return
	}

	n.mu.Lock()
	n.location = final
	n.decision = d
	n.mu.Unlock()
	if n.onChange != nil {
		n.onChange(final, d)
	}
}
