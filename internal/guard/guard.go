// internal/guard/guard.go
package guard

import (
	"path"
	"strings"

	"backcheck-service/internal/session"
	"backcheck-service/pkg/models"
)

type State int

const (
	Loading State = iota
	Unauthenticated
	AuthenticatedTalent
	AuthenticatedEmployer
	AuthenticatedAdmin
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case AuthenticatedTalent:
		return "talent"
	case AuthenticatedEmployer:
		return "employer"
	case AuthenticatedAdmin:
		return "admin"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	SignInRoute  = "/login"
	LandingRoute = "/"

	TalentHome   = "/dashboard/talent/profile"
	EmployerHome = "/dashboard/employer/search"
	AdminHome    = "/admin/dashboard"
)

var publicRoutes = map[string]bool{
	"/":                  true,
	"/about":             true,
	"/features":          true,
	"/how-it-works":      true,
	"/pricing":           true,
	"/contact":           true,
	"/login":             true,
	"/register/talent":   true,
	"/register/employer": true,
}

// authRoutes are public pages that signed-in principals are bounced off.
var authRoutes = map[string]bool{
	"/login":             true,
	"/register/talent":   true,
	"/register/employer": true,
}

var rolePrefixes = []struct {
	prefix string
	role   models.Role
}{
	{"/dashboard/talent", models.RoleTalent},
	{"/dashboard/employer", models.RoleEmployer},
	{"/admin", models.RoleAdmin},
}

// redirectAllowList bounds the sign-in redirect parameter.
var redirectAllowList = []string{"/dashboard/talent", "/dashboard/employer"}

// StateOf derives the guard state from a session snapshot. A principal
// without a profile document is treated as a guest.
func StateOf(snap session.Snapshot) State {
	if snap.Loading {
		return Loading
	}
	if snap.Profile == nil {
		return Unauthenticated
	}
	switch snap.Profile.Role() {
	case models.RoleTalent:
		return AuthenticatedTalent
	case models.RoleEmployer:
		return AuthenticatedEmployer
	case models.RoleAdmin:
		return AuthenticatedAdmin
	}
	return Unauthenticated
}

func (s State) Role() models.Role {
	switch s {
	case AuthenticatedTalent:
		return models.RoleTalent
	case AuthenticatedEmployer:
		return models.RoleEmployer
	case AuthenticatedAdmin:
		return models.RoleAdmin
	}
	return ""
}

// HomeRoute is the canonical landing page for role.
func HomeRoute(role models.Role) string {
	switch role {
	case models.RoleTalent:
		return TalentHome
	case models.RoleEmployer:
		return EmployerHome
	case models.RoleAdmin:
		return AdminHome
	}
	return LandingRoute
}

// Decision is the outcome of one navigation attempt.
type Decision struct {
	State    State  `json:"state"`
	Path     string `json:"path"`
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
	Pending  bool   `json:"pending,omitempty"`
}

// Decide evaluates a navigation to path. It is re-run on every route
// change; nothing about the attempted route is remembered.
func Decide(state State, path string) Decision {
	path = Clean(path)
	d := Decision{State: state, Path: path}

	switch state {
	case Loading:
		d.Pending = true
		return d
	case Unauthenticated:
		if publicRoutes[path] {
			d.Allow = true
			return d
		}
		d.Redirect = SignInRoute
		return d
	}

	home := HomeRoute(state.Role())
	if authRoutes[path] || path == "/dashboard" {
		d.Redirect = home
		return d
	}
	if owner, ok := OwnerOf(path); ok && owner != state.Role() {
		d.Redirect = home
		return d
	}
	d.Allow = true
	return d
}

// OwnerOf reports which role owns path, if any.
func OwnerOf(path string) (models.Role, bool) {
	path = Clean(path)
	for _, rp := range rolePrefixes {
		if hasPathPrefix(path, rp.prefix) {
			return rp.role, true
		}
	}
	return "", false
}

// SignInRedirect returns where a principal of role lands after signing in.
// requested is honoured only if it is a plain path inside the allow-list
// that belongs to role.
func SignInRedirect(role models.Role, requested string) string {
	home := HomeRoute(role)
	if requested == "" || !isPlainPath(requested) {
		return home
	}
	path := Clean(requested)
	allowed := false
	for _, prefix := range redirectAllowList {
		if hasPathPrefix(path, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return home
	}
	if owner, ok := OwnerOf(path); !ok || owner != role {
		return home
	}
	return path
}

// Clean strips query and fragment and resolves the rest to a rooted path
// without dot segments, repeated slashes or a trailing slash.
func Clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// IsAuthRoute reports whether p is a sign-in or registration page.
func IsAuthRoute(p string) bool {
	return authRoutes[Clean(p)]
}

func isPlainPath(p string) bool {
	return strings.HasPrefix(p, "/") &&
		!strings.HasPrefix(p, "//") &&
		!strings.Contains(p, "\\") &&
		!strings.Contains(p, "://") &&
		!strings.Contains(p, "..")
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
