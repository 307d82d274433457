// Package access decides, for every request to a guarded path, whether it may
// proceed or must be redirected, based on the caller's session and role.
package access

import (
	"context"
	"strings"

	"github.com/trezcool/schooldesk/core/auth"
	"github.com/trezcool/schooldesk/core/user"
)

const (
	LoginPath       = "/auth/login"
	RegisterPath    = "/auth/register"
	AdminHomePath   = "/admin/dashboard"
	StudentHomePath = "/student/dashboard"

	adminPrefix   = "/admin"
	studentPrefix = "/student"
	authPrefix    = "/auth"
)

var (
	guardedPrefixes       = []string{adminPrefix, studentPrefix, authPrefix}
	authenticatedPrefixes = []string{adminPrefix, studentPrefix}
	authOnlyPages         = []string{LoginPath, RegisterPath}
)

type Outcome int

const (
	Allow Outcome = iota
	Redirect
	// SignOut means the session has been destroyed and the client must be sent to Location.
	SignOut
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case SignOut:
		return "signout"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating the guard for one request.
// User & Session are set whenever the caller was identified.
// Err holds the failure that caused a fail-closed decision, for logging.
type Decision struct {
	Outcome  Outcome
	Location string
	Rule     string
	User     *user.User
	Session  *auth.Session
	Err      error
}

type (
	// Identity is the request's view of the session backend.
	Identity interface {
		// Session returns the current session, or nil if there is none.
		Session(ctx context.Context) (*auth.Session, error)
		SignOut(ctx context.Context) error
	}

	Users interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}
)

// request is what the rules see: the path plus everything resolved about the caller.
type request struct {
	id      Identity
	path    string
	sess    *auth.Session
	sessErr error
	usr     *user.User
	usrErr  error
}

type rule struct {
	name    string
	matches func(r request) bool
	decide  func(ctx context.Context, r request) Decision
}

// rules are evaluated top to bottom; the first match decides.
var rules = []rule{
	{
		name:    "session-error",
		matches: func(r request) bool { return r.sessErr != nil && underAny(r.path, authenticatedPrefixes) },
		decide:  redirectTo(LoginPath),
	},
	{
		// the login page itself must stay reachable while the session backend is down
		name:    "session-error-public",
		matches: func(r request) bool { return r.sessErr != nil },
		decide:  allowAnonymous,
	},
	{
		name:    "unauthenticated",
		matches: func(r request) bool { return r.sess == nil && underAny(r.path, authenticatedPrefixes) },
		decide:  redirectTo(LoginPath),
	},
	{
		name:    "anonymous",
		matches: func(r request) bool { return r.sess == nil },
		decide:  allow,
	},
	{
		name:    "stale-identity",
		matches: func(r request) bool { return r.usrErr != nil || r.usr == nil },
		decide:  signOut,
	},
	{
		name:    "auth-page",
		matches: func(r request) bool { return underAny(r.path, authOnlyPages) },
		decide: func(ctx context.Context, r request) Decision {
			return redirectTo(HomePath(r.usr.Role))(ctx, r)
		},
	},
	{
		name:    "admin-on-student",
		matches: func(r request) bool { return r.usr.IsAdmin() && under(r.path, studentPrefix) },
		decide:  redirectTo(AdminHomePath),
	},
	{
		name:    "student-on-admin",
		matches: func(r request) bool { return !r.usr.IsAdmin() && under(r.path, adminPrefix) },
		decide:  redirectTo(StudentHomePath),
	},
	{
		name:    "default",
		matches: func(request) bool { return true },
		decide:  allow,
	},
}

// RuleNames lists the rule names in evaluation order.
func RuleNames() []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.name)
	}
	return names
}

type Guard struct {
	users Users
}

func NewGuard(users Users) *Guard {
	return &Guard{users: users}
}

// Applies reports whether path is guarded at all.
func (g *Guard) Applies(path string) bool {
	return underAny(path, guardedPrefixes)
}

// Decide evaluates the rules for path. It never returns an error: a failure to
// establish the caller's identity ends in a redirect to the login page, or in an
// anonymous pass on the pages that need no identity.
func (g *Guard) Decide(ctx context.Context, path string, id Identity) Decision {
	r := request{id: id, path: path}
	r.sess, r.sessErr = id.Session(ctx)
	if r.sessErr == nil && r.sess != nil {
		usr, err := g.users.GetByID(ctx, r.sess.UserID)
		if err != nil {
			r.usrErr = err
		} else {
			r.usr = &usr
		}
	}

	for _, rl := range rules {
		if rl.matches(r) {
			d := rl.decide(ctx, r)
			d.Rule = rl.name
			return d
		}
	}
	return Decision{Outcome: Allow} // unreachable: "default" always matches
}

// HomePath is where a role lands after signing in.
func HomePath(role user.Role) string {
	if role == user.RoleAdmin {
		return AdminHomePath
	}
	return StudentHomePath
}

func allow(_ context.Context, r request) Decision {
	return Decision{Outcome: Allow, User: r.usr, Session: r.sess}
}

// allowAnonymous lets the request through with no identity attached.
func allowAnonymous(_ context.Context, r request) Decision {
	return Decision{Outcome: Allow, Err: r.sessErr}
}

func redirectTo(location string) func(context.Context, request) Decision {
	return func(_ context.Context, r request) Decision {
		return Decision{Outcome: Redirect, Location: location, User: r.usr, Session: r.sess, Err: r.sessErr}
	}
}

// signOut destroys the session. The redirect to login happens even if that fails.
func signOut(ctx context.Context, r request) Decision {
	err := r.usrErr
	if soErr := r.id.SignOut(ctx); soErr != nil && err == nil {
		err = soErr
	}
	return Decision{Outcome: SignOut, Location: LoginPath, Session: r.sess, Err: err}
}

// under reports whether path is prefix itself or below it, segment-wise.
func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func underAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if under(path, prefix) {
			return true
		}
	}
	return false
}
