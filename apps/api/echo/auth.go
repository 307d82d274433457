package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/access"
	"github.com/trezcool/schooldesk/core/auth"
	"github.com/trezcool/schooldesk/core/user"
)

var (
	contextUserKey    = "user"
	contextSessionKey = "session"
)

// requestIdentity resolves the session carried by the request's cookie.
type requestIdentity struct {
	ctx     echo.Context
	authSvc *auth.Service
	conf    *core.Config
}

var _ access.Identity = requestIdentity{}

func (id requestIdentity) token() string {
	cookie, err := id.ctx.Cookie(id.conf.Session.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (id requestIdentity) Session(ctx context.Context) (*auth.Session, error) {
	token := id.token()
	if token == "" {
		return nil, nil
	}
	sess, err := id.authSvc.Resolve(ctx, token)
	if err != nil {
		if errors.Cause(err) == auth.ErrSessionNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (id requestIdentity) SignOut(ctx context.Context) error {
	clearSessionCookie(id.ctx, id.conf)
	return id.authSvc.SignOut(ctx, id.token())
}

func setSessionCookie(ctx echo.Context, conf *core.Config, token string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(ctx echo.Context, conf *core.Config) {
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   !conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

// guardMiddleware runs the access guard on every guarded path.
// Allowed requests carry the identified user & session in the context.
func guardMiddleware(deps ServerDeps, m *metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			path := ctx.Request().URL.Path
			if !deps.Guard.Applies(path) {
				return next(ctx)
			}

			id := requestIdentity{ctx: ctx, authSvc: deps.AuthSvc, conf: deps.Conf}
			d := deps.Guard.Decide(ctx.Request().Context(), path, id)
			m.guardDecisions.WithLabelValues(d.Rule, d.Outcome.String()).Inc()
			if d.Err != nil {
				deps.Logger.Warn("access guard: "+d.Rule+" on "+path, d.Err)
			}

			// on access.SignOut the identity has already expired the cookie
			if d.Outcome == access.Allow {
				if d.User != nil {
					ctx.Set(contextUserKey, *d.User)
				}
				if d.Session != nil {
					ctx.Set(contextSessionKey, *d.Session)
				}
				return next(ctx)
			}
			deps.Logger.Debug("access guard: " + d.Rule + " redirects " + path + " to " + d.Location)
			return ctx.Redirect(http.StatusFound, d.Location)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (auth.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(auth.Session); ok {
		return sess, nil
	}
	return auth.Session{}, errUnauthorized
}
