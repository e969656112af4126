package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tachera/mlango/core"
	"github.com/tachera/mlango/core/access"
	"github.com/tachera/mlango/core/center"
	"github.com/tachera/mlango/core/session"
	"github.com/tachera/mlango/core/user"
)

// guard protects page routes: it resolves the caller's session, evaluates the
// route's access requirement and redirects on any denial. Redirects use
// 303 See Other so the browser always re-requests with GET.
type guard struct {
	centers *center.Service
	logger  core.Logger

	// sessions resolves the caller's session for a request. The default
	// derives it from the request's JWT; tests may override it.
	sessions func(echo.Context) session.Session
}

func newGuard(centers *center.Service, logger core.Logger) *guard {
	g := &guard{centers: centers, logger: logger}
	g.sessions = g.sessionFromToken
	return g
}

// sessionFromToken builds a session from the request's JWT claims. A missing
// or invalid token yields an anonymous session; routing decisions come from
// the token alone, privileged mutations re-verify against the user store.
func (g *guard) sessionFromToken(ctx echo.Context) session.Session {
	tokenStr := ""
	if cookie, err := ctx.Cookie(authCookieName); err == nil {
		tokenStr = cookie.Value
	}
	if auth := ctx.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		tokenStr = strings.TrimPrefix(auth, "Bearer ")
	}
	if tokenStr == "" {
		return session.Anonymous()
	}

	claims, err := parseToken(tokenStr)
	if err != nil {
		return session.Anonymous()
	}
	return session.Authenticated(userFromClaims(claims))
}

// middleware returns the guard middleware for a route requirement.
func (g *guard) middleware(req access.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := g.sessions(ctx)

			switch sess.State {
			case session.StateLoading:
				// still resolving; tell the client to retry rather than
				// guessing an outcome.
				return ctx.NoContent(http.StatusAccepted)
			case session.StateUnauthenticated:
				return ctx.Redirect(http.StatusSeeOther, loginRouteFor(ctx.Request().URL.Path))
			}

			decision := g.authorize(ctx, sess.User, req)
			if !decision.Allowed {
				var userID string
				if sess.User != nil {
					userID = sess.User.ID
				}
				g.logger.Info(
					"access denied",
					"path", ctx.Request().URL.Path,
					"user", userID,
					"reason", decision.Reason.String(),
				)
				return ctx.Redirect(http.StatusSeeOther, homeRoute)
			}
			return next(ctx)
		}
	}
}

// authorize evaluates the requirement against the user and their center's
// feature flags. Any panic out of evaluation denies the request; broken
// authorization must never grant access.
func (g *guard) authorize(ctx echo.Context, usr *user.User, req access.Requirement) (decision access.Decision) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("access evaluation panicked", errors.Errorf("%v", r), "path", ctx.Request().URL.Path)
			decision = access.Deny(access.DenyResolverError)
		}
	}()

	var flags center.FlagSet
	if req.Feature != "" && usr.CenterID.Valid {
		flags = g.centers.FlagsForCenter(ctx.Request().Context(), usr.CenterID.String)
	}
	return access.Authorize(*usr, req, flags)
}
