package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tachera/mlango/core/user"
)

// adminMiddleware gates an endpoint on the admin role carried in the token's
// claims. Endpoints that mutate privileged state must still re-verify the
// caller against the user store; claims alone are a UX hint.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if user.Role(claims.Role) == user.RoleAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
