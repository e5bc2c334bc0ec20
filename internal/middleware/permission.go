package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/response"
)

// RequireSuperAdmin restricts a route to the platform super-admin.
// Plain admins and users are rejected even though they authenticated.
func RequireSuperAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Identity(c)
			if claims == nil {
				return response.Unauthorized(c, "authentication required")
			}
			if claims.GlobalRole != auth.RoleSuperAdmin {
				return response.Forbidden(c, "super-admin access required")
			}
			return next(c)
		}
	}
}

// RequireAccountRole guards routes whose account is named by a path
// parameter. The caller must hold at least the given role on that
// account; holding no role at all yields the same denial as holding a
// lesser one. Routes that resolve the account from the stored resource
// authorize in the handler instead.
func RequireAccountRole(param string, required auth.AccountRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Identity(c)
			if claims == nil {
				return response.Unauthorized(c, "authentication required")
			}
			accountID, err := strconv.ParseUint(c.Param(param), 10, 64)
			if err != nil {
				return response.BadRequest(c, "invalid account id")
			}
			if !auth.AuthorizeAccountAccess(claims, accountID, required) {
				return response.Forbidden(c, "no permission on this account")
			}
			return next(c)
		}
	}
}
