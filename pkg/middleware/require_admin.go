package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fraatlas/backend/pkg/auth"
)

// PrincipalKey is the echo context key holding the authenticated *auth.Principal
const PrincipalKey = "principal"

// RequireAdmin ensures the authenticated caller holds an admin role.
// It must run after the JWT middleware.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(auth.RoleDistrictAdmin, auth.RoleStateAdmin, auth.RoleSuperAdmin)
}

// RequireSuperAdmin ensures the caller is a super admin
func RequireSuperAdmin() echo.MiddlewareFunc {
	return RequireRole(auth.RoleSuperAdmin)
}

// RequireRole allows callers holding one of roles
func RequireRole(roles ...auth.Role) echo.MiddlewareFunc {
	allowed := make(map[auth.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := c.Get(PrincipalKey).(*auth.Principal)
			if !ok || p == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":   "unauthorized",
					"message": "Authentication required",
				})
			}

			if !allowed[p.Role] {
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"error":   "insufficient_permissions",
					"message": "Admin access required",
					"details": map[string]interface{}{
						"current_role": p.Role,
					},
				})
			}

			// District admins without a district can act on nothing
			if p.Role == auth.RoleDistrictAdmin && p.District == "" {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error":   "insufficient_permissions",
					"message": "District admin has no district assigned",
				})
			}

			return next(c)
		}
	}
}
