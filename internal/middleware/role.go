package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/digitalforms/formlink/internal/model"
)

// RequireRole returns a middleware that enforces that the authenticated
// principal holds one of the given roles.  It assumes JWTAuth already ran
// on the route group; a missing principal is treated as forbidden.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok || !allowed[p.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "insufficient role"})
			}
			return next(c)
		}
	}
}
