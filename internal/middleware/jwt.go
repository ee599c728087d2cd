package middleware // reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/digitalforms/formlink/internal/model"
	"github.com/digitalforms/formlink/internal/repository"
	"github.com/digitalforms/formlink/internal/utils"
)

// PrincipalKey is the context key under which JWTAuth stores the verified
// model.Principal for downstream handlers.
const PrincipalKey = "principal"

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and attaches a model.Principal to the request context.  Validation is
// two-step: the signature/expiry check on the token itself, then a live
// lookup of the referenced user.  The live lookup is what makes
// deactivation take effect immediately — a deactivated user's
// still-time-valid tokens stop working on the very next request rather
// than at natural expiry.
func JWTAuth(secret string, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid or expired token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "account inactive or missing"})
				}
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store_unavailable", "message": "please retry"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "account inactive or missing"})
			}

			// Role comes from the store, not the token, so an admin demotion
			// also takes effect immediately.
			c.Set(PrincipalKey, model.Principal{ID: u.ID, Username: u.Username, Role: u.Role})
			return next(c)
		}
	}
}

// CurrentPrincipal extracts the verified principal stored by JWTAuth.
func CurrentPrincipal(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(model.Principal)
	return p, ok
}
