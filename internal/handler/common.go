package handler // handler defines http handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/digitalforms/formlink/internal/middleware"
	"github.com/digitalforms/formlink/internal/model"
	"github.com/digitalforms/formlink/internal/repository"
)

// dbTimeout bounds every store round-trip made from a handler.  A store
// that does not answer within it surfaces as StoreUnavailable rather
// than a hanging request.
const dbTimeout = 5 * time.Second

// getPrincipal extracts the verified principal placed in context by the
// JWT middleware.
func getPrincipal(c echo.Context) (model.Principal, error) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return model.Principal{}, errors.New("no principal in context")
	}
	return p, nil
}

// dbCtx derives a store-call context from the request.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail maps a repository error kind onto its fixed HTTP status and a
// stable machine-readable code.  No store-specific detail leaves the
// boundary; unknown errors are treated as store unavailability, the only
// class a caller may retry.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "missing or malformed input"})
	case errors.Is(err, repository.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials", "message": "invalid credentials"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "access denied"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "resource not found"})
	case errors.Is(err, repository.ErrExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "expired", "message": "resource is no longer available"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "conflicts with existing state"})
	default:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store_unavailable", "message": "temporary failure, please retry"})
	}
}

// recordActivity appends an audit entry, best-effort.  Audit failures are
// logged but never fail the request that triggered them.
func recordActivity(c echo.Context, activity *repository.ActivityRepo, userID *uint64, action, details string) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := activity.Log(ctx, userID, action, details, c.RealIP(), c.Request().UserAgent()); err != nil {
		log.Printf("activity: log %s failed: %v", action, err)
	}
}
