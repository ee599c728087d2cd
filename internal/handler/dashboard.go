package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/digitalforms/formlink/internal/repository"
)

// DashboardHandler serves the aggregate counters shown on the landing
// page after login.  All numbers are computed from the live tables on
// every request; nothing is cached or persisted.
type DashboardHandler struct {
	Users       *repository.UserRepo
	Links       *repository.LinkRepo
	Submissions *repository.SubmissionRepo
	Activity    *repository.ActivityRepo
}

func NewDashboardHandler(u *repository.UserRepo, l *repository.LinkRepo, s *repository.SubmissionRepo, a *repository.ActivityRepo) *DashboardHandler {
	if u == nil || l == nil || s == nil || a == nil {
		panic("nil repository passed to NewDashboardHandler")
	}
	return &DashboardHandler{Users: u, Links: l, Submissions: s, Activity: a}
}

// Stats handles GET /api/dashboard/stats.  Agents see counters scoped to
// their own links and submissions; admins additionally get system-wide
// totals and user counts.
func (h *DashboardHandler) Stats(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	now := time.Now().UTC()
	linkTotal, linkActive, linkExpired, err := h.Links.CountersForOwner(ctx, p.ID, now)
	if err != nil {
		return fail(c, err)
	}
	subTotal, subPending, subApproved, subRejected, err := h.Submissions.CountersForOwner(ctx, p.ID)
	if err != nil {
		return fail(c, err)
	}

	stats := echo.Map{
		"links": echo.Map{
			"total":   linkTotal,
			"active":  linkActive,
			"expired": linkExpired,
		},
		"submissions": echo.Map{
			"total":    subTotal,
			"pending":  subPending,
			"approved": subApproved,
			"rejected": subRejected,
		},
	}

	if p.IsAdmin() {
		userTotal, userActive, err := h.Users.Counts(ctx)
		if err != nil {
			return fail(c, err)
		}
		allLinks, err := h.Links.CountAll(ctx)
		if err != nil {
			return fail(c, err)
		}
		allSubs, err := h.Submissions.CountAll(ctx)
		if err != nil {
			return fail(c, err)
		}
		stats["system"] = echo.Map{
			"users_total":       userTotal,
			"users_active":      userActive,
			"links_total":       allLinks,
			"submissions_total": allSubs,
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"stats": stats})
}

type activityView struct {
	ID        uint64    `json:"id"`
	UserID    *uint64   `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecentActivity handles GET /api/admin/activity (admin only).  The
// ?limit query bounds the result; it defaults to 50 entries.
func (h *DashboardHandler) RecentActivity(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "limit must be between 1 and 500"})
		}
		limit = n
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	entries, err := h.Activity.Recent(ctx, limit)
	if err != nil {
		return fail(c, err)
	}
	views := make([]activityView, 0, len(entries))
	for _, e := range entries {
		views = append(views, activityView{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			Details:   e.Details,
			IPAddress: e.IPAddress,
			UserAgent: e.UserAgent,
			CreatedAt: e.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"activity": views})
}
