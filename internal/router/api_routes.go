package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/digitalforms/formlink/internal/handler"
	"github.com/digitalforms/formlink/internal/middleware"
	"github.com/digitalforms/formlink/internal/model"
	"github.com/digitalforms/formlink/internal/repository"
)

// RegisterAuth registers the authentication endpoints.  Login lives
// outside the protected group; validate, logout and change-password sit
// behind the JWT middleware so deactivated accounts are cut off on
// their next request.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, users *repository.UserRepo) {
	e.POST("/api/auth/login", a.Login)
	// Validate does its own token parsing so a stale token yields
	// {"valid": false} instead of a 401.
	e.POST("/api/auth/validate", a.Validate)

	g := e.Group(
		"/api/auth",
		middleware.JWTAuth(jwtSecret, users),
		middleware.RequireRole(model.RoleAdmin, model.RoleAgent),
	)
	g.POST("/logout", a.Logout)
	g.POST("/change-password", a.ChangePassword)
}

// RegisterAPI registers the agent-facing endpoints under /api.  All
// routes require a valid JWT; per-resource ownership is enforced in the
// handlers, so an agent and an admin hit the same routes.
func RegisterAPI(e *echo.Echo, l *handler.LinkHandler, s *handler.SubmissionHandler, d *handler.DashboardHandler, jwtSecret string, users *repository.UserRepo) {
	g := e.Group(
		"/api",
		middleware.JWTAuth(jwtSecret, users),
		middleware.RequireRole(model.RoleAdmin, model.RoleAgent),
	)

	// ---- Form links ----
	g.POST("/forms/create-link", l.Create)
	g.GET("/forms/my-links", l.MyLinks)
	g.GET("/forms/link/:linkCode", l.GetByCode)
	g.PUT("/forms/link/:id", l.Update)
	g.DELETE("/forms/link/:id", l.Delete)

	// ---- Submissions ----
	g.GET("/submissions/my-submissions", s.MySubmissions)
	g.GET("/submissions/submission/:id", s.GetByID)
	g.PUT("/submissions/submission/:id/review", s.Review)

	// ---- Dashboard ----
	g.GET("/dashboard/stats", d.Stats)
}

// RegisterAdmin registers the admin-only endpoints.  The role middleware
// rejects agents here before any handler runs.
func RegisterAdmin(e *echo.Echo, u *handler.AdminUserHandler, l *handler.LinkHandler, s *handler.SubmissionHandler, d *handler.DashboardHandler, jwtSecret string, users *repository.UserRepo) {
	g := e.Group(
		"/api",
		middleware.JWTAuth(jwtSecret, users),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/forms/all-links", l.AllLinks)
	g.GET("/submissions/all-submissions", s.AllSubmissions)
	g.GET("/submissions/export/csv", s.ExportCSV)
	g.GET("/admin/activity", d.RecentActivity)

	// ---- User management ----
	g.GET("/admin/users", u.List)
	g.POST("/admin/users", u.Create)
	g.PUT("/admin/users/:id", u.Update)
	g.DELETE("/admin/users/:id", u.Deactivate)
}
