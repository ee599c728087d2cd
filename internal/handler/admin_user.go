package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/digitalforms/formlink/internal/config"
	"github.com/digitalforms/formlink/internal/model"
	"github.com/digitalforms/formlink/internal/repository"
)

// AdminUserHandler serves the user management endpoints.  Every route
// sits behind the admin role middleware; handlers still read the
// principal for audit attribution.
type AdminUserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Activity *repository.ActivityRepo
}

func NewAdminUserHandler(cfg config.Config, u *repository.UserRepo, a *repository.ActivityRepo) *AdminUserHandler {
	if u == nil || a == nil {
		panic("nil repository passed to NewAdminUserHandler")
	}
	return &AdminUserHandler{Cfg: cfg, Users: u, Activity: a}
}

type createUserReq struct {
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	FullName   string  `json:"full_name"`
	Role       string  `json:"role"`
	Department *string `json:"department"`
}

type updateUserReq struct {
	Email      *string `json:"email"`
	FullName   *string `json:"full_name"`
	Role       *string `json:"role"`
	Department *string `json:"department"`
	IsActive   *bool   `json:"is_active"`
}

// List handles GET /api/admin/users.
func (h *AdminUserHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	parts := make([]userPart, 0, len(users))
	for _, u := range users {
		parts = append(parts, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": parts})
}

// Create handles POST /api/admin/users.
func (h *AdminUserHandler) Create(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Username == "" || req.Email == "" || req.Password == "" || req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "username, email, password and full_name are required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "password must be at least 8 characters"})
	}
	role := model.ParseRole(req.Role)

	ctx, cancel := dbCtx(c)
	defer cancel()
	id, err := h.Users.Create(ctx, req.Username, req.Email, req.FullName, req.Password, role, req.Department, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, err)
	}
	recordActivity(c, h.Activity, &p.ID, model.ActionCreateUser,
		fmt.Sprintf("Created user %s (%s)", req.Username, role))

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "user created",
		"user":    toUserPart(u),
	})
}

// Update handles PUT /api/admin/users/:id with partial fields.
func (h *AdminUserHandler) Update(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "invalid user id"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "invalid body"})
	}
	upd := repository.UserUpdate{
		Email:      req.Email,
		FullName:   req.FullName,
		Department: req.Department,
		IsActive:   req.IsActive,
	}
	if req.Role != nil {
		r := model.ParseRole(*req.Role)
		upd.Role = &r
	}
	if upd.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "no updates provided"})
	}
	// Admins cannot deactivate themselves; that would strand the account
	// mid-session.
	if req.IsActive != nil && !*req.IsActive && id == p.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "cannot deactivate own account"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Users.Update(ctx, id, upd); err != nil {
		return fail(c, err)
	}
	recordActivity(c, h.Activity, &p.ID, model.ActionUpdateUser,
		fmt.Sprintf("Updated user %d", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "user updated"})
}

// Deactivate handles DELETE /api/admin/users/:id.  Accounts are never
// removed; deactivation blocks login and invalidates outstanding tokens
// on their next use.
func (h *AdminUserHandler) Deactivate(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "invalid user id"})
	}
	if id == p.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "cannot deactivate own account"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Users.Deactivate(ctx, id); err != nil {
		return fail(c, err)
	}
	recordActivity(c, h.Activity, &p.ID, model.ActionDeactivateUser,
		fmt.Sprintf("Deactivated user %d", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "user deactivated"})
}
