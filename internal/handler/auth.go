package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/digitalforms/formlink/internal/config"
	"github.com/digitalforms/formlink/internal/model"
	"github.com/digitalforms/formlink/internal/repository"
	"github.com/digitalforms/formlink/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Activity *repository.ActivityRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, a *repository.ActivityRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Activity: a}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userPart struct {
	ID         uint64     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Role       model.Role `json:"role"`
	Department *string    `json:"department,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       u.Role,
		Department: u.Department,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		LastLogin:  u.LastLogin,
	}
}

// dummyHash is a valid bcrypt digest compared against when the username
// does not resolve, so the unknown-user and wrong-password paths take
// comparable time.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Login handles POST /api/auth/login.  The response never distinguishes
// whether the username was unknown, the account deactivated, or the
// password wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "username and password are required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return fail(c, repository.ErrInvalidCredentials)
		}
		return fail(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) || !u.IsActive {
		return fail(c, repository.ErrInvalidCredentials)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Username, u.Role)
	if err != nil {
		return fail(c, err)
	}

	now := time.Now().UTC()
	if err := h.Users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return fail(c, err)
	}
	u.LastLogin = &now
	recordActivity(c, h.Activity, &u.ID, model.ActionLogin, "User logged into the system")

	return c.JSON(http.StatusOK, echo.Map{
		"token":   access.Token,
		"expires": access.Exp,
		"user":    toUserPart(u),
	})
}

// Validate handles POST /api/auth/validate.  Beyond the signature and
// expiry check it re-reads the user so a deactivated account invalidates
// its outstanding tokens immediately.
func (h *AuthHandler) Validate(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false})
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false})
		}
		return fail(c, err)
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true, "user": toUserPart(u)})
}

// ChangePassword handles POST /api/auth/change-password (authenticated).
// A mismatched current password answers 400 with the invalid_credentials
// code, matching the operation contract.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "invalid body"})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "currentPassword and newPassword are required"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "password must be at least 8 characters"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		return fail(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_credentials", "message": "current password is incorrect"})
	}
	if err := h.Users.UpdatePassword(ctx, p.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return fail(c, err)
	}
	recordActivity(c, h.Activity, &p.ID, model.ActionChangePassword, "User changed their password")
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// Logout handles POST /api/auth/logout.  Tokens are stateless, so logout
// only records the action for the audit trail; the client discards the
// token.
func (h *AuthHandler) Logout(c echo.Context) error {
	if p, err := getPrincipal(c); err == nil {
		recordActivity(c, h.Activity, &p.ID, model.ActionLogout, "User logged out of the system")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}
