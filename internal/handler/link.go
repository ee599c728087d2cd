package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/digitalforms/formlink/internal/config"
	"github.com/digitalforms/formlink/internal/model"
	"github.com/digitalforms/formlink/internal/policy"
	"github.com/digitalforms/formlink/internal/repository"
	"github.com/digitalforms/formlink/internal/utils"
)

// LinkHandler groups dependencies for the form-link endpoints.  All
// methods except the public metadata lookup assume JWT middleware has
// attached a principal.
type LinkHandler struct {
	Cfg      config.Config
	Links    *repository.LinkRepo
	Activity *repository.ActivityRepo
}

func NewLinkHandler(cfg config.Config, l *repository.LinkRepo, a *repository.ActivityRepo) *LinkHandler {
	if l == nil || a == nil {
		panic("nil repository passed to NewLinkHandler")
	}
	return &LinkHandler{Cfg: cfg, Links: l, Activity: a}
}

// ----- DTOs -----

type createLinkReq struct {
	UnitNumber  string  `json:"unit_number"`
	SalesAgent  string  `json:"sales_agent"`
	ClientEmail *string `json:"client_email"`
	ExpiryDays  *int    `json:"expiry_days"`
	Notes       *string `json:"notes"`
}

type updateLinkReq struct {
	UnitNumber  *string `json:"unit_number"`
	SalesAgent  *string `json:"sales_agent"`
	ClientEmail *string `json:"client_email"`
	Notes       *string `json:"notes"`
}

// linkView is the API representation of a link.  Status carries the
// derived effective status, never the raw stored value, so an expired
// link reads "expired" without any write to the store.
type linkView struct {
	ID               string                    `json:"id"`
	OwnerUserID      uint64                    `json:"user_id"`
	UnitNumber       string                    `json:"unit_number"`
	SalesAgent       string                    `json:"sales_agent"`
	LinkCode         string                    `json:"link_code"`
	ClientEmail      *string                   `json:"client_email,omitempty"`
	ExpiryDays       int                       `json:"expiry_days"`
	CreatedAt        time.Time                 `json:"created_at"`
	ExpiresAt        time.Time                 `json:"expires_at"`
	Status           model.EffectiveLinkStatus `json:"status"`
	IsExpired        bool                      `json:"is_expired"`
	SubmissionsCount uint64                    `json:"submissions_count"`
	Notes            *string                   `json:"notes,omitempty"`
	FullURL          string                    `json:"full_url"`
}

func (h *LinkHandler) linkURL(code string) string {
	return fmt.Sprintf("%s/form/%s", h.Cfg.PublicBaseURL, code)
}

func (h *LinkHandler) toView(l model.FormLink, now time.Time) linkView {
	eff := l.EffectiveStatus(now)
	return linkView{
		ID:               l.ID,
		OwnerUserID:      l.OwnerUserID,
		UnitNumber:       l.UnitNumber,
		SalesAgent:       l.SalesAgent,
		LinkCode:         l.LinkCode,
		ClientEmail:      l.ClientEmail,
		ExpiryDays:       l.ExpiryDays,
		CreatedAt:        l.CreatedAt,
		ExpiresAt:        l.ExpiresAt,
		Status:           eff,
		IsExpired:        eff == model.LinkEffectiveExpired,
		SubmissionsCount: l.SubmissionsCount,
		Notes:            l.Notes,
		FullURL:          h.linkURL(l.LinkCode),
	}
}

// Create handles POST /api/forms/create-link.
func (h *LinkHandler) Create(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	var req createLinkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "invalid body"})
	}
	req.UnitNumber = strings.TrimSpace(req.UnitNumber)
	req.SalesAgent = strings.TrimSpace(req.SalesAgent)
	if req.UnitNumber == "" || req.SalesAgent == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "unit_number and sales_agent are required"})
	}
	expiryDays := model.DefaultExpiryDays
	if req.ExpiryDays != nil {
		if *req.ExpiryDays < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "expiry_days must not be negative"})
		}
		expiryDays = *req.ExpiryDays
	}

	code, err := utils.NewLinkCode()
	if err != nil {
		return fail(c, err)
	}
	now := time.Now().UTC()
	link := model.FormLink{
		ID:          uuid.NewString(),
		OwnerUserID: p.ID,
		UnitNumber:  req.UnitNumber,
		SalesAgent:  req.SalesAgent,
		LinkCode:    code,
		ClientEmail: req.ClientEmail,
		ExpiryDays:  expiryDays,
		CreatedAt:   now,
		ExpiresAt:   now.AddDate(0, 0, expiryDays),
		Status:      model.LinkActive,
		Notes:       req.Notes,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Links.Create(ctx, &link); err != nil {
		return fail(c, err)
	}
	recordActivity(c, h.Activity, &p.ID, model.ActionCreateFormLink,
		fmt.Sprintf("Created form link for %s", link.UnitNumber))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "form link created",
		"link":    h.toView(link, now),
	})
}

// MyLinks handles GET /api/forms/my-links, newest-first with derived
// expiry status.
func (h *LinkHandler) MyLinks(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	links, err := h.Links.ListByOwner(ctx, p.ID)
	if err != nil {
		return fail(c, err)
	}
	now := time.Now().UTC()
	views := make([]linkView, 0, len(links))
	for _, l := range links {
		views = append(views, h.toView(l, now))
	}
	return c.JSON(http.StatusOK, echo.Map{"links": views})
}

// GetByCode handles GET /api/forms/link/:linkCode for the link's owner or
// an admin.
func (h *LinkHandler) GetByCode(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	link, err := h.Links.GetByCode(ctx, c.Param("linkCode"))
	if err != nil {
		return fail(c, err)
	}
	if !policy.CanAccess(p, link.OwnerUserID) {
		return fail(c, repository.ErrForbidden)
	}
	return c.JSON(http.StatusOK, echo.Map{"link": h.toView(link, time.Now().UTC())})
}

// Update handles PUT /api/forms/link/:id with partial fields.
func (h *LinkHandler) Update(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	var req updateLinkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "invalid body"})
	}
	upd := repository.LinkUpdate{
		UnitNumber:  req.UnitNumber,
		SalesAgent:  req.SalesAgent,
		ClientEmail: req.ClientEmail,
		Notes:       req.Notes,
	}
	if upd.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "no updates provided"})
	}
	if req.UnitNumber != nil && strings.TrimSpace(*req.UnitNumber) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "unit_number must not be empty"})
	}
	if req.SalesAgent != nil && strings.TrimSpace(*req.SalesAgent) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "sales_agent must not be empty"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	link, err := h.Links.GetByID(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if !policy.CanAccess(p, link.OwnerUserID) {
		return fail(c, repository.ErrForbidden)
	}
	if err := h.Links.Update(ctx, link.ID, upd); err != nil {
		return fail(c, err)
	}
	recordActivity(c, h.Activity, &p.ID, model.ActionUpdateFormLink,
		fmt.Sprintf("Updated form link %s", link.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "form link updated"})
}

// Delete handles DELETE /api/forms/link/:id.  Deletion is a soft,
// terminal status change; the row and its submissions remain.
func (h *LinkHandler) Delete(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	link, err := h.Links.GetByID(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if !policy.CanAccess(p, link.OwnerUserID) {
		return fail(c, repository.ErrForbidden)
	}
	if err := h.Links.SoftDelete(ctx, link.ID); err != nil {
		return fail(c, err)
	}
	recordActivity(c, h.Activity, &p.ID, model.ActionDeleteFormLink,
		fmt.Sprintf("Deleted form link %s", link.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "form link deleted"})
}

// AllLinks handles GET /api/forms/all-links (admin only, enforced by
// route middleware).
func (h *LinkHandler) AllLinks(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	links, err := h.Links.ListAll(ctx)
	if err != nil {
		return fail(c, err)
	}
	now := time.Now().UTC()
	views := make([]linkView, 0, len(links))
	for _, l := range links {
		views = append(views, h.toView(l, now))
	}
	return c.JSON(http.StatusOK, echo.Map{"links": views})
}

// PublicForm handles GET /api/public/form/:linkCode, the unauthenticated
// metadata lookup used to render the customer-facing form.  NotFound and
// Expired return the same message to the customer; only the machine code
// differs for internal logging.
func (h *LinkHandler) PublicForm(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	link, err := h.Links.GetByCode(ctx, c.Param("linkCode"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "link_not_found", "message": linkGoneMessage})
		}
		return fail(c, err)
	}
	if !link.AcceptsSubmissions(time.Now().UTC()) {
		return c.JSON(http.StatusGone, echo.Map{"error": "link_expired", "message": linkGoneMessage})
	}
	// Only the fields the public form needs; owner and counters stay private.
	return c.JSON(http.StatusOK, echo.Map{
		"form": echo.Map{
			"unit_number": link.UnitNumber,
			"sales_agent": link.SalesAgent,
			"expires_at":  link.ExpiresAt,
		},
	})
}

// linkGoneMessage is shown to customers for both unknown and expired
// codes, deliberately not distinguishing the two.
const linkGoneMessage = "This form link is no longer available"
