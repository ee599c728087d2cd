package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/digitalforms/formlink/internal/model"
	"github.com/digitalforms/formlink/internal/policy"
	"github.com/digitalforms/formlink/internal/queue"
	"github.com/digitalforms/formlink/internal/repository"
	queue_publisher "github.com/digitalforms/formlink/internal/service"
)

// SubmissionHandler groups dependencies for the submission endpoints.
// Submit is the only unauthenticated method; everything else requires a
// principal set by the JWT middleware.
type SubmissionHandler struct {
	DB          *sql.DB
	Links       *repository.LinkRepo
	Submissions *repository.SubmissionRepo
	Activity    *repository.ActivityRepo
}

func NewSubmissionHandler(db *sql.DB, l *repository.LinkRepo, s *repository.SubmissionRepo, a *repository.ActivityRepo) *SubmissionHandler {
	if db == nil || l == nil || s == nil || a == nil {
		panic("nil dependency passed to NewSubmissionHandler")
	}
	return &SubmissionHandler{DB: db, Links: l, Submissions: s, Activity: a}
}

// ----- DTOs -----

type submitReq struct {
	CustomerName  string          `json:"customer_name"`
	CustomerEmail *string         `json:"customer_email"`
	FormData      json.RawMessage `json:"form_data"`
}

type reviewReq struct {
	Status      string  `json:"status"`
	ReviewNotes *string `json:"review_notes"`
}

type submissionView struct {
	ID            string                 `json:"id"`
	LinkID        string                 `json:"link_id"`
	OwnerUserID   uint64                 `json:"user_id"`
	UnitNumber    string                 `json:"unit_number"`
	SalesAgent    string                 `json:"sales_agent"`
	CustomerName  string                 `json:"customer_name"`
	CustomerEmail *string                `json:"customer_email,omitempty"`
	FormData      json.RawMessage        `json:"form_data"`
	SubmittedAt   time.Time              `json:"submitted_at"`
	Status        model.SubmissionStatus `json:"status"`
	ReviewNotes   *string                `json:"review_notes,omitempty"`
	ReviewedBy    *uint64                `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time             `json:"reviewed_at,omitempty"`
}

func toSubmissionView(s model.Submission) submissionView {
	return submissionView{
		ID:            s.ID,
		LinkID:        s.LinkID,
		OwnerUserID:   s.OwnerUserID,
		UnitNumber:    s.UnitNumber,
		SalesAgent:    s.SalesAgent,
		CustomerName:  s.CustomerName,
		CustomerEmail: s.CustomerEmail,
		FormData:      s.SubmissionData,
		SubmittedAt:   s.SubmittedAt,
		Status:        s.Status,
		ReviewNotes:   s.ReviewNotes,
		ReviewedBy:    s.ReviewedBy,
		ReviewedAt:    s.ReviewedAt,
	}
}

// Submit handles POST /api/submissions/submit/:linkCode, the anonymous
// customer path.  The submission insert and the link's counter bump
// commit in one transaction so the counter can never drift from the
// number of stored rows.
func (h *SubmissionHandler) Submit(c echo.Context) error {
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "invalid body"})
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" || len(req.FormData) == 0 || string(req.FormData) == "null" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "customer_name and form_data are required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	link, err := h.Links.GetByCode(ctx, c.Param("linkCode"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "link_not_found", "message": linkGoneMessage})
		}
		return fail(c, err)
	}
	now := time.Now().UTC()
	if !link.AcceptsSubmissions(now) {
		return c.JSON(http.StatusGone, echo.Map{"error": "link_expired", "message": linkGoneMessage})
	}

	sub := model.Submission{
		ID:             uuid.NewString(),
		LinkID:         link.ID,
		OwnerUserID:    link.OwnerUserID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		SubmissionData: req.FormData,
		SubmittedAt:    now,
		Status:         model.SubmissionPending,
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return fail(c, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Submissions.CreateTx(ctx, tx, &sub); err != nil {
		return fail(c, err)
	}
	if err := h.Links.IncrementSubmissionsTx(ctx, tx, link.ID); err != nil {
		return fail(c, err)
	}
	if err := tx.Commit(); err != nil {
		return fail(c, err)
	}
	committed = true

	recordActivity(c, h.Activity, &link.OwnerUserID, model.ActionFormSubmission,
		fmt.Sprintf("New submission from %s for %s", sub.CustomerName, link.UnitNumber))

	pubCtx, pubCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pubCancel()
	_ = queue_publisher.PublishFormSubmitted(pubCtx, queue.FormSubmittedEvent{
		SubmissionID: sub.ID,
		LinkID:       link.ID,
		LinkCode:     link.LinkCode,
		OwnerUserID:  link.OwnerUserID,
		UnitNumber:   link.UnitNumber,
		SalesAgent:   link.SalesAgent,
		CustomerName: sub.CustomerName,
		SubmittedAt:  now.Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message":       "form submitted",
		"submission_id": sub.ID,
	})
}

// MySubmissions handles GET /api/submissions/my-submissions.
func (h *SubmissionHandler) MySubmissions(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	subs, err := h.Submissions.ListByOwner(ctx, p.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"submissions": viewSubmissions(subs)})
}

// AllSubmissions handles GET /api/submissions/all-submissions (admin
// only, enforced by route middleware).
func (h *SubmissionHandler) AllSubmissions(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	subs, err := h.Submissions.ListAll(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"submissions": viewSubmissions(subs)})
}

// GetByID handles GET /api/submissions/submission/:id for the owning
// agent or an admin.
func (h *SubmissionHandler) GetByID(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	sub, err := h.Submissions.GetByID(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if !policy.CanAccess(p, sub.OwnerUserID) {
		return fail(c, repository.ErrForbidden)
	}
	return c.JSON(http.StatusOK, echo.Map{"submission": toSubmissionView(sub)})
}

// Review handles PUT /api/submissions/submission/:id/review.  Any of the
// three states may be set, including back to pending.
func (h *SubmissionHandler) Review(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "invalid body"})
	}
	if !model.ValidSubmissionStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": "status must be pending, approved or rejected"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	sub, err := h.Submissions.GetByID(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if !policy.CanAccess(p, sub.OwnerUserID) {
		return fail(c, repository.ErrForbidden)
	}
	if err := h.Submissions.Review(ctx, sub.ID, model.SubmissionStatus(req.Status), req.ReviewNotes, p.ID, time.Now().UTC()); err != nil {
		return fail(c, err)
	}
	recordActivity(c, h.Activity, &p.ID, model.ActionReviewSubmission,
		fmt.Sprintf("Marked submission %s as %s", sub.ID, req.Status))
	return c.JSON(http.StatusOK, echo.Map{"message": "submission reviewed"})
}

// ExportCSV handles GET /api/submissions/export/csv (admin only).  The
// opaque form payload is exported as its raw JSON text in a single
// column.
func (h *SubmissionHandler) ExportCSV(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	subs, err := h.Submissions.ListAll(ctx)
	if err != nil {
		return fail(c, err)
	}

	var b strings.Builder
	b.WriteString("id,unit_number,sales_agent,customer_name,customer_email,status,submitted_at,form_data\n")
	for _, s := range subs {
		email := ""
		if s.CustomerEmail != nil {
			email = *s.CustomerEmail
		}
		row := []string{
			s.ID,
			s.UnitNumber,
			s.SalesAgent,
			s.CustomerName,
			email,
			string(s.Status),
			s.SubmittedAt.Format(time.RFC3339),
			string(s.SubmissionData),
		}
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvEscape(field))
		}
		b.WriteByte('\n')
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=submissions_%s.csv", time.Now().UTC().Format("2006-01-02")))
	return c.Blob(http.StatusOK, "text/csv", []byte(b.String()))
}

func viewSubmissions(subs []model.Submission) []submissionView {
	views := make([]submissionView, 0, len(subs))
	for _, s := range subs {
		views = append(views, toSubmissionView(s))
	}
	return views
}

// csvEscape quotes a field when it contains a comma, quote or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
}
