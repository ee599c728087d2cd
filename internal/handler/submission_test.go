package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalforms/formlink/internal/repository"
)

func newSubmissionHandler(t *testing.T) (*SubmissionHandler, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	h := NewSubmissionHandler(db,
		repository.NewLinkRepo(db),
		repository.NewSubmissionRepo(db),
		repository.NewActivityRepo(db))
	return h, mock
}

func TestSubmitRejectsBadInput(t *testing.T) {
	h, _ := newSubmissionHandler(t)
	e := echo.New()

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing form data", `{"customer_name":"Jordan"}`},
		{"blank customer name", `{"customer_name":"  ","form_data":{"a":1}}`},
		{"null form data", `{"customer_name":"Jordan","form_data":null}`},
		{"malformed body", `{"customer_name":"Jordan","form_data":{broken}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := jsonCtx(e, http.MethodPost, "/api/submissions/submit/c0de", tt.body)
			c.SetParamNames("linkCode")
			c.SetParamValues("c0de")
			require.NoError(t, h.Submit(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSubmitExpiredLink(t *testing.T) {
	h, mock := newSubmissionHandler(t)
	e := echo.New()

	created := time.Now().UTC().AddDate(0, 0, -30)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "unit_number", "sales_agent", "link_code", "client_email",
		"expiry_days", "created_at", "expires_at", "status", "submissions_count", "notes",
	}).AddRow("link-1", 7, "A-204", "Dana", "old1", nil, 14, created, created.AddDate(0, 0, 14), "active", 0, nil)
	mock.ExpectQuery("SELECT .+ FROM form_links WHERE link_code=").WillReturnRows(rows)

	c, rec := jsonCtx(e, http.MethodPost, "/api/submissions/submit/old1",
		`{"customer_name":"Jordan","form_data":{"budget":"250k"}}`)
	c.SetParamNames("linkCode")
	c.SetParamValues("old1")
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Contains(t, rec.Body.String(), "link_expired")
}

func TestSubmitDeletedLink(t *testing.T) {
	h, mock := newSubmissionHandler(t)
	e := echo.New()

	created := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "unit_number", "sales_agent", "link_code", "client_email",
		"expiry_days", "created_at", "expires_at", "status", "submissions_count", "notes",
	}).AddRow("link-1", 7, "A-204", "Dana", "del1", nil, 14, created, created.AddDate(0, 0, 14), "deleted", 0, nil)
	mock.ExpectQuery("SELECT .+ FROM form_links WHERE link_code=").WillReturnRows(rows)

	c, rec := jsonCtx(e, http.MethodPost, "/api/submissions/submit/del1",
		`{"customer_name":"Jordan","form_data":{"budget":"250k"}}`)
	c.SetParamNames("linkCode")
	c.SetParamValues("del1")
	require.NoError(t, h.Submit(c))
	// A deleted link is indistinguishable from an expired one for customers.
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestReviewRejectsUnknownStatus(t *testing.T) {
	h, _ := newSubmissionHandler(t)
	e := echo.New()

	c, rec := jsonCtx(e, http.MethodPut, "/api/submissions/submission/sub-1/review", `{"status":"archived"}`)
	c.SetParamNames("id")
	c.SetParamValues("sub-1")
	asAgent(c)
	require.NoError(t, h.Review(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_argument")
}

func TestReviewForbiddenForNonOwner(t *testing.T) {
	h, mock := newSubmissionHandler(t)
	e := echo.New()

	rows := sqlmock.NewRows([]string{
		"id", "link_id", "user_id", "customer_name", "customer_email",
		"submission_data", "submitted_at", "status", "review_notes", "reviewed_by", "reviewed_at",
		"unit_number", "sales_agent",
	}).AddRow("sub-1", "link-1", 99, "Jordan", nil,
		[]byte(`{}`), time.Now().UTC(), "pending", nil, nil, nil, "A-204", "Dana")
	mock.ExpectQuery("SELECT .+ FROM form_submissions fs").WillReturnRows(rows)

	c, rec := jsonCtx(e, http.MethodPut, "/api/submissions/submission/sub-1/review", `{"status":"approved"}`)
	c.SetParamNames("id")
	c.SetParamValues("sub-1")
	asAgent(c)
	require.NoError(t, h.Review(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
