package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalforms/formlink/internal/config"
	"github.com/digitalforms/formlink/internal/middleware"
	"github.com/digitalforms/formlink/internal/model"
	"github.com/digitalforms/formlink/internal/repository"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func jsonCtx(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asAgent(c echo.Context) {
	c.Set(middleware.PrincipalKey, model.Principal{ID: 7, Username: "agent7", Role: model.RoleAgent})
}

func testCfg() config.Config {
	return config.Config{PublicBaseURL: "https://forms.example.com", JWTSecret: "test", BcryptCost: 4}
}

func newLinkHandler(t *testing.T) (*LinkHandler, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	return NewLinkHandler(testCfg(), repository.NewLinkRepo(db), repository.NewActivityRepo(db)), mock
}

func TestLinkCreateRejectsMissingFields(t *testing.T) {
	h, _ := newLinkHandler(t)
	e := echo.New()

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing sales agent", `{"unit_number":"A-204"}`},
		{"blank unit number", `{"unit_number":"  ","sales_agent":"Dana"}`},
		{"negative expiry", `{"unit_number":"A-204","sales_agent":"Dana","expiry_days":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := jsonCtx(e, http.MethodPost, "/api/forms/create-link", tt.body)
			asAgent(c)
			require.NoError(t, h.Create(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid_argument")
		})
	}
}

func TestLinkCreateRequiresPrincipal(t *testing.T) {
	h, _ := newLinkHandler(t)
	e := echo.New()

	c, rec := jsonCtx(e, http.MethodPost, "/api/forms/create-link", `{"unit_number":"A-204","sales_agent":"Dana"}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLinkCreateDefaultsExpiryAndBuildsURL(t *testing.T) {
	h, mock := newLinkHandler(t)
	e := echo.New()

	mock.ExpectExec("INSERT INTO form_links").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO activity_log").WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := jsonCtx(e, http.MethodPost, "/api/forms/create-link", `{"unit_number":"A-204","sales_agent":"Dana Reyes"}`)
	asAgent(c)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"expiry_days":14`)
	assert.Contains(t, body, `"status":"active"`)
	assert.Contains(t, body, "https://forms.example.com/form/")
}

func TestLinkUpdateForbiddenForNonOwner(t *testing.T) {
	h, mock := newLinkHandler(t)
	e := echo.New()

	created := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "unit_number", "sales_agent", "link_code", "client_email",
		"expiry_days", "created_at", "expires_at", "status", "submissions_count", "notes",
	}).AddRow("link-1", 99, "A-204", "Dana", "c0de", nil, 14, created, created.AddDate(0, 0, 14), "active", 0, nil)
	mock.ExpectQuery("SELECT .+ FROM form_links WHERE id=").WillReturnRows(rows)

	c, rec := jsonCtx(e, http.MethodPut, "/api/forms/link/link-1", `{"notes":"hello"}`)
	c.SetParamNames("id")
	c.SetParamValues("link-1")
	asAgent(c)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublicFormHidesOwnerFields(t *testing.T) {
	h, mock := newLinkHandler(t)
	e := echo.New()

	created := time.Now().UTC().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "unit_number", "sales_agent", "link_code", "client_email",
		"expiry_days", "created_at", "expires_at", "status", "submissions_count", "notes",
	}).AddRow("link-1", 7, "A-204", "Dana", "c0de", nil, 14, created, created.AddDate(0, 0, 14), "active", 3, nil)
	mock.ExpectQuery("SELECT .+ FROM form_links WHERE link_code=").WillReturnRows(rows)

	c, rec := jsonCtx(e, http.MethodGet, "/api/public/form/c0de", "")
	c.SetParamNames("linkCode")
	c.SetParamValues("c0de")
	require.NoError(t, h.PublicForm(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "A-204")
	assert.NotContains(t, body, "user_id")
	assert.NotContains(t, body, "submissions_count")
}

func TestPublicFormExpiredAndUnknownLookAlike(t *testing.T) {
	h, mock := newLinkHandler(t)
	e := echo.New()

	// Expired link answers 410.
	created := time.Now().UTC().AddDate(0, 0, -30)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "unit_number", "sales_agent", "link_code", "client_email",
		"expiry_days", "created_at", "expires_at", "status", "submissions_count", "notes",
	}).AddRow("link-1", 7, "A-204", "Dana", "old1", nil, 14, created, created.AddDate(0, 0, 14), "active", 0, nil)
	mock.ExpectQuery("SELECT .+ FROM form_links WHERE link_code=").WillReturnRows(rows)

	c, rec := jsonCtx(e, http.MethodGet, "/api/public/form/old1", "")
	c.SetParamNames("linkCode")
	c.SetParamValues("old1")
	require.NoError(t, h.PublicForm(c))
	assert.Equal(t, http.StatusGone, rec.Code)
	expiredMsg := rec.Body.String()

	// Unknown link answers 404 with the same customer-facing message.
	mock.ExpectQuery("SELECT .+ FROM form_links WHERE link_code=").WillReturnError(sql.ErrNoRows)
	c, rec = jsonCtx(e, http.MethodGet, "/api/public/form/none", "")
	c.SetParamNames("linkCode")
	c.SetParamValues("none")
	require.NoError(t, h.PublicForm(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, expiredMsg, linkGoneMessage)
	assert.Contains(t, rec.Body.String(), linkGoneMessage)
}
