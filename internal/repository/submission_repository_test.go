package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalforms/formlink/internal/model"
)

func sampleSubmission() model.Submission {
	return model.Submission{
		ID:             "aaaa1111-bbbb-2222-cccc-333344445555",
		LinkID:         "11111111-2222-3333-4444-555555555555",
		OwnerUserID:    7,
		CustomerName:   "Jordan Blake",
		SubmissionData: []byte(`{"budget":"250k"}`),
		SubmittedAt:    time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Status:         model.SubmissionPending,
	}
}

// submitTx mirrors the handler's transaction: submission insert plus the
// link counter bump commit together or not at all.
func submitTx(ctx context.Context, subs *SubmissionRepo, links *LinkRepo, s *model.Submission) error {
	tx, err := subs.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := subs.CreateTx(ctx, tx, s); err != nil {
		return err
	}
	if err := links.IncrementSubmissionsTx(ctx, tx, s.LinkID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func TestSubmitTxCommitsInsertAndCounter(t *testing.T) {
	db, mock := newMockDB(t)
	subs := NewSubmissionRepo(db)
	links := NewLinkRepo(db)
	s := sampleSubmission()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO form_submissions").
		WithArgs(s.ID, s.LinkID, s.OwnerUserID, s.CustomerName, nil,
			[]byte(s.SubmissionData), s.SubmittedAt, string(s.Status)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE form_links SET submissions_count = submissions_count + 1 WHERE id=?")).
		WithArgs(s.LinkID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, submitTx(context.Background(), subs, links, &s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitTxRollsBackOnCounterFailure(t *testing.T) {
	db, mock := newMockDB(t)
	subs := NewSubmissionRepo(db)
	links := NewLinkRepo(db)
	s := sampleSubmission()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO form_submissions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE form_links SET submissions_count").
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	require.Error(t, submitTx(context.Background(), subs, links, &s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubmissionRepo(db)
	s := sampleSubmission()

	rows := sqlmock.NewRows([]string{
		"id", "link_id", "user_id", "customer_name", "customer_email",
		"submission_data", "submitted_at", "status", "review_notes", "reviewed_by", "reviewed_at",
		"unit_number", "sales_agent",
	}).AddRow(s.ID, s.LinkID, s.OwnerUserID, s.CustomerName, nil,
		[]byte(s.SubmissionData), s.SubmittedAt, string(s.Status), nil, nil, nil,
		"A-204", "Dana Reyes")

	mock.ExpectQuery("SELECT .+ FROM form_submissions fs").
		WithArgs(s.ID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.OwnerUserID, got.OwnerUserID)
	assert.Equal(t, model.SubmissionPending, got.Status)
	assert.Equal(t, "A-204", got.UnitNumber)
	assert.Nil(t, got.ReviewedBy)
}

func TestSubmissionReview(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubmissionRepo(db)
	at := time.Now().UTC()
	notes := "verified by phone"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE form_submissions SET status=?, review_notes=?, reviewed_by=?, reviewed_at=? WHERE id=?")).
		WithArgs("approved", "verified by phone", uint64(1), at, "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Review(context.Background(), "sub-1", model.SubmissionApproved, &notes, 1, at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionReviewUnknownID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubmissionRepo(db)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE form_submissions SET status=").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.Review(context.Background(), "ghost", model.SubmissionRejected, nil, 1, at)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmissionCountersForOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubmissionRepo(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\),").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "approved", "rejected"}).
			AddRow(10, 4, 5, 1))

	total, pending, approved, rejected, err := repo.CountersForOwner(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), total)
	assert.Equal(t, uint64(4), pending)
	assert.Equal(t, uint64(5), approved)
	assert.Equal(t, uint64(1), rejected)
}
