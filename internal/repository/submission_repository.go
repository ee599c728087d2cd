package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/digitalforms/formlink/internal/model"
)

// SubmissionRepo provides persistence for the 'form_submissions' table.
// Submissions are append-plus-review only: rows are never deleted, and
// the sole mutation is the atomic review update.
type SubmissionRepo struct{ DB *sql.DB }

func NewSubmissionRepo(db *sql.DB) *SubmissionRepo { return &SubmissionRepo{DB: db} }

// CreateTx inserts a submission within an existing transaction.  The
// caller pairs it with LinkRepo.IncrementSubmissionsTx and commits both
// or neither.
func (r *SubmissionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO form_submissions (id, link_id, user_id, customer_name, customer_email, submission_data, submitted_at, status)
		 VALUES (?,?,?,?,?,?,?,?)`,
		s.ID, s.LinkID, s.OwnerUserID, s.CustomerName, s.CustomerEmail,
		[]byte(s.SubmissionData), s.SubmittedAt, string(s.Status))
	return storeErr(err)
}

const submissionColumns = `fs.id, fs.link_id, fs.user_id, fs.customer_name, fs.customer_email,
	fs.submission_data, fs.submitted_at, fs.status, fs.review_notes, fs.reviewed_by, fs.reviewed_at,
	fl.unit_number, fl.sales_agent`

func scanSubmission(scan func(dest ...interface{}) error) (model.Submission, error) {
	var (
		s             model.Submission
		customerEmail sql.NullString
		data          []byte
		status        string
		reviewNotes   sql.NullString
		reviewedBy    sql.NullInt64
		reviewedAt    sql.NullTime
	)
	err := scan(&s.ID, &s.LinkID, &s.OwnerUserID, &s.CustomerName, &customerEmail,
		&data, &s.SubmittedAt, &status, &reviewNotes, &reviewedBy, &reviewedAt,
		&s.UnitNumber, &s.SalesAgent)
	if err != nil {
		return model.Submission{}, err
	}
	s.SubmissionData = data
	s.Status = model.SubmissionStatus(status)
	if customerEmail.Valid {
		e := customerEmail.String
		s.CustomerEmail = &e
	}
	if reviewNotes.Valid {
		n := reviewNotes.String
		s.ReviewNotes = &n
	}
	if reviewedBy.Valid {
		id := uint64(reviewedBy.Int64)
		s.ReviewedBy = &id
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		s.ReviewedAt = &t
	}
	return s, nil
}

// GetByID fetches one submission joined with its link's display fields.
func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (model.Submission, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+submissionColumns+`
		 FROM form_submissions fs
		 JOIN form_links fl ON fl.id = fs.link_id
		 WHERE fs.id=? LIMIT 1`, id)
	s, err := scanSubmission(row.Scan)
	if err != nil {
		return model.Submission{}, storeErr(err)
	}
	return s, nil
}

func (r *SubmissionRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Submission, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	subs := make([]model.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, storeErr(err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return subs, nil
}

// ListByOwner returns the owner's submissions newest-first.
func (r *SubmissionRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Submission, error) {
	return r.list(ctx,
		`SELECT `+submissionColumns+`
		 FROM form_submissions fs
		 JOIN form_links fl ON fl.id = fs.link_id
		 WHERE fs.user_id=?
		 ORDER BY fs.submitted_at DESC`, ownerID)
}

// ListAll returns every submission newest-first, for admin review and the
// CSV export.
func (r *SubmissionRepo) ListAll(ctx context.Context) ([]model.Submission, error) {
	return r.list(ctx,
		`SELECT `+submissionColumns+`
		 FROM form_submissions fs
		 JOIN form_links fl ON fl.id = fs.link_id
		 ORDER BY fs.submitted_at DESC`)
}

// Review sets status, notes, reviewer and review time in one statement so
// the four fields can never be observed half-written.  Ownership must be
// checked by the caller.
func (r *SubmissionRepo) Review(ctx context.Context, id string, status model.SubmissionStatus, notes *string, reviewerID uint64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE form_submissions SET status=?, review_notes=?, reviewed_by=?, reviewed_at=? WHERE id=?`,
		string(status), notes, reviewerID, at, id)
	if err != nil {
		return storeErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if chkErr := r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM form_submissions WHERE id=?)", id).Scan(&exists); chkErr == nil && !exists {
			return ErrNotFound
		}
	}
	return nil
}

// CountersForOwner recomputes the owner's submission totals by status.
func (r *SubmissionRepo) CountersForOwner(ctx context.Context, ownerID uint64) (total, pending, approved, rejected uint64, err error) {
	err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(status = 'pending'), 0),
		        COALESCE(SUM(status = 'approved'), 0),
		        COALESCE(SUM(status = 'rejected'), 0)
		 FROM form_submissions WHERE user_id=?`, ownerID).
		Scan(&total, &pending, &approved, &rejected)
	if err != nil {
		return 0, 0, 0, 0, storeErr(err)
	}
	return total, pending, approved, rejected, nil
}

// CountAll returns the system-wide submission total for the admin dashboard.
func (r *SubmissionRepo) CountAll(ctx context.Context) (uint64, error) {
	var n uint64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM form_submissions").Scan(&n); err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}
