package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/digitalforms/formlink/internal/model"
)

// LinkRepo provides persistence for the 'form_links' table.  Expiry is
// never written back by reads: stored status only changes through
// SoftDelete, and the presented status is derived from expires_at by
// model.FormLink.EffectiveStatus.
type LinkRepo struct{ DB *sql.DB }

func NewLinkRepo(db *sql.DB) *LinkRepo { return &LinkRepo{DB: db} }

const linkColumns = "id, user_id, unit_number, sales_agent, link_code, client_email, expiry_days, created_at, expires_at, status, submissions_count, notes"

func scanLink(scan func(dest ...interface{}) error) (model.FormLink, error) {
	var (
		l           model.FormLink
		status      string
		clientEmail sql.NullString
		notes       sql.NullString
	)
	err := scan(&l.ID, &l.OwnerUserID, &l.UnitNumber, &l.SalesAgent, &l.LinkCode,
		&clientEmail, &l.ExpiryDays, &l.CreatedAt, &l.ExpiresAt, &status,
		&l.SubmissionsCount, &notes)
	if err != nil {
		return model.FormLink{}, err
	}
	if status == string(model.LinkDeleted) {
		l.Status = model.LinkDeleted
	} else {
		l.Status = model.LinkActive
	}
	if clientEmail.Valid {
		e := clientEmail.String
		l.ClientEmail = &e
	}
	if notes.Valid {
		n := notes.String
		l.Notes = &n
	}
	return l, nil
}

// Create inserts a fully populated link record.  The caller supplies id,
// link_code and the precomputed expires_at so that the invariant
// expires_at == created_at + expiry_days holds exactly.
func (r *LinkRepo) Create(ctx context.Context, l *model.FormLink) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO form_links (id, user_id, unit_number, sales_agent, link_code, client_email, expiry_days, created_at, expires_at, status, submissions_count, notes)
		 VALUES (?,?,?,?,?,?,?,?,?,?,0,?)`,
		l.ID, l.OwnerUserID, l.UnitNumber, l.SalesAgent, l.LinkCode,
		l.ClientEmail, l.ExpiryDays, l.CreatedAt, l.ExpiresAt, string(l.Status), l.Notes)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return storeErr(err)
	}
	return nil
}

// GetByCode fetches a link by its public code via the unique index,
// regardless of stored status or expiry.  The submission path needs the
// row even when it is deleted or expired, to distinguish Expired from
// NotFound.
func (r *LinkRepo) GetByCode(ctx context.Context, code string) (model.FormLink, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+linkColumns+" FROM form_links WHERE link_code=? LIMIT 1", code)
	l, err := scanLink(row.Scan)
	if err != nil {
		return model.FormLink{}, storeErr(err)
	}
	return l, nil
}

// GetByID fetches a link by its opaque id.
func (r *LinkRepo) GetByID(ctx context.Context, id string) (model.FormLink, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+linkColumns+" FROM form_links WHERE id=? LIMIT 1", id)
	l, err := scanLink(row.Scan)
	if err != nil {
		return model.FormLink{}, storeErr(err)
	}
	return l, nil
}

func (r *LinkRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.FormLink, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	links := make([]model.FormLink, 0)
	for rows.Next() {
		l, err := scanLink(rows.Scan)
		if err != nil {
			return nil, storeErr(err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return links, nil
}

// ListByOwner returns the owner's links newest-first.
func (r *LinkRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.FormLink, error) {
	return r.list(ctx,
		"SELECT "+linkColumns+" FROM form_links WHERE user_id=? ORDER BY created_at DESC", ownerID)
}

// ListAll returns every link newest-first, for the admin overview.
func (r *LinkRepo) ListAll(ctx context.Context) ([]model.FormLink, error) {
	return r.list(ctx,
		"SELECT "+linkColumns+" FROM form_links ORDER BY created_at DESC")
}

// LinkUpdate carries the optional fields of a partial link edit.  Status
// is deliberately absent: the only stored-status transition is the soft
// delete, which has its own operation.  For the nullable columns an
// empty string clears the value back to NULL, since a *string cannot
// express "present but null" after JSON decoding.
type LinkUpdate struct {
	UnitNumber  *string
	SalesAgent  *string
	ClientEmail *string
	Notes       *string
}

// Empty reports whether the update would change nothing.
func (u LinkUpdate) Empty() bool {
	return u.UnitNumber == nil && u.SalesAgent == nil && u.ClientEmail == nil && u.Notes == nil
}

// nullable maps the empty string to SQL NULL for optional text columns.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Update applies the provided fields to a link.  Ownership must be
// checked by the caller before invoking this.
func (r *LinkRepo) Update(ctx context.Context, id string, upd LinkUpdate) error {
	if upd.Empty() {
		return ErrInvalidArgument
	}
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if upd.UnitNumber != nil {
		sets = append(sets, "unit_number=?")
		args = append(args, *upd.UnitNumber)
	}
	if upd.SalesAgent != nil {
		sets = append(sets, "sales_agent=?")
		args = append(args, *upd.SalesAgent)
	}
	if upd.ClientEmail != nil {
		sets = append(sets, "client_email=?")
		args = append(args, nullable(*upd.ClientEmail))
	}
	if upd.Notes != nil {
		sets = append(sets, "notes=?")
		args = append(args, nullable(*upd.Notes))
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE form_links SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return storeErr(err)
}

// SoftDelete moves a link into its terminal deleted state.  There is no
// path back to active.
func (r *LinkRepo) SoftDelete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE form_links SET status=? WHERE id=?", string(model.LinkDeleted), id)
	return storeErr(err)
}

// IncrementSubmissionsTx bumps the per-link submission counter inside the
// same transaction as the submission insert, so concurrent submits cannot
// lose updates and a crash cannot leave counter and ledger diverged.
func (r *LinkRepo) IncrementSubmissionsTx(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE form_links SET submissions_count = submissions_count + 1 WHERE id=?", id)
	return storeErr(err)
}

// CountersForOwner is used by the dashboard: totals are recomputed from
// the table on every call, never cached, so they cannot drift.
func (r *LinkRepo) CountersForOwner(ctx context.Context, ownerID uint64, now time.Time) (total, active, expired uint64, err error) {
	err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(status = 'active' AND expires_at > ?), 0),
		        COALESCE(SUM(status = 'active' AND expires_at <= ?), 0)
		 FROM form_links WHERE user_id=?`,
		now, now, ownerID).Scan(&total, &active, &expired)
	if err != nil {
		return 0, 0, 0, storeErr(err)
	}
	return total, active, expired, nil
}

// CountAll returns the system-wide link total for the admin dashboard.
func (r *LinkRepo) CountAll(ctx context.Context) (uint64, error) {
	var n uint64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM form_links").Scan(&n); err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}
