package repository

import (
	"context"
	"database/sql"

	"github.com/digitalforms/formlink/internal/model"
)

// ActivityRepo appends to the 'activity_log' table.  The log is
// append-only: nothing in the core ever mutates or deletes entries, and
// retention is an external concern.
type ActivityRepo struct{ DB *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{DB: db} }

// Log appends one audit entry.  userID may be nil for actions without an
// authenticated actor.
func (r *ActivityRepo) Log(ctx context.Context, userID *uint64, action, details, ip, userAgent string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO activity_log (user_id, action, details, ip_address, user_agent) VALUES (?,?,?,?,?)",
		userID, action, details, ip, userAgent)
	return storeErr(err)
}

// Recent returns the newest entries up to limit, for the admin audit view.
func (r *ActivityRepo) Recent(ctx context.Context, limit int) ([]model.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, action, details, ip_address, user_agent, created_at FROM activity_log ORDER BY created_at DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	entries := make([]model.ActivityLogEntry, 0, limit)
	for rows.Next() {
		var (
			e      model.ActivityLogEntry
			userID sql.NullInt64
			ip     sql.NullString
			ua     sql.NullString
		)
		if err := rows.Scan(&e.ID, &userID, &e.Action, &e.Details, &ip, &ua, &e.CreatedAt); err != nil {
			return nil, storeErr(err)
		}
		if userID.Valid {
			id := uint64(userID.Int64)
			e.UserID = &id
		}
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return entries, nil
}
