package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/digitalforms/formlink/internal/model"
	"github.com/digitalforms/formlink/internal/utils"
)

// UserRepo provides persistence for the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, password_hash, email, full_name, role, department, is_active, created_at, last_login"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u          model.User
		role       string
		department sql.NullString
		lastLogin  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FullName,
		&role, &department, &u.IsActive, &u.CreatedAt, &lastLogin)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.ParseRole(role)
	if department.Valid {
		d := department.String
		u.Department = &d
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

// Create inserts a user and returns its ID.  The password is hashed here
// with the given bcrypt cost.  Duplicate username or email surfaces as
// ErrConflict (uniqueness spans active and inactive users).
func (r *UserRepo) Create(ctx context.Context, username, email, fullName, password string, role model.Role, department *string, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, storeErr(err)
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, email, full_name, role, department) VALUES (?,?,?,?,?,?)",
		username, hash, email, fullName, string(role), department)
	if err != nil {
		// 1062: MySQL duplicate-key error on the username/email unique indexes.
		if strings.Contains(err.Error(), "1062") {
			return 0, ErrConflict
		}
		return 0, storeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr(err)
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username regardless of the
// active flag; callers decide how inactivity surfaces so that login can
// return the same error for unknown and deactivated accounts.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
	if err != nil {
		return model.User{}, storeErr(err)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.User{}, storeErr(err)
	}
	return u, nil
}

// TouchLastLogin records a successful authentication.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET last_login=? WHERE id=?", at, id)
	return storeErr(err)
}

// UpdatePassword re-hashes and persists a new password.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, newPassword string, cost int) error {
	hash, err := utils.HashPassword(newPassword, cost)
	if err != nil {
		return storeErr(err)
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return storeErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all users ordered newest-first, for the admin user screen.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var (
			u          model.User
			role       string
			department sql.NullString
			lastLogin  sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FullName,
			&role, &department, &u.IsActive, &u.CreatedAt, &lastLogin); err != nil {
			return nil, storeErr(err)
		}
		u.Role = model.ParseRole(role)
		if department.Valid {
			d := department.String
			u.Department = &d
		}
		if lastLogin.Valid {
			t := lastLogin.Time
			u.LastLogin = &t
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return users, nil
}

// Counts returns total and active user counts for the admin dashboard.
func (r *UserRepo) Counts(ctx context.Context) (total, active uint64, err error) {
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM users").Scan(&total, &active)
	if err != nil {
		return 0, 0, storeErr(err)
	}
	return total, active, nil
}

// UserUpdate carries the optional fields of an admin user edit.  Nil
// pointers leave the column untouched; an empty Department clears it to
// NULL.
type UserUpdate struct {
	Email      *string
	FullName   *string
	Role       *model.Role
	Department *string
	IsActive   *bool
}

// Empty reports whether the update would change nothing.
func (u UserUpdate) Empty() bool {
	return u.Email == nil && u.FullName == nil && u.Role == nil && u.Department == nil && u.IsActive == nil
}

// Update applies the provided fields to a user.  Duplicate email maps to
// ErrConflict, a missing row to ErrNotFound.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) error {
	if upd.Empty() {
		return ErrInvalidArgument
	}
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if upd.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.FullName != nil {
		sets = append(sets, "full_name=?")
		args = append(args, *upd.FullName)
	}
	if upd.Role != nil {
		sets = append(sets, "role=?")
		args = append(args, string(*upd.Role))
	}
	if upd.Department != nil {
		sets = append(sets, "department=?")
		args = append(args, nullable(*upd.Department))
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *upd.IsActive)
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return storeErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if chkErr := r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE id=?)", id).Scan(&exists); chkErr == nil && !exists {
			return ErrNotFound
		}
	}
	return nil
}

// Deactivate soft-deletes a user.  The record stays for referential
// integrity and username/email uniqueness; only is_active flips.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=0 WHERE id=?", id)
	if err != nil {
		return storeErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if chkErr := r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE id=?)", id).Scan(&exists); chkErr == nil && !exists {
			return ErrNotFound
		}
	}
	return nil
}
