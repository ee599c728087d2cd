package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalforms/formlink/internal/model"
)

func userRows(id uint64, username, hash string, role model.Role, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "password_hash", "email", "full_name", "role",
		"department", "is_active", "created_at", "last_login",
	}).AddRow(id, username, hash, username+"@example.com", "Test User", string(role),
		nil, active, time.Now().UTC(), nil)
}

func TestUserGetByUsernameNormalizes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=").
		WithArgs("agent7").
		WillReturnRows(userRows(7, "agent7", "hash", model.RoleAgent, true))

	u, err := repo.GetByUsername(context.Background(), "  Agent7 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, model.RoleAgent, u.Role)
	assert.True(t, u.IsActive)
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'agent7' for key 'uq_users_username'"))

	_, err := repo.Create(context.Background(), "agent7", "agent7@example.com", "Agent Seven", "password123", model.RoleAgent, nil, 4)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserUpdatePartialSQL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	email := "New@Example.com "
	active := false
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email=?, is_active=? WHERE id=?")).
		WithArgs("new@example.com", false, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), 7, UserUpdate{Email: &email, IsActive: &active})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateEmpty(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewUserRepo(db)

	assert.ErrorIs(t, repo.Update(context.Background(), 7, UserUpdate{}), ErrInvalidArgument)
}

func TestUserDeactivateUnknownID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active=0 WHERE id=?")).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	assert.ErrorIs(t, repo.Deactivate(context.Background(), 42), ErrNotFound)
}

func TestUserCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\), COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"total", "active"}).AddRow(12, 9))

	total, active, err := repo.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12), total)
	assert.Equal(t, uint64(9), active)
}
