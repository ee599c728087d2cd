// Package repository implements data access against MySQL.  This file
// defines the sentinel errors shared by every repository and checked by
// handlers to pick the HTTP status for a failure.  Each component-level
// operation either succeeds or returns one of these kinds; raw driver
// errors are wrapped as ErrStoreUnavailable so no store-specific text
// crosses the HTTP boundary.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for malformed or missing caller input.
// Handlers translate it into HTTP 400.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidCredentials is returned for any authentication failure:
// unknown username, deactivated account or wrong password.  The three
// cases are deliberately indistinguishable to the caller.  Handlers
// translate it into HTTP 401.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrForbidden is returned when an authenticated caller attempts an
// operation on a resource they do not own.  Handlers translate it into
// HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when an id or link code does not resolve to any
// record.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrExpired is returned when a link resolved but its validity window has
// passed, covering both time expiry and soft deletion.  Distinct from
// ErrNotFound so the submission path can log the difference; handlers
// translate it into HTTP 410.
var ErrExpired = errors.New("expired")

// ErrConflict is returned when an insert or update collides with existing
// state, such as a duplicate username or email.  Handlers translate it
// into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrStoreUnavailable wraps transient infrastructure failures.  It is the
// only kind a caller may legitimately retry; handlers translate it into
// HTTP 503.
var ErrStoreUnavailable = errors.New("store unavailable")

// storeErr normalizes low-level failures: row absence stays ErrNotFound,
// everything else (driver errors, timeouts) becomes ErrStoreUnavailable
// with the cause retained for wrapped inspection.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
