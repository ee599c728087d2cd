package model

import "time"

// Role is the authorization level stored on a user record and embedded
// in access tokens.  Only two roles exist: admins may act on every
// resource, agents only on resources they own.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// ParseRole maps a raw string onto a Role.  Unknown values fall back to
// RoleAgent so a corrupted or missing role can never escalate privileges.
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleAgent
}

// User mirrors the 'users' table.  Users are never physically deleted;
// deactivation clears IsActive, which also invalidates outstanding tokens
// on their next validation.  Username and email are unique across active
// and inactive users alike.
type User struct {
	ID           uint64     // users.id
	Username     string     // users.username
	PasswordHash string     // users.password_hash
	Email        string     // users.email
	FullName     string     // users.full_name
	Role         Role       // users.role
	Department   *string    // users.department (optional)
	IsActive     bool       // users.is_active
	CreatedAt    time.Time  // users.created_at
	LastLogin    *time.Time // users.last_login (nil until first login)
}
