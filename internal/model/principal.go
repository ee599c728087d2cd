package model

// Principal is the verified identity attached to a request after token
// validation.  It is constructed only by the JWT middleware (or the
// explicit validate endpoint) after both the signature check and the
// live user lookup succeed; handlers must never build one from raw
// client-supplied claims.
type Principal struct {
	ID       uint64
	Username string
	Role     Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
