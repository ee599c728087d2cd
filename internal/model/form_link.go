package model

import "time"

// LinkStatus is the stored lifecycle state of a form link.  The only
// transition is active -> deleted, and it is manual; expiry never rewrites
// the stored status.
type LinkStatus string

const (
	LinkActive  LinkStatus = "active"
	LinkDeleted LinkStatus = "deleted"
)

// EffectiveLinkStatus is the status presented to callers.  It is derived
// at read time from the stored status plus the clock and is never
// persisted, so no background sweep is needed to expire links.
type EffectiveLinkStatus string

const (
	LinkEffectiveActive  EffectiveLinkStatus = "active"
	LinkEffectiveExpired EffectiveLinkStatus = "expired"
	LinkEffectiveDeleted EffectiveLinkStatus = "deleted"
)

// DefaultExpiryDays is applied when a link is created without an explicit
// expiry window.
const DefaultExpiryDays = 14

// FormLink mirrors the 'form_links' table.  A link grants anonymous
// customers submission access to exactly one unit record via its
// LinkCode, which is the public security boundary: it must be globally
// unique and cryptographically unpredictable.
type FormLink struct {
	ID               string     // form_links.id (uuid)
	OwnerUserID      uint64     // form_links.user_id
	UnitNumber       string     // form_links.unit_number
	SalesAgent       string     // form_links.sales_agent (display name, not necessarily the owner)
	LinkCode         string     // form_links.link_code
	ClientEmail      *string    // form_links.client_email (optional)
	ExpiryDays       int        // form_links.expiry_days
	CreatedAt        time.Time  // form_links.created_at
	ExpiresAt        time.Time  // form_links.expires_at (= created_at + expiry_days)
	Status           LinkStatus // form_links.status
	SubmissionsCount uint64     // form_links.submissions_count
	Notes            *string    // form_links.notes (optional)
}

// EffectiveStatus derives the presented status at time now.  A deleted
// link stays deleted; a stored-active link is expired once now reaches
// ExpiresAt.
func (l FormLink) EffectiveStatus(now time.Time) EffectiveLinkStatus {
	if l.Status == LinkDeleted {
		return LinkEffectiveDeleted
	}
	if !now.Before(l.ExpiresAt) {
		return LinkEffectiveExpired
	}
	return LinkEffectiveActive
}

// AcceptsSubmissions reports whether the public submission path may use
// this link at time now.
func (l FormLink) AcceptsSubmissions(now time.Time) bool {
	return l.EffectiveStatus(now) == LinkEffectiveActive
}
