// Package policy centralizes the owner-or-admin authorization rule.  The
// same decision gates form link reads/updates/deletes and submission
// reads/reviews, so every caller goes through this one function instead
// of re-implementing the comparison inline.
package policy

import "github.com/digitalforms/formlink/internal/model"

// CanAccess reports whether the principal may act on a resource owned by
// resourceOwnerID.  Admins may act on everything; everyone else only on
// their own resources.  Pure function, no side effects.
func CanAccess(p model.Principal, resourceOwnerID uint64) bool {
	if p.IsAdmin() {
		return true
	}
	return p.ID == resourceOwnerID
}
