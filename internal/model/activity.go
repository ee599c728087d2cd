package model

import "time"

// ActivityLogEntry mirrors the 'activity_log' table, an append-only audit
// trail written as a side effect of every state-changing operation.
// UserID is nil for actions without an authenticated actor; public
// submissions are attributed to the link owner instead.
type ActivityLogEntry struct {
	ID        uint64    // activity_log.id
	UserID    *uint64   // activity_log.user_id
	Action    string    // activity_log.action
	Details   string    // activity_log.details
	IPAddress string    // activity_log.ip_address
	UserAgent string    // activity_log.user_agent
	CreatedAt time.Time // activity_log.created_at
}

// Well-known activity actions.  Kept as constants so the audit trail is
// greppable; free-text details carry the specifics.
const (
	ActionLogin            = "login"
	ActionLogout           = "logout"
	ActionChangePassword   = "change_password"
	ActionCreateFormLink   = "create_form_link"
	ActionUpdateFormLink   = "update_form_link"
	ActionDeleteFormLink   = "delete_form_link"
	ActionFormSubmission   = "form_submission"
	ActionReviewSubmission = "review_submission"
	ActionCreateUser       = "create_user"
	ActionUpdateUser       = "update_user"
	ActionDeactivateUser   = "deactivate_user"
)
