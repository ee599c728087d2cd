package model

import (
	"encoding/json"
	"time"
)

// SubmissionStatus is the review state of a customer submission.  Review
// may move a submission between any of the three states; submissions are
// never deleted.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// ValidSubmissionStatus reports whether s is one of the three review
// states accepted by the review operation.
func ValidSubmissionStatus(s string) bool {
	switch SubmissionStatus(s) {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

// Submission mirrors the 'form_submissions' table.  OwnerUserID is copied
// from the link at creation time and never changes afterwards, even if
// the link is later edited; authorization always compares against this
// snapshot.
type Submission struct {
	ID             string           // form_submissions.id (uuid)
	LinkID         string           // form_submissions.link_id
	OwnerUserID    uint64           // form_submissions.user_id
	CustomerName   string           // form_submissions.customer_name
	CustomerEmail  *string          // form_submissions.customer_email (optional)
	SubmissionData json.RawMessage  // form_submissions.submission_data (opaque payload)
	SubmittedAt    time.Time        // form_submissions.submitted_at
	Status         SubmissionStatus // form_submissions.status
	ReviewNotes    *string          // form_submissions.review_notes
	ReviewedBy     *uint64          // form_submissions.reviewed_by
	ReviewedAt     *time.Time       // form_submissions.reviewed_at

	// Denormalized link fields populated by listing queries for display.
	UnitNumber string // form_links.unit_number
	SalesAgent string // form_links.sales_agent
}
