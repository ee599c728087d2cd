// Package queue defines message payloads exchanged over the message broker.
package queue

// FormSubmittedEvent is published after a customer submission commits.
// It carries enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type FormSubmittedEvent struct {
	SubmissionID string `json:"submission_id"`
	LinkID       string `json:"link_id"`
	LinkCode     string `json:"link_code"`
	OwnerUserID  uint64 `json:"owner_user_id"`
	UnitNumber   string `json:"unit_number"`
	SalesAgent   string `json:"sales_agent"`
	CustomerName string `json:"customer_name"`
	SubmittedAt  string `json:"submitted_at"`
}
