package domain

import "time"

// EmailKind labels what an outbox message is for.
type EmailKind string

const (
	EmailKindReceipt  EmailKind = "donor_receipt"
	EmailKindAdmin    EmailKind = "admin_notification"
	EmailKindDevAlert EmailKind = "dev_alert"
)

// EmailStatus enumerates outbox delivery states.
type EmailStatus string

const (
	EmailPending EmailStatus = "PENDING"
	EmailSent    EmailStatus = "SENT"
	EmailFailed  EmailStatus = "FAILED"
)

// EmailMessage is a queued notification. Messages are written in the same
// transaction as the state change that triggered them and delivered later by
// the worker, so a mail failure can never roll back a settled donation.
type EmailMessage struct {
	ID         string
	Kind       EmailKind
	Recipients []string
	Subject    string
	Body       string
	Status     EmailStatus
	Attempts   int
	CreatedAt  time.Time
	SentAt     *time.Time
}
