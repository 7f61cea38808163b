// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

import "time"

// Notification kinds.
const (
	KindLead    = "lead"
	KindContact = "contact"
	KindChat    = "chat"
)

// NotificationTask is an owner notification waiting to be mailed by the notifier.
type NotificationTask struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	HTMLBody  string    `json:"html_body"`
	ReplyTo   string    `json:"reply_to,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
