package alerts

import "time"

// Task type constants
const (
	TaskOrderAlert = "alert:order"
)

// OrderAlertPayload carries a lifecycle notification for one recipient.
// Kind is the event name, e.g. "order:delivered" or "dispute:opened".
type OrderAlertPayload struct {
	OrderID     string    `json:"order_id"`
	RecipientID string    `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}
