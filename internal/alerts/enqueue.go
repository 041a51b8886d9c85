package alerts

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init("")
	}
	return client
}

var titles = map[string]string{
	"order:placed":                 "Order placed",
	"order:started":                "Work started",
	"order:info":                   "Information submitted",
	"order:delivered":              "Order delivered",
	"order:completed":              "Order completed",
	"order:cancelled":              "Order cancelled",
	"order:revision_requested":     "Revision requested",
	"order:revision_accepted":      "Revision accepted",
	"order:revision_rejected":      "Revision rejected",
	"order:cancellation_requested": "Cancellation requested",
	"order:cancellation_rejected":  "Cancellation rejected",
	"order:cancellation_withdrawn": "Cancellation withdrawn",
	"order:extension_requested":    "Extension requested",
	"order:extension_approved":     "Extension approved",
	"order:extension_rejected":     "Extension rejected",
	"order:dispute_opened":         "Dispute opened",
	"order:dispute_response":       "Dispute response",
	"order:arbitration_requested":  "Dispute sent to arbitration",
	"order:dispute_resolved":       "Dispute resolved",
	"order:dispute_withdrawn":      "Dispute withdrawn",
}

// EnqueueOrderAlert schedules an in-app notification for the recipient.
func EnqueueOrderAlert(orderID, recipientID, kind, body string) error {
	title, ok := titles[kind]
	if !ok {
		title = "Order update"
	}
	payload := OrderAlertPayload{
		OrderID:     orderID,
		RecipientID: recipientID,
		Kind:        kind,
		Title:       title,
		Body:        body,
		SentAt:      time.Now(),
	}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOrderAlert, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}
