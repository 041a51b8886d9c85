package alerts

import "log"

// QueueNotifier pushes order lifecycle alerts onto the task queue.
// Failures are logged and swallowed, a lost alert never fails the operation
// that produced it.
type QueueNotifier struct{}

func (QueueNotifier) Notify(orderID, recipientID, kind, body string) {
	if err := EnqueueOrderAlert(orderID, recipientID, kind, body); err != nil {
		log.Printf("[notify][ERROR] enqueue failed for order=%s kind=%s: %v", orderID, kind, err)
	}
}
