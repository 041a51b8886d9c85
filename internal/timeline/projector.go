// Package timeline reconstructs a human-readable order history from the
// order's current sub-records. It is a pure read-side view: no mutation, and
// identical input always yields an identical, stably ordered list.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/gigplane/gigplane/internal/order"
)

type Event struct {
	Label       string             `json:"label"`
	Message     string             `json:"message,omitempty"`
	Attachments []order.Attachment `json:"attachments,omitempty"`
	At          time.Time          `json:"at,omitempty"`
}

// Project emits one or more events for each present sub-record, sorted by
// timestamp descending for display. Events with missing timestamps sort last.
// Delivery numbers are always computed from ascending chronological order
// (oldest = #1), independent of the display order.
func Project(o *order.Order) []Event {
	var events []Event

	events = append(events, Event{Label: "Order Placed", At: o.CreatedAt})

	if o.ExtraInfo != nil {
		events = append(events, Event{
			Label:       "Information Submitted",
			Message:     o.ExtraInfo.Message,
			Attachments: o.ExtraInfo.Attachments,
			At:          o.ExtraInfo.SubmittedAt,
		})
	}
	if o.WorkStartedAt != nil {
		events = append(events, Event{Label: "Work Started", At: *o.WorkStartedAt})
	}

	for i, num := range deliveryNumbers(o.Deliveries) {
		d := o.Deliveries[i]
		events = append(events, Event{
			Label:       fmt.Sprintf("Delivery #%d", num),
			Message:     d.Message,
			Attachments: d.Attachments,
			At:          d.DeliveredAt,
		})
	}

	if r := o.Revision; r != nil {
		events = append(events, Event{Label: "Revision Requested", Message: r.Reason, At: r.RequestedAt})
		if r.RespondedAt != nil {
			switch r.Status {
			case order.RevisionInProgress:
				events = append(events, Event{Label: "Revision Accepted", Message: r.ResponseNote, At: *r.RespondedAt})
			case order.RevisionRejected:
				events = append(events, Event{Label: "Revision Rejected", Message: r.ResponseNote, At: *r.RespondedAt})
			case order.RevisionCompleted:
				events = append(events, Event{Label: "Revision Completed", At: *r.RespondedAt})
			}
		}
	}

	if c := o.Cancellation; c != nil {
		events = append(events, Event{
			Label:       "Cancellation Requested",
			Message:     c.Reason,
			Attachments: c.Attachments,
			At:          c.RequestedAt,
		})
		if c.ResolvedAt != nil {
			label := ""
			msg := ""
			switch c.Status {
			case order.CancellationApproved:
				label = "Cancellation Approved"
				if c.AutoResolved {
					msg = "Approved automatically: no response before the deadline."
				}
			case order.CancellationRejected:
				label = "Cancellation Rejected"
				msg = c.RejectionReason
			case order.CancellationWithdrawn:
				label = "Cancellation Withdrawn"
			}
			if label != "" {
				events = append(events, Event{Label: label, Message: msg, At: *c.ResolvedAt})
			}
		}
	}

	if e := o.Extension; e != nil {
		events = append(events, Event{
			Label:   "Extension Requested",
			Message: e.Reason,
			At:      e.RequestedAt,
		})
		if e.ResolvedAt != nil {
			switch e.Status {
			case order.ExtensionApproved:
				msg := "New delivery date: " + e.ProposedDueAt.Format("Jan 2, 2006")
				if e.AutoResolved {
					msg = "Approved automatically: no response before the deadline. " + msg
				}
				events = append(events, Event{Label: "Extension Approved", Message: msg, At: *e.ResolvedAt})
			case order.ExtensionRejected:
				events = append(events, Event{Label: "Extension Rejected", At: *e.ResolvedAt})
			}
		}
	}

	if d := o.Dispute; d != nil {
		events = append(events, Event{
			Label:       "Dispute Opened",
			Message:     d.UnmetRequirements,
			Attachments: d.Evidence,
			At:          d.OpenedAt,
		})
		for _, m := range d.Transcript {
			events = append(events, Event{Label: "Dispute Response", Message: m.Message, At: m.SentAt})
		}
		if d.ClosedAt != nil {
			switch d.Status {
			case order.DisputeResolvedCompleted, order.DisputeResolvedCancelled:
				events = append(events, Event{Label: "Dispute Resolved", At: *d.ClosedAt})
			case order.DisputeWithdrawn:
				events = append(events, Event{Label: "Dispute Withdrawn", At: *d.ClosedAt})
			}
		}
	}

	if o.CompletedAt != nil {
		events = append(events, Event{Label: "Order Completed", At: *o.CompletedAt})
	}
	if o.CancelledAt != nil {
		events = append(events, Event{Label: "Order Cancelled", At: *o.CancelledAt})
	}

	// Newest first for display; events with no timestamp go last. Stable, so
	// equal keys keep emission order and the output is deterministic.
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].At, events[j].At
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return a.After(b)
		}
	})
	return events
}

// deliveryNumbers maps each position in deliveries to its chronological
// number, oldest first.
func deliveryNumbers(deliveries []order.Delivery) []int {
	idx := make([]int, len(deliveries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return deliveries[idx[a]].DeliveredAt.Before(deliveries[idx[b]].DeliveredAt)
	})
	numbers := make([]int, len(deliveries))
	for rank, i := range idx {
		numbers[i] = rank + 1
	}
	return numbers
}
