// Package pricing derives price breakdowns and milestone rows from an order.
// Everything here is a pure function over the order record.
package pricing

import (
	"fmt"
	"time"

	"github.com/gigplane/gigplane/internal/order"
)

type Breakdown struct {
	Subtotal   int64 `json:"subtotal"`
	Discount   int64 `json:"discount"`
	ServiceFee int64 `json:"service_fee"`
	Total      int64 `json:"total"`
}

// ComputeBreakdown recalculates the money fields from the priced items.
// total = subtotal − discount + serviceFee, and none of the inputs may be
// negative.
func ComputeBreakdown(o *order.Order) (Breakdown, error) {
	var subtotal int64
	for _, it := range o.Items {
		if it.UnitPrice < 0 || it.Quantity < 0 {
			return Breakdown{}, fmt.Errorf("%w: negative price or quantity", order.ErrValidation)
		}
		subtotal += it.UnitPrice * int64(it.Quantity)
	}
	if o.Discount < 0 || o.ServiceFee < 0 {
		return Breakdown{}, fmt.Errorf("%w: negative discount or service fee", order.ErrValidation)
	}
	total := subtotal - o.Discount + o.ServiceFee
	if total < 0 {
		return Breakdown{}, fmt.Errorf("%w: discount exceeds order value", order.ErrValidation)
	}
	return Breakdown{
		Subtotal:   subtotal,
		Discount:   o.Discount,
		ServiceFee: o.ServiceFee,
		Total:      total,
	}, nil
}

// Milestone display statuses. A milestone's status is never stored; it is
// derived here with a fixed precedence, falling back to the order's own
// status.
const (
	MilestoneRevision = "Revision"
	MilestoneDelivered = "Delivered"
	MilestoneResolved = "Resolved"
)

var statusLabels = map[order.Status]string{
	order.StatusPending:             "Offer Created",
	order.StatusActive:              "Active",
	order.StatusDelivered:           "Delivered",
	order.StatusRevision:            "Revision",
	order.StatusDisputed:            "Disputed",
	order.StatusCancellationPending: "Cancellation Pending",
	order.StatusCompleted:           "Completed",
	order.StatusCancelled:           "Cancelled",
}

type MilestoneRow struct {
	Index    int       `json:"index"`
	Name     string    `json:"name"`
	Amount   int64     `json:"amount"`
	DueAt    time.Time `json:"due_at"`
	Status   string    `json:"status"`
}

// MilestoneRows computes amount, due date and derived status for every
// milestone in plan order. Due dates use whole-day calendar arithmetic from
// the order date, so they never drift with time zones.
func MilestoneRows(o *order.Order) []MilestoneRow {
	if len(o.Milestones) == 0 {
		return nil
	}
	rows := make([]MilestoneRow, 0, len(o.Milestones))
	for i, m := range o.Milestones {
		rows = append(rows, MilestoneRow{
			Index:  i,
			Name:   m.Name,
			Amount: m.Amount(),
			DueAt:  o.CreatedAt.AddDate(0, 0, m.DeliveryOffsetDays),
			Status: milestoneStatus(o, i),
		})
	}
	return rows
}

func milestoneStatus(o *order.Order, idx int) string {
	// Active revision pinned to this milestone wins over everything.
	if r := o.Revision; r != nil && r.MilestoneIndex != nil && *r.MilestoneIndex == idx &&
		(r.Status == order.RevisionPending || r.Status == order.RevisionInProgress) {
		return MilestoneRevision
	}
	for _, d := range o.Deliveries {
		if d.MilestoneIndex != nil && *d.MilestoneIndex == idx {
			return MilestoneDelivered
		}
	}
	if d := o.Dispute; d != nil &&
		(d.Status == order.DisputeResolvedCompleted || d.Status == order.DisputeResolvedCancelled) {
		for _, i := range d.MilestoneIndexes {
			if i == idx {
				return MilestoneResolved
			}
		}
	}
	return statusLabels[o.Derive()]
}

// DisputeTotal is the amount shown for a milestone-based dispute: the sum of
// the selected milestone amounts.
func DisputeTotal(o *order.Order, indexes []int) (int64, error) {
	sum, ok := o.MilestoneAmountSum(indexes)
	if !ok {
		return 0, fmt.Errorf("%w: milestone index out of range", order.ErrValidation)
	}
	return sum, nil
}
