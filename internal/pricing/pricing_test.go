package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/gigplane/gigplane/internal/order"
)

func TestComputeBreakdown(t *testing.T) {
	o := &order.Order{
		Items:      []order.LineItem{{Title: "Brand kit", UnitPrice: 5000, Quantity: 2}},
		Discount:   1000,
		ServiceFee: 500,
	}
	b, err := ComputeBreakdown(o)
	if err != nil {
		t.Fatalf("ComputeBreakdown: %v", err)
	}
	if b.Subtotal != 10000 {
		t.Fatalf("subtotal = %d, want 10000", b.Subtotal)
	}
	if b.Total != 9500 {
		t.Fatalf("total = %d, want 9500", b.Total)
	}
}

func TestComputeBreakdownValidation(t *testing.T) {
	tests := []struct {
		name string
		o    *order.Order
	}{
		{"negative price", &order.Order{Items: []order.LineItem{{UnitPrice: -1, Quantity: 1}}}},
		{"negative quantity", &order.Order{Items: []order.LineItem{{UnitPrice: 100, Quantity: -1}}}},
		{"negative discount", &order.Order{Items: []order.LineItem{{UnitPrice: 100, Quantity: 1}}, Discount: -5}},
		{"negative fee", &order.Order{Items: []order.LineItem{{UnitPrice: 100, Quantity: 1}}, ServiceFee: -5}},
		{"discount exceeds value", &order.Order{Items: []order.LineItem{{UnitPrice: 100, Quantity: 1}}, Discount: 101}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ComputeBreakdown(tt.o); !errors.Is(err, order.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func milestoneOrder() *order.Order {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &order.Order{
		CreatedAt: created,
		Items:     []order.LineItem{{Title: "Site", UnitPrice: 20000, Quantity: 1}},
		Milestones: []order.Milestone{
			{Name: "Wireframes", UnitPrice: 10000, Quantity: 1, DeliveryOffsetDays: 3},
			{Name: "Pages", UnitPrice: 5000, Quantity: 2, DeliveryOffsetDays: 10},
		},
	}
}

func TestMilestoneRows(t *testing.T) {
	o := milestoneOrder()
	rows := MilestoneRows(o)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Amount != 10000 || rows[1].Amount != 10000 {
		t.Fatalf("amounts = %d, %d, want 10000 each", rows[0].Amount, rows[1].Amount)
	}
	wantDue := time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)
	if !rows[0].DueAt.Equal(wantDue) {
		t.Fatalf("due = %v, want %v", rows[0].DueAt, wantDue)
	}
	if rows[0].Status != "Offer Created" {
		t.Fatalf("status = %q, want %q", rows[0].Status, "Offer Created")
	}
}

func TestMilestoneStatusPrecedence(t *testing.T) {
	idx0 := 0
	now := time.Now()

	t.Run("delivery marks delivered", func(t *testing.T) {
		o := milestoneOrder()
		started := now
		o.WorkStartedAt = &started
		o.Deliveries = []order.Delivery{{Number: 1, Message: "wireframes", MilestoneIndex: &idx0, DeliveredAt: now}}
		rows := MilestoneRows(o)
		if rows[0].Status != MilestoneDelivered {
			t.Fatalf("row 0 = %q, want %q", rows[0].Status, MilestoneDelivered)
		}
		if rows[1].Status != "Delivered" {
			t.Fatalf("row 1 = %q, want order status label Delivered", rows[1].Status)
		}
	})

	t.Run("active revision wins over delivery", func(t *testing.T) {
		o := milestoneOrder()
		started := now
		o.WorkStartedAt = &started
		o.Deliveries = []order.Delivery{{Number: 1, MilestoneIndex: &idx0, Message: "v1", DeliveredAt: now}}
		o.Revision = &order.Revision{Status: order.RevisionPending, Reason: "redo", MilestoneIndex: &idx0, RequestedAt: now}
		rows := MilestoneRows(o)
		if rows[0].Status != MilestoneRevision {
			t.Fatalf("row 0 = %q, want %q", rows[0].Status, MilestoneRevision)
		}
	})

	t.Run("resolved dispute marks resolved", func(t *testing.T) {
		o := milestoneOrder()
		started := now
		o.WorkStartedAt = &started
		completed := now
		o.CompletedAt = &completed
		o.Dispute = &order.Dispute{
			Status:           order.DisputeResolvedCompleted,
			MilestoneIndexes: []int{1},
			OpenedAt:         now,
			ClosedAt:         &completed,
		}
		rows := MilestoneRows(o)
		if rows[1].Status != MilestoneResolved {
			t.Fatalf("row 1 = %q, want %q", rows[1].Status, MilestoneResolved)
		}
		if rows[0].Status != "Completed" {
			t.Fatalf("row 0 = %q, want Completed", rows[0].Status)
		}
	})
}

func TestDisputeTotal(t *testing.T) {
	o := milestoneOrder()
	sum, err := DisputeTotal(o, []int{0, 1})
	if err != nil {
		t.Fatalf("DisputeTotal: %v", err)
	}
	if sum != 20000 {
		t.Fatalf("sum = %d, want 20000", sum)
	}
	if _, err := DisputeTotal(o, []int{0, 2}); !errors.Is(err, order.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
