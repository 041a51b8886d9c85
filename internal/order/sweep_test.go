package order

import (
	"context"
	"testing"
	"time"
)

func TestSweepAutoApprovesExpiredCancellation(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()
	o := createOrder(t, svc, CreateCommand{})

	if _, err := svc.RequestCancellation(ctx, RequestCancellationCommand{OrderID: o.ID, ActorID: o.ClientID, Reason: "no longer needed"}); err != nil {
		t.Fatalf("RequestCancellation: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(49 * time.Hour) }
	if err := svc.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, err := svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("status = %s, want %s", got.Status, StatusCancelled)
	}
	if !got.Cancellation.AutoResolved {
		t.Fatal("cancellation not marked auto resolved")
	}
	ops := p.ops()
	if ops[len(ops)-1] != "refund" {
		t.Fatalf("payment ops = %v, want refund last", ops)
	}

	// Second run leaves the order alone.
	if err := svc.Sweep(ctx); err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	again, _ := svc.Get(ctx, o.ID)
	if again.Version != got.Version {
		t.Fatalf("version advanced from %d to %d on idle sweep", got.Version, again.Version)
	}
}

func TestSweepAutoApprovesExpiredExtension(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	due := base.Add(12 * time.Hour)
	o := createOrder(t, svc, CreateCommand{DueAt: &due})
	if _, err := svc.StartWork(ctx, StartWorkCommand{OrderID: o.ID, ActorID: o.ProfessionalID}); err != nil {
		t.Fatalf("StartWork: %v", err)
	}
	proposed := due.Add(72 * time.Hour)
	if _, err := svc.RequestExtension(ctx, RequestExtensionCommand{OrderID: o.ID, ActorID: o.ProfessionalID, ProposedDueAt: proposed, Reason: "scope grew"}); err != nil {
		t.Fatalf("RequestExtension: %v", err)
	}

	svc.now = func() time.Time { return base.Add(25 * time.Hour) }
	if err := svc.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, err := svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Extension.Status != ExtensionApproved || !got.Extension.AutoResolved {
		t.Fatalf("extension = %+v, want auto approved", got.Extension)
	}
	if got.DueAt == nil || !got.DueAt.Equal(proposed) {
		t.Fatalf("due = %v, want %v", got.DueAt, proposed)
	}
}

func TestSweepAutoCompletesStaleDelivery(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()
	o := deliveredOrder(t, svc)

	// Inside the acceptance window nothing happens.
	if err := svc.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	got, _ := svc.Get(ctx, o.ID)
	if got.Status != StatusDelivered {
		t.Fatalf("status = %s, want %s before the window closes", got.Status, StatusDelivered)
	}

	svc.now = func() time.Time { return time.Now().Add(73 * time.Hour) }
	if err := svc.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, err := svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", got.Status, StatusCompleted)
	}
	ops := p.ops()
	if ops[len(ops)-1] != "release" {
		t.Fatalf("payment ops = %v, want release last", ops)
	}
}

func TestSweepSkipsDisputedDelivery(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := deliveredOrder(t, svc)

	evidence := []Attachment{{Name: "proof.png", URL: "https://files/proof.png"}}
	if _, err := svc.OpenDispute(ctx, OpenDisputeCommand{OrderID: o.ID, ActorID: o.ClientID, UnmetRequirements: "incomplete", Evidence: evidence, OfferAmount: 1000}); err != nil {
		t.Fatalf("OpenDispute: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(73 * time.Hour) }
	if err := svc.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	got, _ := svc.Get(ctx, o.ID)
	if got.Status != StatusDisputed {
		t.Fatalf("status = %s, want %s", got.Status, StatusDisputed)
	}
}
