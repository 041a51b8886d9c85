package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// Concurrent responses to one cancellation request: exactly one wins, every
// other caller loses to the version check or finds the request resolved.
func TestConcurrentCancellationResponses(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()
	o := createOrder(t, svc, CreateCommand{})

	if _, err := svc.RequestCancellation(ctx, RequestCancellationCommand{OrderID: o.ID, ActorID: o.ClientID, Reason: "duplicate order"}); err != nil {
		t.Fatalf("RequestCancellation: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RespondToCancellation(ctx, RespondToCancellationCommand{
				OrderID: o.ID,
				ActorID: o.ProfessionalID,
				Approve: true,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrStaleState) || errors.Is(err, ErrInvalidState):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}
	if conflicted != workers-1 {
		t.Fatalf("conflicted = %d, want %d", conflicted, workers-1)
	}

	got, err := svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("status = %s, want %s", got.Status, StatusCancelled)
	}

	refunds := 0
	for _, c := range p.calls {
		if c.Op == "refund" {
			refunds++
		}
	}
	if refunds != 1 {
		t.Fatalf("refunds = %d, want exactly 1", refunds)
	}
}

// Concurrent sweep runs against the same expired cancellation: the escrow is
// refunded once no matter how many sweepers race.
func TestConcurrentSweeps(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()
	o := createOrder(t, svc, CreateCommand{})

	if _, err := svc.RequestCancellation(ctx, RequestCancellationCommand{OrderID: o.ID, ActorID: o.ProfessionalID, Reason: "cannot take the job"}); err != nil {
		t.Fatalf("RequestCancellation: %v", err)
	}
	svc.now = func() time.Time { return time.Now().Add(49 * time.Hour) }

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Sweep(ctx); err != nil {
				t.Errorf("Sweep: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("status = %s, want %s", got.Status, StatusCancelled)
	}
	refunds := 0
	for _, c := range p.calls {
		if c.Op == "refund" {
			refunds++
		}
	}
	if refunds != 1 {
		t.Fatalf("refunds = %d, want exactly 1", refunds)
	}
}
