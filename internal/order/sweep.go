package order

import (
	"context"
	"errors"
	"log"
	"time"
)

// RunSweep ticks the deadline sweep until the context is cancelled.
func (s *Service) RunSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				log.Printf("sweep: %v", err)
			}
		}
	}
}

// Sweep auto-resolves every expired deadline: unanswered cancellation requests
// are approved in the requester's favor, unanswered extension requests are
// granted, and deliveries past the acceptance window complete the order.
// Each order is re-read immediately before acting, and a lost write race is
// logged and skipped, so re-running the sweep is always a no-op.
func (s *Service) Sweep(ctx context.Context) error {
	now := s.now()
	candidates, err := s.store.ListSweepCandidates(ctx, now, now.Add(-s.deadlines.Acceptance))
	if err != nil {
		return err
	}
	for _, id := range candidates {
		if err := s.sweepOne(ctx, id, now); err != nil {
			if errors.Is(err, ErrStaleState) || errors.Is(err, ErrInvalidState) || errors.Is(err, ErrNotFound) {
				// Expected race: a user action or another sweep run got there first.
				log.Printf("sweep: order %s already advanced, skipping", id)
				continue
			}
			log.Printf("sweep: order %s: %v", id, err)
		}
	}
	return nil
}

func (s *Service) sweepOne(ctx context.Context, id string, now time.Time) error {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case o.Status == StatusCancellationPending &&
		o.Cancellation != nil && o.Cancellation.Status == CancellationPending &&
		now.After(o.Cancellation.RespondBy):
		o.Cancellation.Status = CancellationApproved
		o.Cancellation.AutoResolved = true
		o.Cancellation.ResolvedAt = &now
		o.CancelledAt = &now
		o.refresh()
		if err := s.store.Update(ctx, o); err != nil {
			return err
		}
		s.refundEscrow(ctx, o)
		s.notify(o.ID, o.ClientID, "order:cancelled", "The cancellation request was approved automatically after the response deadline passed.")
		s.notify(o.ID, o.ProfessionalID, "order:cancelled", "The cancellation request was approved automatically after the response deadline passed.")
		return nil

	case o.Extension != nil && o.Extension.Status == ExtensionPending &&
		now.After(o.Extension.RespondBy) && !o.Terminal():
		o.Extension.Status = ExtensionApproved
		o.Extension.AutoResolved = true
		o.Extension.ResolvedAt = &now
		d := o.Extension.ProposedDueAt
		o.DueAt = &d
		o.refresh()
		if err := s.store.Update(ctx, o); err != nil {
			return err
		}
		s.notify(o.ID, o.ProfessionalID, "order:extension_approved", "The extension was approved automatically after the response deadline passed.")
		return nil

	case o.Status == StatusDelivered:
		last := o.LatestDelivery()
		if last == nil || now.Sub(last.DeliveredAt) < s.deadlines.Acceptance {
			return nil
		}
		o.CompletedAt = &now
		o.refresh()
		if err := s.store.Update(ctx, o); err != nil {
			return err
		}
		s.releaseEscrow(ctx, o)
		s.notify(o.ID, o.ProfessionalID, "order:completed", "The order completed automatically after the acceptance window passed.")
		s.notify(o.ID, o.ClientID, "order:completed", "The delivery was accepted automatically after the acceptance window passed.")
		return nil
	}
	return nil
}
