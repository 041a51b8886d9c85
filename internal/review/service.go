package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gigplane/gigplane/internal/order"
)

// Orders is the slice of the order service the review engine needs.
type Orders interface {
	Get(ctx context.Context, id string) (*order.Order, error)
}

type Service struct {
	store  Store
	orders Orders
}

func NewService(store Store, orders Orders) *Service {
	return &Service{store: store, orders: orders}
}

type SubmitCommand struct {
	OrderID string
	ActorID string
	Rating  int
	Comment string
}

// Submit creates the client's review of a completed order and returns the
// review together with the service's refreshed rating aggregate.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*Review, Aggregate, error) {
	o, err := s.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, Aggregate{}, err
	}
	if o.ClientID != cmd.ActorID {
		return nil, Aggregate{}, fmt.Errorf("%w: only the client may review the order", order.ErrUnauthorized)
	}
	if o.CompletedAt == nil {
		return nil, Aggregate{}, fmt.Errorf("%w: order is not completed", order.ErrInvalidState)
	}
	if cmd.Rating < 0 || cmd.Rating > 5 {
		return nil, Aggregate{}, fmt.Errorf("%w: rating must be between 0 and 5", order.ErrValidation)
	}
	now := time.Now()
	r := &Review{
		ID:             uuid.New().String(),
		OrderID:        o.ID,
		ServiceID:      o.ServiceID,
		ClientID:       o.ClientID,
		ProfessionalID: o.ProfessionalID,
		Rating:         cmd.Rating,
		Comment:        cmd.Comment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	agg, err := s.store.Create(ctx, r)
	if err != nil {
		return nil, Aggregate{}, err
	}
	return r, agg, nil
}

// Hide removes a review from listings and from the aggregate. Only a moderator
// should reach this path; the handler enforces the role.
func (s *Service) Hide(ctx context.Context, reviewID string) (Aggregate, error) {
	return s.store.SetHidden(ctx, reviewID, true)
}

func (s *Service) Unhide(ctx context.Context, reviewID string) (Aggregate, error) {
	return s.store.SetHidden(ctx, reviewID, false)
}

// Respond records the professional's one-time public reply to a review.
func (s *Service) Respond(ctx context.Context, reviewID, professionalID, response string) (*Review, error) {
	if response == "" {
		return nil, fmt.Errorf("%w: response is required", order.ErrValidation)
	}
	if err := s.store.AddResponse(ctx, reviewID, professionalID, response); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, reviewID)
}

func (s *Service) ByOrder(ctx context.Context, orderID string) (*Review, error) {
	return s.store.GetByOrder(ctx, orderID)
}

func (s *Service) ListByService(ctx context.Context, serviceID string, includeHidden bool) ([]*Review, error) {
	return s.store.ListByService(ctx, serviceID, includeHidden)
}

func (s *Service) ServiceAggregate(ctx context.Context, serviceID string) (Aggregate, error) {
	return s.store.Aggregate(ctx, serviceID)
}
