package review

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store used by tests. Its mutex gives the same
// insert-plus-recompute atomicity as the database transaction.
type MemStore struct {
	mu      sync.Mutex
	reviews map[string]*Review
}

func NewMemStore() *MemStore {
	return &MemStore{reviews: make(map[string]*Review)}
}

func (s *MemStore) Create(ctx context.Context, r *Review) (Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reviews {
		if existing.OrderID == r.OrderID && existing.ServiceID == r.ServiceID && !existing.Hidden {
			return Aggregate{}, ErrDuplicate
		}
	}
	cp := *r
	s.reviews[r.ID] = &cp
	return s.recompute(r.ServiceID), nil
}

func (s *MemStore) SetHidden(ctx context.Context, reviewID string, hidden bool) (Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[reviewID]
	if !ok {
		return Aggregate{}, ErrNotFound
	}
	if r.Hidden == hidden {
		return Aggregate{}, ErrNotFound
	}
	r.Hidden = hidden
	r.UpdatedAt = time.Now()
	return s.recompute(r.ServiceID), nil
}

func (s *MemStore) AddResponse(ctx context.Context, reviewID, professionalID, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[reviewID]
	if !ok || r.ProfessionalID != professionalID {
		return ErrNotFound
	}
	if r.Response != nil {
		return ErrAlreadyResponded
	}
	r.Response = &response
	r.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) Get(ctx context.Context, reviewID string) (*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) GetByOrder(ctx context.Context, orderID string) (*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.OrderID == orderID && !r.Hidden {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) ListByService(ctx context.Context, serviceID string, includeHidden bool) ([]*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reviews []*Review
	for _, r := range s.reviews {
		if r.ServiceID != serviceID {
			continue
		}
		if r.Hidden && !includeHidden {
			continue
		}
		cp := *r
		reviews = append(reviews, &cp)
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

func (s *MemStore) Aggregate(ctx context.Context, serviceID string) (Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recompute(serviceID), nil
}

func (s *MemStore) recompute(serviceID string) Aggregate {
	agg := Aggregate{ServiceID: serviceID}
	var sum int
	for _, r := range s.reviews {
		if r.ServiceID == serviceID && !r.Hidden {
			sum += r.Rating
			agg.Count++
		}
	}
	if agg.Count > 0 {
		agg.Average = RoundRating(float64(sum) / float64(agg.Count))
	}
	return agg
}
