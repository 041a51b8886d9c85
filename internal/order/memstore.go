package order

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store with the same compare-and-swap semantics as
// the database implementation. Used by tests and local tooling.
type MemStore struct {
	mu     sync.Mutex
	orders map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{orders: make(map[string][]byte)}
}

func (s *MemStore) Create(ctx context.Context, o *Order) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = doc
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*Order, error) {
	s.mu.Lock()
	doc, ok := s.orders[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var o Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *MemStore) Update(ctx context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	var current Order
	if err := json.Unmarshal(doc, &current); err != nil {
		return err
	}
	if current.Version != o.Version {
		return ErrStaleState
	}
	next := *o
	next.Version = o.Version + 1
	updated, err := json.Marshal(&next)
	if err != nil {
		return err
	}
	s.orders[o.ID] = updated
	o.Version++
	return nil
}

func (s *MemStore) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	s.mu.Lock()
	docs := make([][]byte, 0, len(s.orders))
	for _, doc := range s.orders {
		docs = append(docs, doc)
	}
	s.mu.Unlock()

	var orders []*Order
	for _, doc := range docs {
		var o Order
		if err := json.Unmarshal(doc, &o); err != nil {
			return nil, err
		}
		if o.ClientID == userID || o.ProfessionalID == userID {
			orders = append(orders, &o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *MemStore) ListSweepCandidates(ctx context.Context, now, deliveredBefore time.Time) ([]string, error) {
	s.mu.Lock()
	docs := make([][]byte, 0, len(s.orders))
	for _, doc := range s.orders {
		docs = append(docs, doc)
	}
	s.mu.Unlock()

	var ids []string
	for _, doc := range docs {
		var o Order
		if err := json.Unmarshal(doc, &o); err != nil {
			return nil, err
		}
		switch {
		case o.Status == StatusCancellationPending &&
			o.Cancellation != nil && o.Cancellation.Status == CancellationPending &&
			!o.Cancellation.RespondBy.After(now):
			ids = append(ids, o.ID)
		case o.Extension != nil && o.Extension.Status == ExtensionPending &&
			!o.Extension.RespondBy.After(now) && !o.Terminal():
			ids = append(ids, o.ID)
		case o.Status == StatusDelivered:
			if last := o.LatestDelivery(); last != nil && !last.DeliveredAt.After(deliveredBefore) {
				ids = append(ids, o.ID)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}
