package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists orders as single versioned documents: every write replaces
// the whole record guarded by the version column, so a status and its
// sub-records can never be committed separately.
type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// Update applies the order guarded by o.Version; a lost race returns
	// ErrStaleState. On success o.Version is incremented.
	Update(ctx context.Context, o *Order) error
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	// ListSweepCandidates returns ids of orders with an expired cancellation
	// or extension deadline, or a delivery older than deliveredBefore still
	// awaiting acceptance.
	ListSweepCandidates(ctx context.Context, now, deliveredBefore time.Time) ([]string, error)
}

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Create(ctx context.Context, o *Order) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO orders (
			id, service_id, client_id, professional_id, status, delivery_status,
			version, doc, cancel_respond_by, extension_respond_by, last_delivered_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.ServiceID, o.ClientID, o.ProfessionalID, string(o.Status), o.DeliveryStatus,
		o.Version, doc, cancelRespondBy(o), extensionRespondBy(o), lastDeliveredAt(o), o.CreatedAt,
	)
	return err
}

func (s *PgStore) Get(ctx context.Context, id string) (*Order, error) {
	var doc []byte
	var version int
	err := s.db.QueryRow(ctx,
		`SELECT doc, version FROM orders WHERE id = $1`, id,
	).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var o Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, err
	}
	o.Version = version
	return &o, nil
}

func (s *PgStore) Update(ctx context.Context, o *Order) error {
	next := *o
	next.Version = o.Version + 1
	doc, err := json.Marshal(&next)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    delivery_status = $2,
		    version = version + 1,
		    doc = $3,
		    cancel_respond_by = $4,
		    extension_respond_by = $5,
		    last_delivered_at = $6,
		    updated_at = NOW()
		WHERE id = $7 AND version = $8`,
		string(o.Status), o.DeliveryStatus, doc,
		cancelRespondBy(o), extensionRespondBy(o), lastDeliveredAt(o),
		o.ID, o.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	o.Version++
	return nil
}

func (s *PgStore) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT doc, version FROM orders
		WHERE client_id = $1 OR professional_id = $1
		ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var doc []byte
		var version int
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, err
		}
		var o Order
		if err := json.Unmarshal(doc, &o); err != nil {
			return nil, err
		}
		o.Version = version
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

func (s *PgStore) ListSweepCandidates(ctx context.Context, now, deliveredBefore time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM orders
		WHERE (status = 'cancellation_pending' AND cancel_respond_by IS NOT NULL AND cancel_respond_by <= $1)
		   OR (extension_respond_by IS NOT NULL AND extension_respond_by <= $1
		       AND status NOT IN ('completed', 'cancelled'))
		   OR (status = 'delivered' AND last_delivered_at IS NOT NULL AND last_delivered_at <= $2)`,
		now, deliveredBefore,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Denormalized deadline columns keep the sweep query on indexes instead of
// JSONB path scans.

func cancelRespondBy(o *Order) *time.Time {
	if o.Cancellation != nil && o.Cancellation.Status == CancellationPending {
		t := o.Cancellation.RespondBy
		return &t
	}
	return nil
}

func extensionRespondBy(o *Order) *time.Time {
	if o.Extension != nil && o.Extension.Status == ExtensionPending {
		t := o.Extension.RespondBy
		return &t
	}
	return nil
}

func lastDeliveredAt(o *Order) *time.Time {
	if last := o.LatestDelivery(); last != nil {
		t := last.DeliveredAt
		return &t
	}
	return nil
}
