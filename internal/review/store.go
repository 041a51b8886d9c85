package review

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists reviews. Create and SetHidden recompute the service
// aggregate in the same transaction as the write, so no reader ever sees an
// aggregate that disagrees with a committed review.
type Store interface {
	Create(ctx context.Context, r *Review) (Aggregate, error)
	SetHidden(ctx context.Context, reviewID string, hidden bool) (Aggregate, error)
	AddResponse(ctx context.Context, reviewID, professionalID, response string) error
	Get(ctx context.Context, reviewID string) (*Review, error)
	GetByOrder(ctx context.Context, orderID string) (*Review, error)
	ListByService(ctx context.Context, serviceID string, includeHidden bool) ([]*Review, error)
	Aggregate(ctx context.Context, serviceID string) (Aggregate, error)
}

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Create(ctx context.Context, r *Review) (Aggregate, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Aggregate{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO reviews (id, order_id, service_id, client_id, professional_id, rating, comment, hidden, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $8)`,
		r.ID, r.OrderID, r.ServiceID, r.ClientID, r.ProfessionalID, r.Rating, r.Comment, r.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Aggregate{}, ErrDuplicate
		}
		return Aggregate{}, err
	}

	agg, err := recompute(ctx, tx, r.ServiceID)
	if err != nil {
		return Aggregate{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}

func (s *PgStore) SetHidden(ctx context.Context, reviewID string, hidden bool) (Aggregate, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Aggregate{}, err
	}
	defer tx.Rollback(ctx)

	var serviceID string
	err = tx.QueryRow(ctx, `
		UPDATE reviews SET hidden = $1, updated_at = NOW()
		WHERE id = $2 AND hidden <> $1
		RETURNING service_id`, hidden, reviewID,
	).Scan(&serviceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Aggregate{}, ErrNotFound
	}
	if err != nil {
		return Aggregate{}, err
	}

	agg, err := recompute(ctx, tx, serviceID)
	if err != nil {
		return Aggregate{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}

func (s *PgStore) AddResponse(ctx context.Context, reviewID, professionalID, response string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE reviews SET response = $1, updated_at = NOW()
		WHERE id = $2 AND professional_id = $3 AND response IS NULL`,
		response, reviewID, professionalID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1 AND professional_id = $2)`,
			reviewID, professionalID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrAlreadyResponded
	}
	return nil
}

func (s *PgStore) Get(ctx context.Context, reviewID string) (*Review, error) {
	return s.scanOne(ctx, `WHERE id = $1`, reviewID)
}

func (s *PgStore) GetByOrder(ctx context.Context, orderID string) (*Review, error) {
	return s.scanOne(ctx, `WHERE order_id = $1 AND NOT hidden`, orderID)
}

func (s *PgStore) scanOne(ctx context.Context, where string, arg any) (*Review, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, order_id, service_id, client_id, professional_id, rating, comment, response, hidden, created_at, updated_at
		FROM reviews `+where, arg,
	)
	var r Review
	err := row.Scan(&r.ID, &r.OrderID, &r.ServiceID, &r.ClientID, &r.ProfessionalID,
		&r.Rating, &r.Comment, &r.Response, &r.Hidden, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PgStore) ListByService(ctx context.Context, serviceID string, includeHidden bool) ([]*Review, error) {
	q := `
		SELECT id, order_id, service_id, client_id, professional_id, rating, comment, response, hidden, created_at, updated_at
		FROM reviews WHERE service_id = $1`
	if !includeHidden {
		q += ` AND NOT hidden`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, q, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ServiceID, &r.ClientID, &r.ProfessionalID,
			&r.Rating, &r.Comment, &r.Response, &r.Hidden, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}

func (s *PgStore) Aggregate(ctx context.Context, serviceID string) (Aggregate, error) {
	agg := Aggregate{ServiceID: serviceID}
	var avg float64
	err := s.db.QueryRow(ctx,
		`SELECT rating_avg, rating_count FROM services WHERE id = $1`, serviceID,
	).Scan(&avg, &agg.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return agg, nil
	}
	if err != nil {
		return Aggregate{}, err
	}
	agg.Average = avg
	return agg, nil
}

// recompute refreshes the denormalized aggregate on the services row inside
// the caller's transaction.
func recompute(ctx context.Context, tx pgx.Tx, serviceID string) (Aggregate, error) {
	agg := Aggregate{ServiceID: serviceID}
	var avg float64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating)::float, 0), COUNT(*)
		FROM reviews WHERE service_id = $1 AND NOT hidden`, serviceID,
	).Scan(&avg, &agg.Count)
	if err != nil {
		return Aggregate{}, err
	}
	agg.Average = RoundRating(avg)

	_, err = tx.Exec(ctx, `
		UPDATE services SET rating_avg = $1, rating_count = $2 WHERE id = $3`,
		agg.Average, agg.Count, serviceID,
	)
	if err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}
