package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInsufficientFunds = errors.New("wallet: insufficient funds")

// Escrow moves money between wallet balances and escrow holdings. Every
// movement runs in a single transaction together with its ledger entries.
type Escrow struct {
	pool *pgxpool.Pool
}

func NewEscrow(pool *pgxpool.Pool) *Escrow {
	return &Escrow{pool: pool}
}

// Hold moves the order total from the client's balance into escrow.
func (e *Escrow) Hold(ctx context.Context, orderID, clientID string, amount int64) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE wallets
		 SET balance = balance - $1, escrow = escrow + $1
		 WHERE user_id = $2 AND balance >= $1`,
		amount, clientID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO transactions (user_id, amount, type, reference, created_at)
		 VALUES ($1, $2, 'escrow_hold', $3, $4)`,
		clientID, -amount, orderID, time.Now(),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Release pays the full escrowed amount out to the professional.
func (e *Escrow) Release(ctx context.Context, orderID, clientID, professionalID string, amount int64) error {
	return e.settle(ctx, orderID, clientID, professionalID, amount, 0)
}

// Refund returns the full escrowed amount to the client.
func (e *Escrow) Refund(ctx context.Context, orderID, clientID string, amount int64) error {
	return e.settle(ctx, orderID, clientID, "", 0, amount)
}

// Split pays part of the escrow to the professional and refunds the rest.
func (e *Escrow) Split(ctx context.Context, orderID, clientID, professionalID string, payout, refund int64) error {
	return e.settle(ctx, orderID, clientID, professionalID, payout, refund)
}

func (e *Escrow) settle(ctx context.Context, orderID, clientID, professionalID string, payout, refund int64) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	total := payout + refund
	tag, err := tx.Exec(ctx,
		`UPDATE wallets
		 SET escrow = escrow - $1
		 WHERE user_id = $2 AND escrow >= $1`,
		total, clientID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}

	now := time.Now()

	if payout > 0 {
		if _, err = tx.Exec(ctx,
			`UPDATE wallets SET balance = balance + $1 WHERE user_id = $2`,
			payout, professionalID,
		); err != nil {
			return err
		}
		if _, err = tx.Exec(ctx,
			`INSERT INTO transactions (user_id, amount, type, reference, created_at)
			 VALUES ($1, $2, 'escrow_payout', $3, $4)`,
			professionalID, payout, orderID, now,
		); err != nil {
			return err
		}
	}

	if refund > 0 {
		if _, err = tx.Exec(ctx,
			`UPDATE wallets SET balance = balance + $1 WHERE user_id = $2`,
			refund, clientID,
		); err != nil {
			return err
		}
		if _, err = tx.Exec(ctx,
			`INSERT INTO transactions (user_id, amount, type, reference, created_at)
			 VALUES ($1, $2, 'escrow_refund', $3, $4)`,
			clientID, refund, orderID, now,
		); err != nil {
			return err
		}
	}

	if payout > 0 || refund > 0 {
		if _, err = tx.Exec(ctx,
			`INSERT INTO transactions (user_id, amount, type, reference, created_at)
			 VALUES ($1, $2, 'escrow_release', $3, $4)`,
			clientID, -total, orderID, now,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
