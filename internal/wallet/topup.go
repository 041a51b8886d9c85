package wallet

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gigplane/gigplane/internal/db"
)

type TopupRequest struct {
	Amount int64 `json:"amount" validate:"required,min=100"`
}

// Topup credits the user's wallet. There is no payment provider behind this,
// the credit lands immediately.
func Topup(c echo.Context) error {
	req := new(TopupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1 WHERE user_id = $2`,
		req.Amount, userID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not credit wallet"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO transactions (user_id, amount, type, created_at)
		 VALUES ($1, $2, 'topup', $3)`,
		userID, req.Amount, time.Now(),
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record transaction"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "wallet credited",
		"amount":  req.Amount,
	})
}
