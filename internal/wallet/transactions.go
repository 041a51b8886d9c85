package wallet

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gigplane/gigplane/internal/db"
)

// Transactions returns the authenticated user's ledger, newest first
func Transactions(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "unauthorized or invalid user",
		})
	}

	rows, err := db.Conn.Query(
		context.Background(),
		`SELECT id, amount, type, COALESCE(reference::text, ''), created_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		uid,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Type, &t.Reference, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		t.UserID = uid
		txs = append(txs, t)
	}

	return c.JSON(http.StatusOK, txs)
}
