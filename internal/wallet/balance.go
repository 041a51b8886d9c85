package wallet

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gigplane/gigplane/internal/db"
)

// Balance returns the authenticated user's wallet balance and escrow holdings
func Balance(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	w := Wallet{UserID: userID}
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id::text, balance, escrow, created_at FROM wallets WHERE user_id=$1`, userID).
		Scan(&w.ID, &w.Balance, &w.Escrow, &w.CreatedAt)

	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
	}

	return c.JSON(http.StatusOK, w)
}
