package user

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/gigplane/gigplane/internal/db"
)

// GET /users/:id/profile
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	var p Profile

	query := `
		SELECT id, name, COALESCE(bio, ''), role, created_at
		FROM users
		WHERE id = $1
	`

	err := db.Conn.QueryRow(context.Background(), query, userID).Scan(
		&p.ID,
		&p.Name,
		&p.Bio,
		&p.Role,
		&p.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	// Professionals carry the rating summary across their listings
	if p.Role == "professional" {
		var ratingAvg float64
		var ratingCount int
		err := db.Conn.QueryRow(context.Background(), `
			SELECT COALESCE(SUM(rating_avg * rating_count) / NULLIF(SUM(rating_count), 0), 0),
			       COALESCE(SUM(rating_count), 0)
			FROM services WHERE professional_id = $1
		`, p.ID).Scan(&ratingAvg, &ratingCount)
		if err == nil {
			p.RatingAvg = &ratingAvg
			p.RatingCount = &ratingCount
		}
	}

	return c.JSON(http.StatusOK, p)
}
