package user

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/gigplane/gigplane/internal/db"
)

type UpdateProfileRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// PATCH /users/profile
func UpdateProfile(c echo.Context) error {
    userID, ok := c.Get("user_id").(string)
    if !ok || userID == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
    }

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	query := `
		UPDATE users 
		SET name = COALESCE(NULLIF($1, ''), name),
		    bio = COALESCE(NULLIF($2, ''), bio)
		WHERE id = $3
	`
    _, err := db.Conn.Exec(c.Request().Context(), query, req.Name, req.Bio, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
    }

	return c.JSON(http.StatusOK, echo.Map{
		"message": "profile updated successfully",
	})
}
