package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gigplane/gigplane/internal/utils"
)

// JWTMiddleware authenticates the request and stores user_id and role
// in the request context for downstream handlers.
func JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := utils.ParseToken(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}
		userID, _ := claims["user_id"].(string)
		if userID == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token claims"})
		}
		role, _ := claims["role"].(string)
		c.Set("user_id", userID)
		c.Set("role", role)
		return next(c)
	}
}
