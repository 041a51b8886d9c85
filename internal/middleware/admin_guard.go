package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ArbiterGuard ensures only arbiters can access arbitration routes
func ArbiterGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get("role").(string)
		if !ok || role != "arbiter" {
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": "arbiter access only",
			})
		}
		return next(c)
	}
}
