package marketplace

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gigplane/gigplane/internal/order"
	"github.com/gigplane/gigplane/internal/review"
)

var (
	orderSvc  *order.Service
	reviewSvc *review.Service
)

// Init wires the lifecycle and review services into the HTTP handlers.
func Init(orders *order.Service, reviews *review.Service) {
	orderSvc = orders
	reviewSvc = reviews
}

// respondErr maps service errors onto HTTP statuses.
func respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, order.ErrNotFound) || errors.Is(err, review.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, order.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed"})
	case errors.Is(err, order.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, order.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, order.ErrStaleState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "order changed concurrently, retry"})
	case errors.Is(err, review.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "order already reviewed"})
	case errors.Is(err, review.ErrAlreadyResponded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "review already has a response"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func requireUser(c echo.Context) (string, bool) {
	uid, ok := c.Get("user_id").(string)
	return uid, ok && uid != ""
}
