package marketplace

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/gigplane/gigplane/internal/order"
)

type ExtensionRequest struct {
    ProposedDueAt time.Time `json:"proposed_due_at" validate:"required"`
    Reason        string    `json:"reason" validate:"required"`
}

// RequestExtension - the professional asks for more time before the due date
func RequestExtension(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(ExtensionRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    if err := c.Validate(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    o, err := orderSvc.RequestExtension(c.Request().Context(), order.RequestExtensionCommand{
        OrderID:       c.Param("id"),
        ActorID:       uid,
        ProposedDueAt: req.ProposedDueAt,
        Reason:        req.Reason,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

type ExtensionResponseRequest struct {
    Approve bool `json:"approve"`
}

// RespondToExtension - the client approves or declines the new due date
func RespondToExtension(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(ExtensionResponseRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    o, err := orderSvc.RespondToExtension(c.Request().Context(), order.RespondToExtensionCommand{
        OrderID: c.Param("id"),
        ActorID: uid,
        Approve: req.Approve,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}
