package marketplace

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/gigplane/gigplane/internal/order"
)

type CancellationRequest struct {
    Reason      string       `json:"reason" validate:"required"`
    Attachments []attachment `json:"attachments"`
}

// RequestCancellation - either party asks to cancel the order
func RequestCancellation(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(CancellationRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    if err := c.Validate(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    o, err := orderSvc.RequestCancellation(c.Request().Context(), order.RequestCancellationCommand{
        OrderID:     c.Param("id"),
        ActorID:     uid,
        Reason:      req.Reason,
        Attachments: toAttachments(req.Attachments),
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

type CancellationResponseRequest struct {
    Approve         bool   `json:"approve"`
    RejectionReason string `json:"rejection_reason"`
}

// RespondToCancellation - the counterparty approves or rejects the request
func RespondToCancellation(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(CancellationResponseRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    o, err := orderSvc.RespondToCancellation(c.Request().Context(), order.RespondToCancellationCommand{
        OrderID:         c.Param("id"),
        ActorID:         uid,
        Approve:         req.Approve,
        RejectionReason: req.RejectionReason,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

type WithdrawCancellationRequest struct {
    Reason string `json:"reason"`
}

// WithdrawCancellation - the requester takes back a pending cancellation
func WithdrawCancellation(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(WithdrawCancellationRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    o, err := orderSvc.WithdrawCancellation(c.Request().Context(), order.WithdrawCancellationCommand{
        OrderID: c.Param("id"),
        ActorID: uid,
        Reason:  req.Reason,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}
