package marketplace

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/gigplane/gigplane/internal/order"
)

type OpenDisputeRequest struct {
    Requirements      string       `json:"requirements"`
    UnmetRequirements string       `json:"unmet_requirements" validate:"required"`
    Evidence          []attachment `json:"evidence" validate:"required,min=1"`
    OfferAmount       int64        `json:"offer_amount" validate:"min=0"`
    MilestoneIndexes  []int        `json:"milestone_indexes"`
}

// OpenDispute - a party escalates a delivered or completed order
func OpenDispute(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(OpenDisputeRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    if err := c.Validate(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    o, err := orderSvc.OpenDispute(c.Request().Context(), order.OpenDisputeCommand{
        OrderID:           c.Param("id"),
        ActorID:           uid,
        Requirements:      req.Requirements,
        UnmetRequirements: req.UnmetRequirements,
        Evidence:          toAttachments(req.Evidence),
        OfferAmount:       req.OfferAmount,
        MilestoneIndexes:  req.MilestoneIndexes,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusCreated, o)
}

type DisputeResponseRequest struct {
    Message      string `json:"message" validate:"required"`
    CounterOffer *int64 `json:"counter_offer"`
}

// RespondToDispute - the counterparty answers, optionally with a counter-offer
func RespondToDispute(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(DisputeResponseRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    if err := c.Validate(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    o, err := orderSvc.RespondToDispute(c.Request().Context(), order.RespondToDisputeCommand{
        OrderID:      c.Param("id"),
        ActorID:      uid,
        Message:      req.Message,
        CounterOffer: req.CounterOffer,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

// RequestArbitration - a party hands an open dispute to an arbiter
func RequestArbitration(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    o, err := orderSvc.RequestArbitration(c.Request().Context(), order.RequestArbitrationCommand{
        OrderID: c.Param("id"),
        ActorID: uid,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

// CancelDispute - the opener withdraws the dispute
func CancelDispute(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    o, err := orderSvc.CancelDispute(c.Request().Context(), order.CancelDisputeCommand{
        OrderID: c.Param("id"),
        ActorID: uid,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

type ResolveDisputeRequest struct {
    Complete bool  `json:"complete"`
    Payout   int64 `json:"payout" validate:"min=0"`
}

// ResolveDispute - an arbiter settles a dispute under arbitration
func ResolveDispute(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(ResolveDisputeRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    o, err := orderSvc.ResolveDispute(c.Request().Context(), order.ResolveDisputeCommand{
        OrderID:   c.Param("id"),
        ArbiterID: uid,
        Complete:  req.Complete,
        Payout:    req.Payout,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}
