package marketplace

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/gigplane/gigplane/internal/pricing"
    "github.com/gigplane/gigplane/internal/timeline"
)

// GetTimeline returns the order's activity feed, newest first
func GetTimeline(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    o, err := orderSvc.Get(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondErr(c, err)
    }
    role, _ := c.Get("role").(string)
    if !o.Party(uid) && role != "arbiter" {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"events": timeline.Project(o)})
}

// GetBreakdown returns the order's price breakdown and milestone rows
func GetBreakdown(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    o, err := orderSvc.Get(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondErr(c, err)
    }
    role, _ := c.Get("role").(string)
    if !o.Party(uid) && role != "arbiter" {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed"})
    }
    breakdown, err := pricing.ComputeBreakdown(o)
    if err != nil {
        return respondErr(c, err)
    }
    resp := echo.Map{
        "breakdown":  breakdown,
        "milestones": pricing.MilestoneRows(o),
    }
    if o.Dispute != nil && len(o.Dispute.MilestoneIndexes) > 0 {
        if total, err := pricing.DisputeTotal(o, o.Dispute.MilestoneIndexes); err == nil {
            resp["disputed_amount"] = total
        }
    }
    return c.JSON(http.StatusOK, resp)
}
