package marketplace

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/gigplane/gigplane/internal/review"
)

type SubmitReviewRequest struct {
    Rating  *int   `json:"rating" validate:"required,min=0,max=5"`
    Comment string `json:"comment"`
}

// SubmitReview - the client reviews a completed order
func SubmitReview(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(SubmitReviewRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    if err := c.Validate(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    r, agg, err := reviewSvc.Submit(c.Request().Context(), review.SubmitCommand{
        OrderID: c.Param("id"),
        ActorID: uid,
        Rating:  *req.Rating,
        Comment: req.Comment,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "review":       r,
        "rating_avg":   agg.Average,
        "rating_count": agg.Count,
    })
}

type ReviewResponseRequest struct {
    Response string `json:"response" validate:"required"`
}

// RespondToReview - the professional posts their one public reply
func RespondToReview(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(ReviewResponseRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    if err := c.Validate(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    r, err := reviewSvc.Respond(c.Request().Context(), c.Param("id"), uid, req.Response)
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

// HideReview - moderators pull a review out of listings and ratings
func HideReview(c echo.Context) error {
    agg, err := reviewSvc.Hide(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":      "review hidden",
        "rating_avg":   agg.Average,
        "rating_count": agg.Count,
    })
}

// UnhideReview - moderators restore a hidden review
func UnhideReview(c echo.Context) error {
    agg, err := reviewSvc.Unhide(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":      "review restored",
        "rating_avg":   agg.Average,
        "rating_count": agg.Count,
    })
}

// ListServiceReviews - public visible reviews of a service
func ListServiceReviews(c echo.Context) error {
    reviews, err := reviewSvc.ListByService(c.Request().Context(), c.Param("id"), false)
    if err != nil {
        return respondErr(c, err)
    }
    agg, err := reviewSvc.ServiceAggregate(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "reviews":      reviews,
        "rating_avg":   agg.Average,
        "rating_count": agg.Count,
    })
}

// GetOrderReview - the visible review for one order
func GetOrderReview(c echo.Context) error {
    r, err := reviewSvc.ByOrder(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, r)
}
