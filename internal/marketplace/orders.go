package marketplace

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/gigplane/gigplane/internal/db"
    "github.com/gigplane/gigplane/internal/order"
)

// serviceFeeBps is the platform fee applied on top of the items subtotal.
const serviceFeeBps = 500

type orderItem struct {
    Title     string `json:"title"`
    UnitPrice int64  `json:"unit_price"`
    Quantity  int    `json:"quantity"`
}

type orderMilestone struct {
    Name               string `json:"name"`
    Description        string `json:"description"`
    UnitPrice          int64  `json:"unit_price"`
    Quantity           int    `json:"quantity"`
    DeliveryOffsetDays int    `json:"delivery_offset_days"`
}

type CreateOrderRequest struct {
    ServiceID  string           `json:"service_id" validate:"required"`
    Items      []orderItem      `json:"items"`
    Milestones []orderMilestone `json:"milestones"`
    Discount   int64            `json:"discount" validate:"min=0"`
    ExtraInfo  string           `json:"extra_info"`
    DueInDays  int              `json:"due_in_days" validate:"omitempty,min=1"`
}

// =========================
// CreateOrder - Client purchases a service
// =========================
func CreateOrder(c echo.Context) error {
    clientID, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    req := new(CreateOrderRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    if err := c.Validate(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    var professionalID, title, status string
    var price int64
    var deliveryDays int
    err := db.Conn.QueryRow(context.Background(),
        `SELECT professional_id, title, price, COALESCE(delivery_time_days, 0), status FROM services WHERE id = $1`,
        req.ServiceID,
    ).Scan(&professionalID, &title, &price, &deliveryDays, &status)
    if err != nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
    }
    if status != "active" {
        return c.JSON(http.StatusConflict, echo.Map{"error": "service is not open for orders"})
    }
    if professionalID == clientID {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "you cannot order your own service"})
    }

    items := make([]order.LineItem, 0, len(req.Items))
    for _, it := range req.Items {
        items = append(items, order.LineItem{Title: it.Title, UnitPrice: it.UnitPrice, Quantity: it.Quantity})
    }
    if len(items) == 0 {
        items = append(items, order.LineItem{Title: title, UnitPrice: price, Quantity: 1})
    }
    milestones := make([]order.Milestone, 0, len(req.Milestones))
    for _, m := range req.Milestones {
        milestones = append(milestones, order.Milestone{
            Name:               m.Name,
            Description:        m.Description,
            UnitPrice:          m.UnitPrice,
            Quantity:           m.Quantity,
            DeliveryOffsetDays: m.DeliveryOffsetDays,
        })
    }

    var subtotal int64
    for _, it := range items {
        subtotal += it.UnitPrice * int64(it.Quantity)
    }
    fee := subtotal * serviceFeeBps / 10000

    var dueAt *time.Time
    days := req.DueInDays
    if days == 0 {
        days = deliveryDays
    }
    if days > 0 {
        d := time.Now().AddDate(0, 0, days)
        dueAt = &d
    }

    o, err := orderSvc.Create(c.Request().Context(), order.CreateCommand{
        ClientID:       clientID,
        ProfessionalID: professionalID,
        ServiceID:      req.ServiceID,
        Items:          items,
        Milestones:     milestones,
        Discount:       req.Discount,
        ServiceFee:     fee,
        DueAt:          dueAt,
        ExtraInfo:      req.ExtraInfo,
    })
    if err != nil {
        return respondErr(c, err)
    }

    return c.JSON(http.StatusCreated, o)
}

// GetOrder returns a single order; only its parties may see it
func GetOrder(c echo.Context) error {
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
    return c.JSON(http.StatusOK, o)
}

// ListOrders returns the caller's orders, newest first
func ListOrders(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orders, err := orderSvc.ListByUser(c.Request().Context(), uid)
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// StartWork - the professional begins work on a pending order
func StartWork(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    o, err := orderSvc.StartWork(c.Request().Context(), order.StartWorkCommand{
        OrderID: c.Param("id"),
        ActorID: uid,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

type ExtraInfoRequest struct {
    Message     string       `json:"message"`
    Attachments []attachment `json:"attachments"`
}

type attachment struct {
    Name string `json:"name"`
    URL  string `json:"url"`
}

func toAttachments(in []attachment) []order.Attachment {
    out := make([]order.Attachment, 0, len(in))
    for _, a := range in {
        out = append(out, order.Attachment{Name: a.Name, URL: a.URL})
    }
    return out
}

// SubmitExtraInfo - the client supplies requirements the professional asked for
func SubmitExtraInfo(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(ExtraInfoRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    o, err := orderSvc.SubmitExtraInfo(c.Request().Context(), order.SubmitExtraInfoCommand{
        OrderID:     c.Param("id"),
        ActorID:     uid,
        Message:     req.Message,
        Attachments: toAttachments(req.Attachments),
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

type DeliveryRequest struct {
    Message        string       `json:"message"`
    Attachments    []attachment `json:"attachments"`
    MilestoneIndex *int         `json:"milestone_index"`
}

// SubmitDelivery - the professional delivers the work
func SubmitDelivery(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(DeliveryRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    o, err := orderSvc.SubmitDelivery(c.Request().Context(), order.SubmitDeliveryCommand{
        OrderID:        c.Param("id"),
        ActorID:        uid,
        Message:        req.Message,
        Attachments:    toAttachments(req.Attachments),
        MilestoneIndex: req.MilestoneIndex,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

type RevisionRequest struct {
    Reason         string `json:"reason" validate:"required"`
    MilestoneIndex *int   `json:"milestone_index"`
}

// RequestRevision - the client sends a delivery back for changes
func RequestRevision(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(RevisionRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    if err := c.Validate(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    o, err := orderSvc.RequestRevision(c.Request().Context(), order.RequestRevisionCommand{
        OrderID:        c.Param("id"),
        ActorID:        uid,
        Reason:         req.Reason,
        MilestoneIndex: req.MilestoneIndex,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

type RevisionResponseRequest struct {
    Accept bool   `json:"accept"`
    Note   string `json:"note"`
}

// RespondToRevision - the professional accepts or rejects a revision request
func RespondToRevision(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    req := new(RevisionResponseRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    o, err := orderSvc.RespondToRevision(c.Request().Context(), order.RespondToRevisionCommand{
        OrderID: c.Param("id"),
        ActorID: uid,
        Accept:  req.Accept,
        Note:    req.Note,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

// CompleteOrder - the client accepts the delivery and releases the funds
func CompleteOrder(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    o, err := orderSvc.Complete(c.Request().Context(), order.CompleteCommand{
        OrderID: c.Param("id"),
        ActorID: uid,
    })
    if err != nil {
        return respondErr(c, err)
    }
    return c.JSON(http.StatusOK, o)
}
