package marketplace

import (
    "context"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/gigplane/gigplane/internal/db"
)

type CreateServiceRequest struct {
    Title            string `json:"title" validate:"required"`
    Description      string `json:"description"`
    Price            int64  `json:"price" validate:"required,min=1"`
    DeliveryTimeDays int    `json:"delivery_time_days" validate:"omitempty,min=1"`
}

// CreateService allows a professional to list a new service on the marketplace
func CreateService(c echo.Context) error {
    uid, ok := requireUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    role, _ := c.Get("role").(string)
    if role != "professional" {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only professionals can list services"})
    }

    req := new(CreateServiceRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }
    if err := c.Validate(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    serviceID := uuid.New().String()

    _, err := db.Conn.Exec(
        context.Background(),
        `INSERT INTO services (id, professional_id, title, description, price, delivery_time_days, status, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, 'active', $7)`,
        serviceID, uid, req.Title, req.Description, req.Price, req.DeliveryTimeDays, time.Now(),
    )
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create service"})
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "service_id": serviceID,
        "message":    "service created successfully",
    })
}

// GetAllServices returns active services, with optional search and pagination
func GetAllServices(c echo.Context) error {
    q := c.QueryParam("q")
    minPrice := c.QueryParam("min_price")
    maxPrice := c.QueryParam("max_price")
    deliveryMax := c.QueryParam("delivery_time_max")
    ratingMin := c.QueryParam("rating_min")
    sort := c.QueryParam("sort")
    limit := 20
    offset := 0
    if l := c.QueryParam("limit"); l != "" {
        if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
            limit = v
        }
    }
    if o := c.QueryParam("offset"); o != "" {
        if v, err := strconv.Atoi(o); err == nil && v >= 0 {
            offset = v
        }
    }

    query := `SELECT id, professional_id, title, description, price, COALESCE(delivery_time_days, 0), status, rating_avg, rating_count, created_at
              FROM services`
    where := []string{"status = 'active'"}
    var args []any

    if q != "" {
        args = append(args, "%"+q+"%")
        n := len(args)
        where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
    }
    if minPrice != "" {
        args = append(args, minPrice)
        where = append(where, fmt.Sprintf("price >= $%d", len(args)))
    }
    if maxPrice != "" {
        args = append(args, maxPrice)
        where = append(where, fmt.Sprintf("price <= $%d", len(args)))
    }
    if deliveryMax != "" {
        args = append(args, deliveryMax)
        where = append(where, fmt.Sprintf("delivery_time_days <= $%d", len(args)))
    }
    if ratingMin != "" {
        args = append(args, ratingMin)
        where = append(where, fmt.Sprintf("rating_avg >= $%d", len(args)))
    }

    query += " WHERE " + strings.Join(where, " AND ")

    switch sort {
    case "price_asc":
        query += " ORDER BY price ASC"
    case "price_desc":
        query += " ORDER BY price DESC"
    case "rating":
        query += " ORDER BY rating_avg DESC, rating_count DESC"
    default:
        query += " ORDER BY created_at DESC"
    }
    args = append(args, limit)
    query += fmt.Sprintf(" LIMIT $%d", len(args))
    args = append(args, offset)
    query += fmt.Sprintf(" OFFSET $%d", len(args))

    rows, err := db.Conn.Query(context.Background(), query, args...)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load services"})
    }
    defer rows.Close()

    var services []Service
    for rows.Next() {
        var s Service
        if err := rows.Scan(&s.ID, &s.ProfessionalID, &s.Title, &s.Description, &s.Price, &s.DeliveryTimeDays, &s.Status, &s.RatingAvg, &s.RatingCount, &s.CreatedAt); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
        }
        services = append(services, s)
    }
    return c.JSON(http.StatusOK, echo.Map{"services": services})
}

// GetService returns one listing with its rating summary
func GetService(c echo.Context) error {
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
    }

    var s Service
    err := db.Conn.QueryRow(context.Background(),
        `SELECT id, professional_id, title, description, price, COALESCE(delivery_time_days, 0), status, rating_avg, rating_count, created_at
         FROM services WHERE id = $1`, id,
    ).Scan(&s.ID, &s.ProfessionalID, &s.Title, &s.Description, &s.Price, &s.DeliveryTimeDays, &s.Status, &s.RatingAvg, &s.RatingCount, &s.CreatedAt)
    if err != nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
    }

    return c.JSON(http.StatusOK, s)
}
