package marketplace

import "time"

// Service is a catalog listing offered by a professional.
type Service struct {
	ID               string    `json:"id"`
	ProfessionalID   string    `json:"professional_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Price            int64     `json:"price"`
	DeliveryTimeDays int       `json:"delivery_time_days"`
	Status           string    `json:"status"`
	RatingAvg        float64   `json:"rating_avg"`
	RatingCount      int       `json:"rating_count"`
	CreatedAt        time.Time `json:"created_at"`
}
