package review

import (
	"errors"
	"math"
	"time"
)

var (
	ErrNotFound = errors.New("review not found")
	// ErrDuplicate means a non-hidden review already exists for this
	// (order, service) pair.
	ErrDuplicate = errors.New("review already exists for this order")
	// ErrAlreadyResponded means the professional has used their one response.
	ErrAlreadyResponded = errors.New("review already has a response")
)

type Review struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"order_id"`
	ServiceID      string     `json:"service_id"`
	ClientID       string     `json:"client_id"`
	ProfessionalID string     `json:"professional_id"`
	Rating         int        `json:"rating"`
	Comment        string     `json:"comment"`
	Response       *string    `json:"response,omitempty"`
	Hidden         bool       `json:"hidden"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Aggregate is a service's rolling rating over its non-hidden reviews.
type Aggregate struct {
	ServiceID string  `json:"service_id"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"`
}

// RoundRating rounds an average to one decimal place, half up.
func RoundRating(avg float64) float64 {
	return math.Floor(avg*10+0.5) / 10
}
