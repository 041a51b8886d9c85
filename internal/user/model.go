package user

import "time"

// Profile is the public view of a user. Rating fields are only populated
// for professionals, summed across their service listings.
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	RatingAvg   *float64  `json:"rating_avg,omitempty"`
	RatingCount *int      `json:"rating_count,omitempty"`
}
