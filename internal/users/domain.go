package users

import "time"

// User represents a user account for management.
type User struct {
	ID         int64     `json:"id"`
	NationalID string    `json:"national_id"`
	Name       string    `json:"name"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
