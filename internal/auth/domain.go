package auth

import "time"

// User represents a credential-store record. NationalID is the external
// identifier carried in token subjects.
type User struct {
	ID           int64
	NationalID   string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
