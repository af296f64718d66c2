package model

import "time"

// User represents a registered customer of the platform.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
