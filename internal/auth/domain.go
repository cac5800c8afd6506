package auth

import (
	"errors"
	"time"
)

// ErrDuplicateAdmin is returned when a username is already taken.
var ErrDuplicateAdmin = errors.New("auth: admin username already exists")

// Admin represents an admin panel account.
type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
