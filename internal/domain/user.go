package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered customer or administrator.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Phone        string    `json:"phone" db:"phone"`
	Country      string    `json:"country" db:"country"`
	City         string    `json:"city" db:"city"`
	Street       string    `json:"street" db:"street"`
	Apartment    string    `json:"apartment" db:"apartment"`
	IsAdmin      bool      `json:"isAdmin" db:"is_admin"`
	CreatedAt    time.Time `json:"date" db:"created_at"`
}

// UserSummary is the part of a user embedded in order listings.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
